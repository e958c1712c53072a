package school

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cadenza-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

func TestStudentGradeHistoryRepoCurrentIsUnique(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewStudentGradeHistoryRepo(db, testutil.Logger(t))

	site := testutil.SeedSite(t, tx)
	student := testutil.SeedStudent(t, tx, site)
	g1 := testutil.SeedGrade(t, tx, site.CompanyID, 1)
	g2 := testutil.SeedGrade(t, tx, site.CompanyID, 2)

	first := &types.StudentGradeHistory{
		StudentID:      student.ID,
		GradeID:        g1.ID,
		StartDate:      time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:         school.GradeHistoryActive,
		IsCurrentGrade: true,
	}
	if err := repo.Create(dbc, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cur, err := repo.GetCurrent(dbc, student.ID)
	if err != nil || cur == nil || cur.ID != first.ID {
		t.Fatalf("GetCurrent: err=%v cur=%v", err, cur)
	}

	// A second current row must be rejected by the partial unique index.
	// Run it in a savepoint so the outer test transaction stays usable.
	err = tx.Transaction(func(inner *gorm.DB) error {
		return NewStudentGradeHistoryRepo(db, testutil.Logger(t)).Create(testutil.Ctx(inner), &types.StudentGradeHistory{
			StudentID:      student.ID,
			GradeID:        g2.ID,
			StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Status:         school.GradeHistoryActive,
			IsCurrentGrade: true,
		})
	})
	if err == nil {
		t.Fatalf("expected unique violation for a second current grade")
	}

	if err := cur.UpdateCompletion(100, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("UpdateCompletion: %v", err)
	}
	cur.IsCurrentGrade = false
	if err := repo.Save(dbc, cur); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next := &types.StudentGradeHistory{
		StudentID:      student.ID,
		GradeID:        g2.ID,
		StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:         school.GradeHistoryActive,
		IsCurrentGrade: true,
	}
	if err := repo.Create(dbc, next); err != nil {
		t.Fatalf("Create next grade: %v", err)
	}

	all, err := repo.ListByStudent(dbc, student.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByStudent: err=%v len=%d", err, len(all))
	}
	if all[0].Status != school.GradeHistoryCompleted || all[0].Grade == nil {
		t.Fatalf("ListByStudent: first record should be completed with grade loaded: %+v", all[0])
	}
	if msgs := school.ValidateCurrentGrades(all); msgs != nil {
		t.Fatalf("ValidateCurrentGrades: %v", msgs)
	}
}
