package school

import (
	"testing"

	"github.com/yungbote/cadenza-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cadenza-backend/internal/domain"
)

func TestBookRepoTakeStock(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	repo := NewBookRepo(db, testutil.Logger(t))

	site := testutil.SeedSite(t, tx)
	book := testutil.SeedBook(t, tx, site.CompanyID, 5)

	cases := []struct {
		qty    int
		wantOK bool
		left   int
	}{
		{3, true, 2},
		{3, false, 2},
		{2, true, 0},
		{0, true, 0},
	}
	for _, tc := range cases {
		ok, err := repo.TakeStock(dbc, book.ID, tc.qty)
		if err != nil {
			t.Fatalf("TakeStock(%d): %v", tc.qty, err)
		}
		if ok != tc.wantOK {
			t.Fatalf("TakeStock(%d): want ok=%v got %v", tc.qty, tc.wantOK, ok)
		}
		got, err := repo.GetByID(dbc, book.ID)
		if err != nil || got == nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Stock != tc.left {
			t.Fatalf("after TakeStock(%d): want stock %d got %d", tc.qty, tc.left, got.Stock)
		}
	}
}

func TestGradeRepoNextLevelAndReadingList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.Ctx(tx)
	grades := NewGradeRepo(db, testutil.Logger(t))
	gradeBooks := NewGradeBookRepo(db, testutil.Logger(t))

	site := testutil.SeedSite(t, tx)
	g1 := testutil.SeedGrade(t, tx, site.CompanyID, 1)
	g2 := testutil.SeedGrade(t, tx, site.CompanyID, 2)

	next, err := grades.NextLevel(dbc, g1)
	if err != nil || next == nil || next.ID != g2.ID {
		t.Fatalf("NextLevel: err=%v next=%v", err, next)
	}
	if top, err := grades.NextLevel(dbc, g2); err != nil || top != nil {
		t.Fatalf("NextLevel of top grade: want nil got %v (%v)", top, err)
	}

	b1 := testutil.SeedBook(t, tx, site.CompanyID, 1)
	b2 := testutil.SeedBook(t, tx, site.CompanyID, 1)
	if err := gradeBooks.Create(dbc, []*types.GradeBook{
		{GradeID: g1.ID, BookID: b2.ID, SortOrder: 2},
		{GradeID: g1.ID, BookID: b1.ID, SortOrder: 1, IsMandatory: true},
	}); err != nil {
		t.Fatalf("GradeBook Create: %v", err)
	}
	list, err := gradeBooks.ListByGrade(dbc, g1.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByGrade: err=%v len=%d", err, len(list))
	}
	if list[0].BookID != b1.ID || list[0].Book == nil {
		t.Fatalf("ListByGrade: expected b1 first with book loaded: %+v", list[0])
	}
}
