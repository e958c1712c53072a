package aggregates_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

func newExaminationAgg(w *world) domainagg.ExaminationAggregate {
	return aggregates.NewExaminationAggregate(aggregates.ExaminationAggregateDeps{
		Base:          w.base(),
		Examinations:  examRepo{w},
		Registrations: registrationRepo{w},
		Students:      studentRepo{w},
		Grades:        gradeRepo{w},
	})
}

func newExam(gradeID uint, capacity int) *school.Examination {
	start := day.AddDate(0, 0, 14).Add(9 * time.Hour)
	return &school.Examination{
		CompanyID:    1,
		SiteID:       1,
		GradeID:      gradeID,
		Title:        "Piano Grade 1 Practical",
		ExamType:     school.ExamTypePractical,
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		MaxCapacity:  capacity,
		MaxScore:     100,
		PassingScore: 60,
	}
}

func scheduleExam(t *testing.T, w *world, agg domainagg.ExaminationAggregate, capacity int) *school.Examination {
	t.Helper()
	g := w.seedGrade(1, true)
	res, err := agg.Schedule(context.Background(), domainagg.ScheduleExaminationInput{Actor: actorAt(day), Examination: newExam(g.ID, capacity)})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return res.Examination
}

func TestExaminationSchedule(t *testing.T) {
	w := newWorld()
	agg := newExaminationAgg(w)
	exam := scheduleExam(t, w, agg, 2)
	if exam.ID == 0 || exam.Status != school.ExamScheduled {
		t.Fatalf("exam: %+v", exam)
	}

	inactive := w.seedGrade(2, false)
	_, err := agg.Schedule(context.Background(), domainagg.ScheduleExaminationInput{Actor: actorAt(day), Examination: newExam(inactive.ID, 2)})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("inactive grade: want precondition_failed, got %v", err)
	}

	bad := newExam(1, 2)
	bad.EndTime = bad.StartTime
	_, err = agg.Schedule(context.Background(), domainagg.ScheduleExaminationInput{Actor: actorAt(day), Examination: bad})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("bad times: want validation, got %v", err)
	}
}

func TestExaminationRegister(t *testing.T) {
	w := newWorld()
	agg := newExaminationAgg(w)
	exam := scheduleExam(t, w, agg, 2)
	ctx := context.Background()

	a := w.seedStudent(1, school.StudentStatusActive)
	b := w.seedStudent(1, school.StudentStatusActive)
	c := w.seedStudent(1, school.StudentStatusActive)
	elsewhere := w.seedStudent(2, school.StudentStatusActive)
	left := w.seedStudent(1, school.StudentStatusGraduated)

	res, err := agg.Register(ctx, domainagg.RegisterStudentInput{Actor: actorAt(day), ExaminationID: exam.ID, StudentID: a.ID})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Registration == nil || res.Registration.ID == 0 || res.Registration.Result != school.ResultPending {
		t.Fatalf("registration: %+v", res.Registration)
	}

	cases := []struct {
		name      string
		studentID uint
		want      domainagg.ErrorCode
	}{
		{"duplicate", a.ID, domainagg.CodeConflict},
		{"graduated", left.ID, domainagg.CodePreconditionFailed},
		{"other site", elsewhere.ID, domainagg.CodeValidation},
		{"unknown", 999, domainagg.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agg.Register(ctx, domainagg.RegisterStudentInput{Actor: actorAt(day), ExaminationID: exam.ID, StudentID: tc.studentID})
			if !domainagg.IsCode(err, tc.want) {
				t.Fatalf("want %s, got %v", tc.want, err)
			}
		})
	}

	if _, err := agg.Register(ctx, domainagg.RegisterStudentInput{Actor: actorAt(day), ExaminationID: exam.ID, StudentID: b.ID}); err != nil {
		t.Fatalf("second registration: %v", err)
	}
	_, err = agg.Register(ctx, domainagg.RegisterStudentInput{Actor: actorAt(day), ExaminationID: exam.ID, StudentID: c.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("full examination: want conflict, got %v", err)
	}
	if n := len(w.regs.filter(nil)); n != 2 {
		t.Fatalf("stored registrations: %d", n)
	}
}

func TestExaminationStatusAndResults(t *testing.T) {
	w := newWorld()
	agg := newExaminationAgg(w)
	exam := scheduleExam(t, w, agg, 5)
	ctx := context.Background()
	a := w.seedStudent(1, school.StudentStatusActive)
	b := w.seedStudent(1, school.StudentStatusActive)
	for _, id := range []uint{a.ID, b.ID} {
		if _, err := agg.Register(ctx, domainagg.RegisterStudentInput{Actor: actorAt(day), ExaminationID: exam.ID, StudentID: id}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	score := 72.5
	_, err := agg.RecordResults(ctx, domainagg.RecordResultsInput{Actor: actorAt(day), ExaminationID: exam.ID, Scores: map[uint]*float64{a.ID: &score}})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("results before start: want precondition_failed, got %v", err)
	}

	_, err = agg.ChangeStatus(ctx, domainagg.ChangeExaminationStatusInput{Actor: actorAt(day), ExaminationID: exam.ID, Action: domainagg.ExamActionComplete})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("complete from Scheduled: want conflict, got %v", err)
	}
	if _, err := agg.ChangeStatus(ctx, domainagg.ChangeExaminationStatusInput{Actor: actorAt(day), ExaminationID: exam.ID, Action: domainagg.ExamActionStart}); err != nil {
		t.Fatalf("start: %v", err)
	}

	tooHigh := 101.0
	_, err = agg.RecordResults(ctx, domainagg.RecordResultsInput{Actor: actorAt(day), ExaminationID: exam.ID, Scores: map[uint]*float64{a.ID: &tooHigh}})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("score above max: want validation, got %v", err)
	}

	res, err := agg.RecordResults(ctx, domainagg.RecordResultsInput{
		Actor:         actorAt(day),
		ExaminationID: exam.ID,
		Scores:        map[uint]*float64{a.ID: &score, b.ID: nil},
		Complete:      true,
	})
	if err != nil {
		t.Fatalf("RecordResults: %v", err)
	}
	if res.Examination.Status != school.ExamCompleted {
		t.Fatalf("status: %s", res.Examination.Status)
	}
	// absent candidates are not graded
	if got := res.Examination.PassRate(); got != 100 {
		t.Fatalf("pass rate: %v", got)
	}
	// two registrations then the examination itself, in one change set
	if len(res.Trail) != 3 || res.Trail[2].EntityName != "examination" {
		t.Fatalf("trail: %d entries", len(res.Trail))
	}
	for _, se := range w.regs.filter(nil) {
		switch se.StudentID {
		case a.ID:
			if se.Result != school.ResultPass {
				t.Fatalf("student a: %s", se.Result)
			}
		case b.ID:
			if se.Result != school.ResultAbsent {
				t.Fatalf("student b: %s", se.Result)
			}
		}
	}
}

func TestExaminationCancelAndReschedule(t *testing.T) {
	w := newWorld()
	agg := newExaminationAgg(w)
	exam := scheduleExam(t, w, agg, 5)
	ctx := context.Background()

	_, err := agg.ChangeStatus(ctx, domainagg.ChangeExaminationStatusInput{Actor: actorAt(day), ExaminationID: exam.ID, Action: domainagg.ExamActionCancel})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("cancel without reason: want validation, got %v", err)
	}
	res, err := agg.ChangeStatus(ctx, domainagg.ChangeExaminationStatusInput{Actor: actorAt(day), ExaminationID: exam.ID, Action: domainagg.ExamActionCancel, Reason: "hall flooded"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Examination.CancellationReason == nil || *res.Examination.CancellationReason != "hall flooded" {
		t.Fatalf("reason not kept")
	}

	start := exam.StartTime.AddDate(0, 0, 7)
	res, err = agg.ChangeStatus(ctx, domainagg.ChangeExaminationStatusInput{
		Actor:         actorAt(day),
		ExaminationID: exam.ID,
		Action:        domainagg.ExamActionReschedule,
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	stored := w.exams.get(exam.ID)
	if stored.Status != school.ExamScheduled || !stored.StartTime.Equal(start) || stored.CancellationReason != nil {
		t.Fatalf("stored exam: %+v", stored)
	}
	if len(res.Trail) != 1 || res.Trail[0].NewValueMap()["student_examinations"] != nil {
		t.Fatalf("audit snapshot should not carry registrations")
	}
}

func TestExaminationScheduleIgnoresDecodedAuditFields(t *testing.T) {
	w := newWorld()
	agg := newExaminationAgg(w)
	g := w.seedGrade(1, true)

	e := newExam(g.ID, 2)
	body := `{"created_by":999,"updated_by":998,"created_at":"2001-01-01T00:00:00Z","updated_at":"2001-01-01T00:00:00Z"}`
	if err := json.Unmarshal([]byte(body), &e.AuditFields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.CreatedBy == nil || *e.CreatedBy != 999 {
		t.Fatalf("decoded created_by: %v", e.CreatedBy)
	}

	res, err := agg.Schedule(context.Background(), domainagg.ScheduleExaminationInput{Actor: actorAt(day), Examination: e})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	got := res.Examination
	if got.CreatedBy == nil || *got.CreatedBy != adminID {
		t.Fatalf("created_by: want %d, got %v", adminID, got.CreatedBy)
	}
	if got.UpdatedBy == nil || *got.UpdatedBy != adminID {
		t.Fatalf("updated_by: want %d, got %v", adminID, got.UpdatedBy)
	}
	if got.CreatedAt.Year() == 2001 || got.UpdatedAt.Year() == 2001 {
		t.Fatalf("decoded timestamps survived: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}
