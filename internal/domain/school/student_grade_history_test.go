package school

import (
	"errors"
	"testing"
	"time"
)

var termStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func activeHistory() StudentGradeHistory {
	return StudentGradeHistory{
		ID:             1,
		StudentID:      7,
		GradeID:        2,
		StartDate:      termStart,
		Status:         GradeHistoryActive,
		IsCurrentGrade: true,
	}
}

func TestUpdateCompletionAutoCompletes(t *testing.T) {
	h := activeHistory()
	h.CompletionPercentage = 100
	today := time.Date(2026, 5, 20, 16, 45, 0, 0, time.UTC)

	if err := h.UpdateCompletion(100, today); err != nil {
		t.Fatalf("UpdateCompletion: %v", err)
	}
	if h.Status != GradeHistoryCompleted {
		t.Fatalf("want Completed got %s", h.Status)
	}
	if h.EndDate == nil || !h.EndDate.Equal(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("EndDate must be today, got %v", h.EndDate)
	}
	if msgs := h.Validate(); msgs != nil {
		t.Fatalf("completed history should be valid: %+v", msgs)
	}
}

func TestUpdateCompletionRejectsOutOfRange(t *testing.T) {
	h := activeHistory()
	h.CompletionPercentage = 40
	for _, pct := range []float64{-1, 100.5} {
		if err := h.UpdateCompletion(pct, time.Now()); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%v: expected ErrOutOfRange, got %v", pct, err)
		}
	}
	if h.CompletionPercentage != 40 || h.Status != GradeHistoryActive {
		t.Fatalf("state must be unchanged: %+v", h)
	}
	if err := h.UpdateCompletion(65, time.Now()); err != nil || h.Status != GradeHistoryActive {
		t.Fatalf("partial progress must stay Active: %v %s", err, h.Status)
	}
}

func TestExtendAndReopen(t *testing.T) {
	h := activeHistory()
	if err := h.Reopen(); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("reopen Active: got %v", err)
	}
	if err := h.Extend(" "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank extension: got %v", err)
	}
	if err := h.Extend("missed six weeks"); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if err := h.Extend("again"); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("extend twice: got %v", err)
	}
	if err := h.UpdateCompletion(100, termStart.AddDate(0, 6, 0)); err != nil || h.Status != GradeHistoryCompleted {
		t.Fatalf("extended record should complete: %v %s", err, h.Status)
	}
	if err := h.UpdateCompletion(80, time.Now()); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("lowering a completed record: got %v", err)
	}
	if err := h.Reopen(); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if h.Status != GradeHistoryActive || h.EndDate != nil {
		t.Fatalf("reopen state wrong: %+v", h)
	}

	promoted := activeHistory()
	if err := promoted.UpdateCompletion(100, termStart.AddDate(1, 0, 0)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	promoted.IsCurrentGrade = false
	if err := promoted.Reopen(); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("reopen a superseded grade: got %v", err)
	}
	if promoted.Status != GradeHistoryCompleted || promoted.EndDate == nil {
		t.Fatalf("rejected reopen changed state: %+v", promoted)
	}
}

func TestGradeHistoryValidate(t *testing.T) {
	h := activeHistory()
	end := termStart.AddDate(0, 0, -1)
	h.EndDate = &end
	msgs := h.Validate()
	if !hasViolation(msgs, "an active grade history must not have an end date") || !hasViolation(msgs, "end date must not be before start date") {
		t.Fatalf("unexpected violations: %+v", msgs)
	}

	h = activeHistory()
	h.Status = GradeHistoryCompleted
	h.CompletionPercentage = 90
	msgs = h.Validate()
	if !hasViolation(msgs, "requires an end date") || !hasViolation(msgs, "must be 100% complete") {
		t.Fatalf("unexpected violations: %+v", msgs)
	}
}

func TestProgressViews(t *testing.T) {
	h := activeHistory()
	today := termStart.AddDate(0, 0, 50)
	if h.ProjectedCompletionDate(today) != nil {
		t.Fatalf("no progress, no projection")
	}
	h.CompletionPercentage = 25
	got := h.ProjectedCompletionDate(today)
	want := today.AddDate(0, 0, 150)
	if got == nil || !got.Equal(want) {
		t.Fatalf("projection: want %v got %v", want, got)
	}
	if h.DurationDays(today) != 50 {
		t.Fatalf("DurationDays: %d", h.DurationDays(today))
	}
	stages := map[float64]string{0: StageNotStarted, 10: StageEarly, 50: StageInProgress, 85: StageNearlyComplete, 100: StageComplete}
	for pct, want := range stages {
		h.CompletionPercentage = pct
		if got := h.ProgressStage(); got != want {
			t.Fatalf("%v%%: want %s got %s", pct, want, got)
		}
	}
}

func TestValidateCurrentGrades(t *testing.T) {
	a := activeHistory()
	b := activeHistory()
	b.GradeID = 3
	c := activeHistory()
	c.StudentID = 8
	old := activeHistory()
	old.IsCurrentGrade = false

	msgs := ValidateCurrentGrades([]StudentGradeHistory{a, c, b, old})
	if len(msgs) != 1 || msgs[0] != "student 7 has 2 current grade records; at most one is allowed" {
		t.Fatalf("unexpected: %+v", msgs)
	}
	if ValidateCurrentGrades([]StudentGradeHistory{a, c, old}) != nil {
		t.Fatalf("one current grade per student is valid")
	}
}

func TestSummarizeGradeHistory(t *testing.T) {
	done := activeHistory()
	done.IsCurrentGrade = false
	_ = done.UpdateCompletion(100, termStart.AddDate(0, 0, 100))
	current := activeHistory()
	current.GradeID = 3

	s := SummarizeGradeHistory(7, []StudentGradeHistory{done, current}, time.Now())
	if s.GradesCompleted != 1 || s.AverageDays != 100 || s.CurrentGradeID == nil || *s.CurrentGradeID != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
