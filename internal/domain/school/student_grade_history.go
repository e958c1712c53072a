package school

import (
	"fmt"
	"math"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	GradeHistoryActive    = "Active"
	GradeHistoryCompleted = "Completed"
	GradeHistoryExtended  = "Extended"
)

const (
	StageNotStarted     = "Not Started"
	StageEarly          = "Early"
	StageInProgress     = "In Progress"
	StageNearlyComplete = "Nearly Complete"
	StageComplete       = "Complete"
)

var gradeHistoryTransitions = rules.Transitions{
	GradeHistoryActive:    {GradeHistoryCompleted, GradeHistoryExtended},
	GradeHistoryExtended:  {GradeHistoryCompleted},
	GradeHistoryCompleted: {GradeHistoryActive},
}

// StudentGradeHistory tracks a student's time in one grade.
type StudentGradeHistory struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	StudentID            uint       `gorm:"column:student_id;not null;index" json:"student_id" validate:"required"`
	GradeID              uint       `gorm:"column:grade_id;not null;index" json:"grade_id" validate:"required"`
	StartDate            time.Time  `gorm:"column:start_date;type:date;not null" json:"start_date" validate:"required"`
	EndDate              *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	Status               string     `gorm:"column:status;size:20;not null;index" json:"status"`
	CompletionPercentage float64    `gorm:"column:completion_percentage;not null" json:"completion_percentage" validate:"gte=0,lte=100"`
	IsCurrentGrade       bool       `gorm:"column:is_current_grade;not null" json:"is_current_grade"`
	ExtensionReason      *string    `gorm:"column:extension_reason;size:500" json:"extension_reason,omitempty" validate:"omitempty,max=500"`
	Notes                *string    `gorm:"column:notes;size:1000" json:"notes,omitempty" validate:"omitempty,max=1000"`
	Grade                *Grade     `gorm:"foreignKey:GradeID" json:"grade,omitempty" validate:"-"`
	AuditFields
}

func (StudentGradeHistory) TableName() string { return "student_grade_history" }

func (h StudentGradeHistory) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(h))
	statusRule(&s, h.Status, GradeHistoryActive, GradeHistoryCompleted, GradeHistoryExtended)
	switch h.Status {
	case GradeHistoryCompleted:
		s.Check(h.EndDate == nil, "a completed grade history requires an end date")
		s.Check(h.CompletionPercentage != 100, "a completed grade history must be 100% complete")
	case GradeHistoryActive:
		s.Check(h.EndDate != nil, "an active grade history must not have an end date")
	case GradeHistoryExtended:
		s.Check(rules.Blank(h.ExtensionReason), "an extended grade history requires an extension reason")
	}
	if h.EndDate != nil && !h.StartDate.IsZero() {
		s.Check(rules.DateOnly(*h.EndDate).Before(rules.DateOnly(h.StartDate)), "end date must not be before start date")
	}
	return s.List()
}

// UpdateCompletion sets progress. Reaching 100 on an open record completes
// it with EndDate = today.
func (h *StudentGradeHistory) UpdateCompletion(pct float64, today time.Time) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return rangeErr("completion percentage %.2f must be between 0 and 100", pct)
	}
	if h.Status == GradeHistoryCompleted && pct < 100 {
		return preconditionErr("a completed grade history must be reopened before lowering completion")
	}
	h.CompletionPercentage = pct
	if pct == 100 && h.Status != GradeHistoryCompleted {
		end := rules.DateOnly(today)
		h.Status = GradeHistoryCompleted
		h.EndDate = &end
	}
	return nil
}

func (h *StudentGradeHistory) Extend(reason string) error {
	if !gradeHistoryTransitions.Allows(h.Status, GradeHistoryExtended) {
		return transitionErr("grade history", h.Status, GradeHistoryExtended)
	}
	r := trimmed(reason)
	if r == nil {
		return argumentErr("an extension reason is required")
	}
	h.Status = GradeHistoryExtended
	h.ExtensionReason = r
	return nil
}

// Reopen returns a Completed record to Active and clears EndDate. Only the
// student's current grade can be reopened.
// Completion stays where it was; lowering it is a separate UpdateCompletion.
func (h *StudentGradeHistory) Reopen() error {
	if !gradeHistoryTransitions.Allows(h.Status, GradeHistoryActive) {
		return transitionErr("grade history", h.Status, GradeHistoryActive)
	}
	if !h.IsCurrentGrade {
		return preconditionErr("grade history %d is no longer the current grade", h.ID)
	}
	h.Status = GradeHistoryActive
	h.EndDate = nil
	return nil
}

func (h StudentGradeHistory) DurationDays(today time.Time) int {
	end := today
	if h.EndDate != nil {
		end = *h.EndDate
	}
	if d := rules.DaysBetween(h.StartDate, end); d > 0 {
		return d
	}
	return 0
}

func (h StudentGradeHistory) ProgressStage() string {
	switch p := h.CompletionPercentage; {
	case p <= 0:
		return StageNotStarted
	case p < 50:
		return StageEarly
	case p < 80:
		return StageInProgress
	case p < 100:
		return StageNearlyComplete
	default:
		return StageComplete
	}
}

// ProjectedCompletionDate extrapolates the average daily progress so far.
// Nil when there is no progress to extrapolate from.
func (h StudentGradeHistory) ProjectedCompletionDate(today time.Time) *time.Time {
	if h.Status == GradeHistoryCompleted {
		return h.EndDate
	}
	elapsed := rules.DaysBetween(h.StartDate, today)
	if h.CompletionPercentage <= 0 || elapsed <= 0 {
		return nil
	}
	perDay := h.CompletionPercentage / float64(elapsed)
	remaining := int(math.Ceil((100 - h.CompletionPercentage) / perDay))
	projected := rules.DateOnly(today).AddDate(0, 0, remaining)
	return &projected
}

// ValidateCurrentGrades reports students holding more than one current
// grade record, in order of first appearance.
func ValidateCurrentGrades(items []StudentGradeHistory) []string {
	counts := map[uint]int{}
	var order []uint
	for _, h := range items {
		if !h.IsCurrentGrade {
			continue
		}
		if counts[h.StudentID] == 0 {
			order = append(order, h.StudentID)
		}
		counts[h.StudentID]++
	}
	var s rules.Set
	for _, id := range order {
		s.Checkf(counts[id] > 1, "student %d has %d current grade records; at most one is allowed", id, counts[id])
	}
	return s.List()
}

// PromotionSummary is a read model for a student's grade timeline.
type PromotionSummary struct {
	StudentID       uint    `json:"student_id"`
	GradesCompleted int     `json:"grades_completed"`
	CurrentGradeID  *uint   `json:"current_grade_id,omitempty"`
	AverageDays     float64 `json:"average_days"`
}

func SummarizeGradeHistory(studentID uint, items []StudentGradeHistory, today time.Time) PromotionSummary {
	out := PromotionSummary{StudentID: studentID}
	var days int
	for _, h := range items {
		if h.StudentID != studentID {
			continue
		}
		if h.IsCurrentGrade && out.CurrentGradeID == nil {
			id := h.GradeID
			out.CurrentGradeID = &id
		}
		if h.Status == GradeHistoryCompleted {
			out.GradesCompleted++
			days += h.DurationDays(today)
		}
	}
	if out.GradesCompleted > 0 {
		out.AverageDays = rules.Round2(float64(days) / float64(out.GradesCompleted))
	}
	return out
}

func (h StudentGradeHistory) String() string {
	return fmt.Sprintf("grade %d (%s, %.0f%%)", h.GradeID, h.Status, h.CompletionPercentage)
}
