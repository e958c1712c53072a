package school

import (
	"fmt"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	ExamScheduled  = "Scheduled"
	ExamInProgress = "In Progress"
	ExamCompleted  = "Completed"
	ExamCancelled  = "Cancelled"
)

const (
	ExamTypePractical = "Practical"
	ExamTypeTheory    = "Theory"
	ExamTypeRecital   = "Recital"
)

var examTransitions = rules.Transitions{
	ExamScheduled:  {ExamInProgress, ExamCancelled},
	ExamInProgress: {ExamCompleted, ExamCancelled},
	ExamCancelled:  {ExamScheduled},
}

// Examination is a sitting students register for. StudentExaminations is
// filled by the loading layer; nil means "not loaded", not "nobody".
type Examination struct {
	ID                  uint                 `gorm:"primaryKey" json:"id"`
	CompanyID           uint                 `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	SiteID              uint                 `gorm:"column:site_id;not null;index" json:"site_id" validate:"required"`
	GradeID             uint                 `gorm:"column:grade_id;not null;index" json:"grade_id" validate:"required"`
	ExaminerID          *uint                `gorm:"column:examiner_id;index" json:"examiner_id,omitempty"`
	Title               string               `gorm:"column:title;size:200;not null" json:"title" validate:"required,max=200"`
	ExamType            string               `gorm:"column:exam_type;size:20;not null" json:"exam_type"`
	StartTime           time.Time            `gorm:"column:start_time;not null;index" json:"start_time" validate:"required"`
	EndTime             time.Time            `gorm:"column:end_time;not null" json:"end_time" validate:"required"`
	Location            string               `gorm:"column:location;size:150" json:"location,omitempty" validate:"max=150"`
	MaxCapacity         int                  `gorm:"column:max_capacity;not null" json:"max_capacity" validate:"gte=1,lte=500"`
	MaxScore            float64              `gorm:"column:max_score;not null" json:"max_score" validate:"gt=0"`
	PassingScore        float64              `gorm:"column:passing_score;not null" json:"passing_score" validate:"gte=0"`
	Status              string               `gorm:"column:status;size:20;not null;index" json:"status"`
	CancellationReason  *string              `gorm:"column:cancellation_reason;size:500" json:"cancellation_reason,omitempty" validate:"omitempty,max=500"`
	Grade               *Grade               `gorm:"foreignKey:GradeID" json:"grade,omitempty" validate:"-"`
	StudentExaminations []StudentExamination `gorm:"foreignKey:ExaminationID" json:"student_examinations,omitempty" validate:"-"`
	AuditFields
}

func (Examination) TableName() string { return "examination" }

func (e Examination) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(e))
	statusRule(&s, e.Status, ExamScheduled, ExamInProgress, ExamCompleted, ExamCancelled)
	s.Check(!rules.OneOf(e.ExamType, ExamTypePractical, ExamTypeTheory, ExamTypeRecital),
		"exam type must be one of Practical, Theory, Recital")
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() {
		s.Check(!e.EndTime.After(e.StartTime), "end time must be after start time")
	}
	s.Check(e.PassingScore > e.MaxScore, "passing score must not exceed maximum score")
	s.Checkf(e.MaxCapacity > 0 && e.EnrolledCount() > e.MaxCapacity,
		"enrolled students (%d) exceed maximum capacity (%d)", e.EnrolledCount(), e.MaxCapacity)
	s.Check(e.Status == ExamCancelled && rules.Blank(e.CancellationReason), "a cancelled examination requires a cancellation reason")

	seen := map[uint]bool{}
	for i, se := range e.StudentExaminations {
		if seen[se.StudentID] {
			s.Add(fmt.Sprintf("student %d is registered more than once", se.StudentID))
		}
		seen[se.StudentID] = true
		line := fmt.Sprintf("registration %d", i+1)
		s.Merge(line, se.Validate())
		if se.Score != nil && *se.Score > e.MaxScore {
			s.Add(fmt.Sprintf("%s: score %.2f exceeds maximum score %.2f", line, *se.Score, e.MaxScore))
		}
	}
	return s.List()
}

func (e Examination) EnrolledCount() int { return len(e.StudentExaminations) }

func (e Examination) AvailableSlots() int {
	if free := e.MaxCapacity - e.EnrolledCount(); free > 0 {
		return free
	}
	return 0
}

func (e Examination) IsFull() bool { return e.EnrolledCount() >= e.MaxCapacity }

func (e Examination) IsRegistered(studentID uint) bool {
	for _, se := range e.StudentExaminations {
		if se.StudentID == studentID {
			return true
		}
	}
	return false
}

// CanStudentRegister: open (Scheduled), not full, and not already registered.
func (e Examination) CanStudentRegister(studentID uint) bool {
	return studentID != 0 && e.Status == ExamScheduled && !e.IsFull() && !e.IsRegistered(studentID)
}

func (e Examination) DurationMinutes() int {
	if !e.EndTime.After(e.StartTime) {
		return 0
	}
	return int(e.EndTime.Sub(e.StartTime) / time.Minute)
}

func (e Examination) FormattedDuration() string { return rules.FormatMinutes(e.DurationMinutes()) }

// PassRate is the share of graded (Pass or Fail) registrations that passed.
func (e Examination) PassRate() float64 {
	var passed, graded int
	for _, se := range e.StudentExaminations {
		switch se.Result {
		case ResultPass:
			passed++
			graded++
		case ResultFail:
			graded++
		}
	}
	return rules.Round2(rules.Percent(float64(passed), float64(graded)))
}

func (e Examination) AverageScore() float64 {
	var sum float64
	n := 0
	for _, se := range e.StudentExaminations {
		if se.Score != nil {
			sum += *se.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return rules.Round2(sum / float64(n))
}

func (e Examination) CanTransitionTo(status string) bool {
	return examTransitions.Allows(e.Status, status)
}

func (e *Examination) transition(to string) error {
	if !e.CanTransitionTo(to) {
		return transitionErr("examination", e.Status, to)
	}
	e.Status = to
	return nil
}

func (e *Examination) Start() error { return e.transition(ExamInProgress) }

func (e *Examination) Complete() error { return e.transition(ExamCompleted) }

func (e *Examination) Cancel(reason string) error {
	r := trimmed(reason)
	if r == nil {
		return argumentErr("a cancellation reason is required")
	}
	if err := e.transition(ExamCancelled); err != nil {
		return err
	}
	e.CancellationReason = r
	return nil
}

// Reschedule brings a Cancelled examination back to Scheduled at new times.
func (e *Examination) Reschedule(start, end time.Time) error {
	if !end.After(start) {
		return rangeErr("end time must be after start time")
	}
	if err := e.transition(ExamScheduled); err != nil {
		return err
	}
	e.StartTime, e.EndTime = start, end
	e.CancellationReason = nil
	return nil
}

// Register adds a Pending registration for studentID and returns it.
func (e *Examination) Register(studentID uint, at time.Time) (*StudentExamination, error) {
	switch {
	case studentID == 0:
		return nil, argumentErr("student id is required")
	case e.Status != ExamScheduled:
		return nil, preconditionErr("registration is closed while the examination is %s", e.Status)
	case e.IsRegistered(studentID):
		return nil, conflictErr("student %d is already registered", studentID)
	case e.IsFull():
		return nil, conflictErr("examination is full (%d of %d)", e.EnrolledCount(), e.MaxCapacity)
	}
	e.StudentExaminations = append(e.StudentExaminations, StudentExamination{
		ExaminationID: e.ID,
		StudentID:     studentID,
		RegisteredAt:  at,
		Result:        ResultPending,
	})
	return &e.StudentExaminations[len(e.StudentExaminations)-1], nil
}
