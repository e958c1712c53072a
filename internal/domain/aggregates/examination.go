package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var ExaminationAggregateContract = Contract{
	Name:             "School.ExaminationAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns scheduling, capacity-checked registration, status changes and result entry.",
}

// ExaminationAggregate owns examination writes. Registration locks the
// examination row so capacity holds under concurrent registrations.
type ExaminationAggregate interface {
	Aggregate

	Schedule(ctx context.Context, in ScheduleExaminationInput) (ExaminationResult, error)

	// Register adds one student. Duplicate or full is CodeConflict; a
	// non-Scheduled examination is CodePreconditionFailed.
	Register(ctx context.Context, in RegisterStudentInput) (ExaminationResult, error)

	// ChangeStatus starts, completes, cancels or reschedules.
	ChangeStatus(ctx context.Context, in ChangeExaminationStatusInput) (ExaminationResult, error)

	// RecordResults grades registrations of an In Progress or Completed
	// examination. A nil score marks the candidate absent.
	RecordResults(ctx context.Context, in RecordResultsInput) (ExaminationResult, error)
}

const (
	ExamActionStart      = "start"
	ExamActionComplete   = "complete"
	ExamActionCancel     = "cancel"
	ExamActionReschedule = "reschedule"
)

type ScheduleExaminationInput struct {
	Actor       Actor
	Examination *school.Examination
}

type RegisterStudentInput struct {
	Actor         Actor
	ExaminationID uint
	StudentID     uint
}

type ChangeExaminationStatusInput struct {
	Actor         Actor
	ExaminationID uint
	Action        string
	Reason        string
	StartTime     time.Time
	EndTime       time.Time
}

type RecordResultsInput struct {
	Actor         Actor
	ExaminationID uint
	// Scores by student id.
	Scores map[uint]*float64
	// Complete moves an In Progress examination to Completed afterwards.
	Complete bool
}

type ExaminationResult struct {
	Examination  *school.Examination
	Registration *school.StudentExamination
	Trail        Trail
}
