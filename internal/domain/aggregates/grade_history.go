package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var GradeHistoryAggregateContract = Contract{
	Name:             "School.GradeHistoryAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Keeps at most one current grade per student across enrolment, progress and promotion.",
}

type GradeHistoryAggregate interface {
	Aggregate

	// Enroll opens the student's first current grade. A student who already
	// has a current grade is CodeConflict.
	Enroll(ctx context.Context, in EnrollGradeInput) (GradeHistoryResult, error)

	// UpdateProgress applies a completion percentage, an extension or a
	// reopen to one record. Only the current grade can be reopened.
	UpdateProgress(ctx context.Context, in UpdateGradeProgressInput) (GradeHistoryResult, error)

	// Promote closes the completed current grade and opens the next one.
	// When NextGradeID is zero the next level of the same instrument is used.
	Promote(ctx context.Context, in PromoteStudentInput) (GradeHistoryResult, error)
}

type EnrollGradeInput struct {
	Actor     Actor
	StudentID uint
	GradeID   uint
	StartDate time.Time
}

const (
	ProgressActionComplete = "completion"
	ProgressActionExtend   = "extend"
	ProgressActionReopen   = "reopen"
)

type UpdateGradeProgressInput struct {
	Actor      Actor
	HistoryID  uint
	Action     string
	Completion float64
	Reason     string
}

type PromoteStudentInput struct {
	Actor       Actor
	StudentID   uint
	NextGradeID uint
	StartDate   time.Time
}

type GradeHistoryResult struct {
	Closed  *school.StudentGradeHistory
	Current *school.StudentGradeHistory
	Trail   Trail
}
