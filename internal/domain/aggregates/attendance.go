package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var AttendanceAggregateContract = Contract{
	Name:             "School.AttendanceAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Records lessons and their outcome; checks student and teacher exist and are active.",
}

// AttendanceAggregate owns attendance recording.
//
// Failures are *Error with CodeValidation (rule violations listed in
// Violations), CodeNotFound, CodePreconditionFailed or CodeInternal.
type AttendanceAggregate interface {
	Aggregate

	// Record inserts new attendance rows after validating each one.
	Record(ctx context.Context, in RecordAttendanceInput) (AttendanceResult, error)

	// Mark sets the outcome of one lesson (present, late, absent, excused).
	Mark(ctx context.Context, in MarkAttendanceInput) (AttendanceResult, error)
}

type RecordAttendanceInput struct {
	Actor   Actor
	Lessons []*school.Attendance
}

type MarkAttendanceInput struct {
	Actor        Actor
	AttendanceID uint
	Status       string
	ActualStart  time.Time
	ActualEnd    time.Time
	Reason       string
}

type AttendanceResult struct {
	Lessons []*school.Attendance
	Trail   Trail
}
