package aggregates

import (
	"context"
	"fmt"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

type AttendanceAggregateDeps struct {
	Base BaseDeps

	Attendance repos.AttendanceRepo
	Students   repos.StudentRepo
	Teachers   repos.TeacherRepo
}

type attendanceAggregate struct {
	deps AttendanceAggregateDeps
}

func NewAttendanceAggregate(deps AttendanceAggregateDeps) domainagg.AttendanceAggregate {
	deps.Base = deps.Base.withDefaults()
	return &attendanceAggregate{deps: deps}
}

func (a *attendanceAggregate) Contract() domainagg.Contract {
	return domainagg.AttendanceAggregateContract
}

func (a *attendanceAggregate) Record(ctx context.Context, in domainagg.RecordAttendanceInput) (domainagg.AttendanceResult, error) {
	const op = "School.Attendance.Record"
	var out domainagg.AttendanceResult
	if len(in.Lessons) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no lessons to record", nil)
	}
	var s rules.Set
	for i, l := range in.Lessons {
		if l == nil {
			s.Add(fmt.Sprintf("lesson %d is empty", i+1))
			continue
		}
		s.Merge(fmt.Sprintf("lesson %d", i+1), l.Validate())
	}
	if err := checkRules(op, s.List()); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.requireParticipants(dbc, op, in.Lessons); err != nil {
			return err
		}
		for _, l := range in.Lessons {
			l.Stamp(in.Actor.UserID)
		}
		created, err := a.deps.Attendance.Create(dbc, in.Lessons)
		if err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		for _, l := range created {
			if err := tr.inserted(dbc, l, l.ID); err != nil {
				return err
			}
		}
		out = domainagg.AttendanceResult{Lessons: created, Trail: tr.entries}
		return nil
	})
	return out, err
}

// requireParticipants checks every student is active and every teacher is
// available to teach.
func (a *attendanceAggregate) requireParticipants(dbc dbctx.Context, op string, lessons []*school.Attendance) error {
	studentIDs, teacherIDs := []uint{}, []uint{}
	seenS, seenT := map[uint]bool{}, map[uint]bool{}
	for _, l := range lessons {
		if !seenS[l.StudentID] {
			seenS[l.StudentID] = true
			studentIDs = append(studentIDs, l.StudentID)
		}
		if !seenT[l.TeacherID] {
			seenT[l.TeacherID] = true
			teacherIDs = append(teacherIDs, l.TeacherID)
		}
	}
	students, err := a.deps.Students.GetByIDs(dbc, studentIDs)
	if err != nil {
		return err
	}
	if len(students) != len(studentIDs) {
		return notFound(op, "student")
	}
	for _, st := range students {
		if !st.IsActive() {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("student %d is %s", st.ID, st.Status), nil)
		}
	}
	teachers, err := a.deps.Teachers.GetByIDs(dbc, teacherIDs)
	if err != nil {
		return err
	}
	if len(teachers) != len(teacherIDs) {
		return notFound(op, "teacher")
	}
	for _, t := range teachers {
		if !t.IsAvailable() {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("teacher %s is %s", t.DisplayName(), t.Status), nil)
		}
	}
	return nil
}

func (a *attendanceAggregate) Mark(ctx context.Context, in domainagg.MarkAttendanceInput) (domainagg.AttendanceResult, error) {
	const op = "School.Attendance.Mark"
	var out domainagg.AttendanceResult
	if in.AttendanceID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing attendance_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		lesson, err := a.deps.Attendance.LockByID(dbc, in.AttendanceID)
		if err != nil {
			return err
		}
		if lesson == nil {
			return notFound(op, fmt.Sprintf("attendance %d", in.AttendanceID))
		}
		before := *lesson

		switch in.Status {
		case school.AttendancePresent:
			err = lesson.MarkPresent(in.ActualStart, in.ActualEnd)
		case school.AttendanceLate:
			err = lesson.MarkLate(in.ActualStart, in.ActualEnd)
		case school.AttendanceAbsent:
			err = lesson.MarkAbsent()
		case school.AttendanceExcused:
			err = lesson.MarkExcused(in.Reason)
		default:
			err = ValidationError(fmt.Sprintf("status must be one of Present, Absent, Late, Excused (got %q)", in.Status))
		}
		if err != nil {
			return err
		}
		if err := checkRules(op, lesson.Validate()); err != nil {
			return err
		}
		lesson.Touch(in.Actor.UserID)
		if err := a.deps.Attendance.Save(dbc, lesson); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.updated(dbc, before, lesson, lesson.ID); err != nil {
			return err
		}
		out = domainagg.AttendanceResult{Lessons: []*school.Attendance{lesson}, Trail: tr.entries}
		return nil
	})
	return out, err
}
