package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

type GradeHistoryAggregateDeps struct {
	Base BaseDeps

	History  repos.StudentGradeHistoryRepo
	Students repos.StudentRepo
	Grades   repos.GradeRepo
}

type gradeHistoryAggregate struct {
	deps GradeHistoryAggregateDeps
}

func NewGradeHistoryAggregate(deps GradeHistoryAggregateDeps) domainagg.GradeHistoryAggregate {
	deps.Base = deps.Base.withDefaults()
	return &gradeHistoryAggregate{deps: deps}
}

func (a *gradeHistoryAggregate) Contract() domainagg.Contract {
	return domainagg.GradeHistoryAggregateContract
}

func historyRow(h *school.StudentGradeHistory) school.StudentGradeHistory {
	row := *h
	row.Grade = nil
	return row
}

func startDay(in time.Time, actor domainagg.Actor) time.Time {
	if in.IsZero() {
		return rules.DateOnly(actor.When())
	}
	return rules.DateOnly(in)
}

func (a *gradeHistoryAggregate) Enroll(ctx context.Context, in domainagg.EnrollGradeInput) (domainagg.GradeHistoryResult, error) {
	const op = "School.GradeHistory.Enroll"
	var out domainagg.GradeHistoryResult
	if in.StudentID == 0 || in.GradeID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "student_id and grade_id are required", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.requireStudent(dbc, op, in.StudentID); err != nil {
			return err
		}
		grade, err := a.requireGrade(dbc, op, in.GradeID)
		if err != nil {
			return err
		}
		current, err := a.deps.History.GetCurrent(dbc, in.StudentID)
		if err != nil {
			return err
		}
		if current != nil {
			return ConflictError(fmt.Sprintf("student %d is already in %s", in.StudentID, current))
		}
		h, err := a.open(dbc, op, in.Actor, in.StudentID, grade, startDay(in.StartDate, in.Actor))
		if err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.inserted(dbc, historyRow(h), h.ID); err != nil {
			return err
		}
		out = domainagg.GradeHistoryResult{Current: h, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *gradeHistoryAggregate) UpdateProgress(ctx context.Context, in domainagg.UpdateGradeProgressInput) (domainagg.GradeHistoryResult, error) {
	const op = "School.GradeHistory.UpdateProgress"
	var out domainagg.GradeHistoryResult
	if in.HistoryID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing history_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		h, err := a.deps.History.LockByID(dbc, in.HistoryID)
		if err != nil {
			return err
		}
		if h == nil {
			return notFound(op, fmt.Sprintf("grade history %d", in.HistoryID))
		}
		before := historyRow(h)

		switch in.Action {
		case domainagg.ProgressActionComplete:
			err = h.UpdateCompletion(in.Completion, in.Actor.When())
		case domainagg.ProgressActionExtend:
			err = h.Extend(in.Reason)
		case domainagg.ProgressActionReopen:
			err = h.Reopen()
		default:
			err = ValidationError(fmt.Sprintf("unknown progress action %q", in.Action))
		}
		if err != nil {
			return err
		}
		if err := checkRules(op, h.Validate()); err != nil {
			return err
		}
		h.Touch(in.Actor.UserID)
		if err := a.deps.History.Save(dbc, h); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.updated(dbc, before, historyRow(h), h.ID); err != nil {
			return err
		}
		out = domainagg.GradeHistoryResult{Current: h, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *gradeHistoryAggregate) Promote(ctx context.Context, in domainagg.PromoteStudentInput) (domainagg.GradeHistoryResult, error) {
	const op = "School.GradeHistory.Promote"
	var out domainagg.GradeHistoryResult
	if in.StudentID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing student_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.requireStudent(dbc, op, in.StudentID); err != nil {
			return err
		}
		current, err := a.deps.History.GetCurrent(dbc, in.StudentID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("student %d has no current grade", in.StudentID), nil)
		}
		closed, err := a.deps.History.LockByID(dbc, current.ID)
		if err != nil {
			return err
		}
		if closed == nil || !closed.IsCurrentGrade {
			return ConflictError(fmt.Sprintf("current grade of student %d changed concurrently", in.StudentID))
		}
		if closed.Status != school.GradeHistoryCompleted {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("current grade must be Completed before promotion (status %q)", closed.Status), nil)
		}

		next, err := a.nextGrade(dbc, op, closed.GradeID, in.NextGradeID)
		if err != nil {
			return err
		}
		start := startDay(in.StartDate, in.Actor)
		if closed.EndDate != nil && start.Before(rules.DateOnly(*closed.EndDate)) {
			return domainagg.NewError(domainagg.CodeValidation, op, "the next grade cannot start before the current one ended", nil)
		}

		before := historyRow(closed)
		closed.IsCurrentGrade = false
		closed.Touch(in.Actor.UserID)
		if err := a.deps.History.Save(dbc, closed); err != nil {
			return err
		}
		opened, err := a.open(dbc, op, in.Actor, in.StudentID, next, start)
		if err != nil {
			return err
		}

		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.updated(dbc, before, historyRow(closed), closed.ID); err != nil {
			return err
		}
		if err := tr.inserted(dbc, historyRow(opened), opened.ID); err != nil {
			return err
		}
		out = domainagg.GradeHistoryResult{Closed: closed, Current: opened, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *gradeHistoryAggregate) nextGrade(dbc dbctx.Context, op string, fromID, explicitID uint) (*school.Grade, error) {
	if explicitID != 0 {
		if explicitID == fromID {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "the next grade must differ from the current one", nil)
		}
		return a.requireGrade(dbc, op, explicitID)
	}
	from, err := a.deps.Grades.GetByID(dbc, fromID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, notFound(op, fmt.Sprintf("grade %d", fromID))
	}
	next, err := a.deps.Grades.NextLevel(dbc, from)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("%s has no next level", from.Name), nil)
	}
	return next, nil
}

func (a *gradeHistoryAggregate) open(dbc dbctx.Context, op string, actor domainagg.Actor, studentID uint, grade *school.Grade, start time.Time) (*school.StudentGradeHistory, error) {
	h := &school.StudentGradeHistory{
		StudentID:      studentID,
		GradeID:        grade.ID,
		StartDate:      start,
		Status:         school.GradeHistoryActive,
		IsCurrentGrade: true,
	}
	h.Stamp(actor.UserID)
	if err := checkRules(op, h.Validate()); err != nil {
		return nil, err
	}
	if err := a.deps.History.Create(dbc, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (a *gradeHistoryAggregate) requireStudent(dbc dbctx.Context, op string, id uint) error {
	st, err := a.deps.Students.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if st == nil {
		return notFound(op, fmt.Sprintf("student %d", id))
	}
	if !st.IsActive() {
		return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("student %d is %s", st.ID, st.Status), nil)
	}
	return nil
}

func (a *gradeHistoryAggregate) requireGrade(dbc dbctx.Context, op string, id uint) (*school.Grade, error) {
	g, err := a.deps.Grades.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, notFound(op, fmt.Sprintf("grade %d", id))
	}
	if !g.IsActive {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("grade %s is inactive", g.Code), nil)
	}
	return g, nil
}
