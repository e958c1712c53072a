package aggregates

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

type ExaminationAggregateDeps struct {
	Base BaseDeps

	Examinations  repos.ExaminationRepo
	Registrations repos.StudentExaminationRepo
	Students      repos.StudentRepo
	Grades        repos.GradeRepo
}

type examinationAggregate struct {
	deps ExaminationAggregateDeps
}

func NewExaminationAggregate(deps ExaminationAggregateDeps) domainagg.ExaminationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &examinationAggregate{deps: deps}
}

func (a *examinationAggregate) Contract() domainagg.Contract {
	return domainagg.ExaminationAggregateContract
}

// examRow is the examination without loaded associations, as audited.
func examRow(e *school.Examination) school.Examination {
	row := *e
	row.Grade = nil
	row.StudentExaminations = nil
	return row
}

func (a *examinationAggregate) Schedule(ctx context.Context, in domainagg.ScheduleExaminationInput) (domainagg.ExaminationResult, error) {
	const op = "School.Examination.Schedule"
	var out domainagg.ExaminationResult
	e := in.Examination
	if e == nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing examination", nil)
	}
	if e.ID != 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "examination is already scheduled", nil)
	}
	if e.Status == "" {
		e.Status = school.ExamScheduled
	}
	if e.Status != school.ExamScheduled {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "a new examination must be Scheduled", nil)
	}
	e.StudentExaminations = nil
	if err := checkRules(op, e.Validate()); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		grade, err := a.deps.Grades.GetByID(dbc, e.GradeID)
		if err != nil {
			return err
		}
		if grade == nil {
			return notFound(op, fmt.Sprintf("grade %d", e.GradeID))
		}
		if grade.CompanyID != e.CompanyID {
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("grade %d belongs to another company", grade.ID), nil)
		}
		if !grade.IsActive {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("grade %s is inactive", grade.Code), nil)
		}
		e.Stamp(in.Actor.UserID)
		if err := a.deps.Examinations.Create(dbc, e); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.inserted(dbc, examRow(e), e.ID); err != nil {
			return err
		}
		out = domainagg.ExaminationResult{Examination: e, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *examinationAggregate) Register(ctx context.Context, in domainagg.RegisterStudentInput) (domainagg.ExaminationResult, error) {
	const op = "School.Examination.Register"
	var out domainagg.ExaminationResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		exam, err := a.lock(dbc, op, in.ExaminationID)
		if err != nil {
			return err
		}
		student, err := a.deps.Students.GetByID(dbc, in.StudentID)
		if err != nil {
			return err
		}
		if student == nil {
			return notFound(op, fmt.Sprintf("student %d", in.StudentID))
		}
		if !student.IsActive() {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, fmt.Sprintf("student %d is %s", student.ID, student.Status), nil)
		}
		if student.SiteID != exam.SiteID {
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("student %d is enrolled at another site", student.ID), nil)
		}

		reg, err := exam.Register(student.ID, in.Actor.When())
		if err != nil {
			return err
		}
		reg.Stamp(in.Actor.UserID)
		if err := a.deps.Registrations.Create(dbc, reg); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.inserted(dbc, reg, reg.ID); err != nil {
			return err
		}
		out = domainagg.ExaminationResult{Examination: exam, Registration: reg, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *examinationAggregate) ChangeStatus(ctx context.Context, in domainagg.ChangeExaminationStatusInput) (domainagg.ExaminationResult, error) {
	const op = "School.Examination.ChangeStatus"
	var out domainagg.ExaminationResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		exam, err := a.lock(dbc, op, in.ExaminationID)
		if err != nil {
			return err
		}
		before := examRow(exam)

		switch in.Action {
		case domainagg.ExamActionStart:
			err = exam.Start()
		case domainagg.ExamActionComplete:
			err = exam.Complete()
		case domainagg.ExamActionCancel:
			err = exam.Cancel(in.Reason)
		case domainagg.ExamActionReschedule:
			err = exam.Reschedule(in.StartTime, in.EndTime)
		default:
			err = ValidationError(fmt.Sprintf("unknown examination action %q", in.Action))
		}
		if err != nil {
			return err
		}
		if err := checkRules(op, exam.Validate()); err != nil {
			return err
		}
		exam.Touch(in.Actor.UserID)
		if err := a.deps.Examinations.Save(dbc, exam); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.updated(dbc, before, examRow(exam), exam.ID); err != nil {
			return err
		}
		out = domainagg.ExaminationResult{Examination: exam, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *examinationAggregate) RecordResults(ctx context.Context, in domainagg.RecordResultsInput) (domainagg.ExaminationResult, error) {
	const op = "School.Examination.RecordResults"
	var out domainagg.ExaminationResult
	if len(in.Scores) == 0 && !in.Complete {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no results to record", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		exam, err := a.lock(dbc, op, in.ExaminationID)
		if err != nil {
			return err
		}
		if exam.Status != school.ExamInProgress && exam.Status != school.ExamCompleted {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("results can only be recorded while the examination is In Progress or Completed (status %q)", exam.Status), nil)
		}

		byStudent := map[uint]int{}
		for i := range exam.StudentExaminations {
			byStudent[exam.StudentExaminations[i].StudentID] = i
		}
		studentIDs := make([]uint, 0, len(in.Scores))
		for id := range in.Scores {
			studentIDs = append(studentIDs, id)
		}
		sort.Slice(studentIDs, func(i, j int) bool { return studentIDs[i] < studentIDs[j] })

		tr := newTrail(a.deps.Base.Audit, in.Actor)
		for _, studentID := range studentIDs {
			idx, ok := byStudent[studentID]
			if !ok {
				return notFound(op, fmt.Sprintf("registration for student %d", studentID))
			}
			reg := &exam.StudentExaminations[idx]
			before := *reg
			if score := in.Scores[studentID]; score == nil {
				err = reg.MarkAbsent()
			} else {
				err = reg.RecordScore(*score, exam.PassingScore, exam.MaxScore)
			}
			if err != nil {
				return fmt.Errorf("student %d: %w", studentID, err)
			}
			if err := checkRules(op, reg.Validate()); err != nil {
				return err
			}
			reg.Touch(in.Actor.UserID)
			if err := a.deps.Registrations.Save(dbc, reg); err != nil {
				return err
			}
			if err := tr.updated(dbc, before, reg, reg.ID); err != nil {
				return err
			}
		}

		if in.Complete && exam.Status == school.ExamInProgress {
			before := examRow(exam)
			if err := exam.Complete(); err != nil {
				return err
			}
			exam.Touch(in.Actor.UserID)
			if err := a.deps.Examinations.Save(dbc, exam); err != nil {
				return err
			}
			if err := tr.updated(dbc, before, examRow(exam), exam.ID); err != nil {
				return err
			}
		}
		out = domainagg.ExaminationResult{Examination: exam, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *examinationAggregate) lock(dbc dbctx.Context, op string, id uint) (*school.Examination, error) {
	if id == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing examination_id", nil)
	}
	exam, err := a.deps.Examinations.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if exam == nil {
		return nil, notFound(op, fmt.Sprintf("examination %d", id))
	}
	return exam, nil
}
