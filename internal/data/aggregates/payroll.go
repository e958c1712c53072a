package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

type PayrollAggregateDeps struct {
	Base BaseDeps

	Payrolls   repos.TeacherPayrollRepo
	Teachers   repos.TeacherRepo
	Attendance repos.AttendanceRepo

	// DefaultTaxRate in percent, used when a request names none.
	DefaultTaxRate decimal.Decimal
}

type payrollAggregate struct {
	deps PayrollAggregateDeps
}

func NewPayrollAggregate(deps PayrollAggregateDeps) domainagg.PayrollAggregate {
	deps.Base = deps.Base.withDefaults()
	return &payrollAggregate{deps: deps}
}

func (a *payrollAggregate) Contract() domainagg.Contract {
	return domainagg.PayrollAggregateContract
}

func (a *payrollAggregate) Generate(ctx context.Context, in domainagg.GeneratePayrollInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.Generate"
	var out domainagg.PayrollResult
	if in.TeacherID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing teacher_id", nil)
	}
	taxRate := a.deps.DefaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		teacher, err := a.deps.Teachers.GetByID(dbc, in.TeacherID)
		if err != nil {
			return err
		}
		if teacher == nil {
			return notFound(op, fmt.Sprintf("teacher %d", in.TeacherID))
		}
		if teacher.Status == school.TeacherStatusTerminated && teacher.TerminationDate != nil && teacher.TerminationDate.Before(in.PeriodStart) {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("teacher %s left before the pay period", teacher.DisplayName()), nil)
		}

		p := school.NewTeacherPayroll(teacher.ID, teacher.CompanyID, in.PeriodStart, in.PeriodEnd, teacher.HourlyRate, taxRate, in.Actor.UserID)
		if note := strings.TrimSpace(in.Notes); note != "" {
			p.Notes = &note
		}
		if err := checkRules(op, p.Validate()); err != nil {
			return err
		}

		existing, err := a.deps.Payrolls.FindOverlapping(dbc, teacher.ID, p.PeriodStart, p.PeriodEnd)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ConflictError(fmt.Sprintf("teacher %d already has payroll %d covering %s", teacher.ID, existing[0].ID, existing[0].PeriodLabel()))
		}

		if err := a.applyAttendance(dbc, p); err != nil {
			return err
		}
		if err := checkRules(op, p.Validate()); err != nil {
			return err
		}
		if err := a.deps.Payrolls.Create(dbc, p); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.inserted(dbc, p, p.ID); err != nil {
			return err
		}
		out = domainagg.PayrollResult{Payroll: p, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *payrollAggregate) applyAttendance(dbc dbctx.Context, p *school.TeacherPayroll) error {
	rows, err := a.deps.Attendance.ListByTeacher(dbc, p.TeacherID, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		return err
	}
	records := make([]school.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, *r)
	}
	return p.CalculateTeachingHours(records)
}

func (a *payrollAggregate) Adjust(ctx context.Context, in domainagg.AdjustPayrollInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.Adjust"
	return a.mutate(ctx, op, in.Actor, in.PayrollID, func(_ dbctx.Context, p *school.TeacherPayroll) error {
		if err := p.AddAllowance(in.Allowance); err != nil {
			return err
		}
		if err := p.AddDeduction(in.Deduction); err != nil {
			return err
		}
		if note := strings.TrimSpace(in.AdjustNote); note != "" {
			if p.Notes != nil && *p.Notes != "" {
				note = *p.Notes + "\n" + note
			}
			p.Notes = &note
		}
		return nil
	})
}

func (a *payrollAggregate) Recalculate(ctx context.Context, in domainagg.PayrollRefInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.Recalculate"
	return a.mutate(ctx, op, in.Actor, in.PayrollID, func(dbc dbctx.Context, p *school.TeacherPayroll) error {
		return a.applyAttendance(dbc, p)
	})
}

func (a *payrollAggregate) Approve(ctx context.Context, in domainagg.PayrollRefInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.Approve"
	if in.Actor.UserID == nil {
		return domainagg.PayrollResult{}, domainagg.NewError(domainagg.CodeValidation, op, "an approver is required", nil)
	}
	return a.transition(ctx, op, in.Actor, in.PayrollID, []string{school.PayrollDraft}, func(p *school.TeacherPayroll) error {
		return p.Approve(*in.Actor.UserID, in.Actor.When())
	})
}

func (a *payrollAggregate) MarkPaid(ctx context.Context, in domainagg.MarkPayrollPaidInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.MarkPaid"
	paidAt := in.PaymentDate
	if paidAt.IsZero() {
		paidAt = in.Actor.When()
	}
	return a.transition(ctx, op, in.Actor, in.PayrollID, []string{school.PayrollApproved}, func(p *school.TeacherPayroll) error {
		return p.MarkAsPaid(paidAt, in.Reference)
	})
}

func (a *payrollAggregate) RevertToDraft(ctx context.Context, in domainagg.PayrollRefInput) (domainagg.PayrollResult, error) {
	const op = "School.Payroll.RevertToDraft"
	return a.transition(ctx, op, in.Actor, in.PayrollID, []string{school.PayrollApproved, school.PayrollDraft}, func(p *school.TeacherPayroll) error {
		return p.RevertToDraft()
	})
}

// mutate edits a locked Draft payroll and saves the whole row.
func (a *payrollAggregate) mutate(ctx context.Context, op string, actor domainagg.Actor, id uint, fn func(dbc dbctx.Context, p *school.TeacherPayroll) error) (domainagg.PayrollResult, error) {
	var out domainagg.PayrollResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.lock(dbc, op, id)
		if err != nil {
			return err
		}
		before := *p
		if err := fn(dbc, p); err != nil {
			return err
		}
		if err := checkRules(op, p.Validate()); err != nil {
			return err
		}
		p.Touch(actor.UserID)
		if err := a.deps.Payrolls.Save(dbc, p); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, actor)
		if err := tr.updated(dbc, before, p, p.ID); err != nil {
			return err
		}
		out = domainagg.PayrollResult{Payroll: p, Trail: tr.entries}
		return nil
	})
	return out, err
}

// transition applies a status change and writes it with a status-guarded
// update, so a concurrent transition from another path is a conflict.
func (a *payrollAggregate) transition(ctx context.Context, op string, actor domainagg.Actor, id uint, from []string, fn func(p *school.TeacherPayroll) error) (domainagg.PayrollResult, error) {
	var out domainagg.PayrollResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.lock(dbc, op, id)
		if err != nil {
			return err
		}
		before := *p
		now := actor.When()
		if err := fn(p); err != nil {
			return err
		}
		if err := checkRules(op, p.Validate()); err != nil {
			return err
		}
		p.Touch(actor.UserID)
		ok, err := a.deps.Base.Guard.UpdateByStatus(dbc, p.TableName(), p.ID, from, map[string]any{
			"status":            p.Status,
			"approved_at":       p.ApprovedAt,
			"approved_by":       p.ApprovedBy,
			"payment_date":      p.PaymentDate,
			"payment_reference": p.PaymentReference,
			"updated_by":        p.UpdatedBy,
			"updated_at":        now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("payroll %d changed status concurrently", p.ID)); err != nil {
			return err
		}
		p.UpdatedAt = now
		tr := newTrail(a.deps.Base.Audit, actor)
		if err := tr.updated(dbc, before, p, p.ID); err != nil {
			return err
		}
		out = domainagg.PayrollResult{Payroll: p, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *payrollAggregate) lock(dbc dbctx.Context, op string, id uint) (*school.TeacherPayroll, error) {
	if id == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing payroll_id", nil)
	}
	p, err := a.deps.Payrolls.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(op, fmt.Sprintf("payroll %d", id))
	}
	return p, nil
}
