package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type PayrollService interface {
	Generate(ctx context.Context, in domainagg.GeneratePayrollInput) (*types.TeacherPayroll, error)
	Adjust(ctx context.Context, in domainagg.AdjustPayrollInput) (*types.TeacherPayroll, error)
	Recalculate(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error)
	Approve(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error)
	MarkPaid(ctx context.Context, in domainagg.MarkPayrollPaidInput) (*types.TeacherPayroll, error)
	RevertToDraft(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error)

	Get(ctx context.Context, id uint) (*types.TeacherPayroll, error)
	ListForPeriod(ctx context.Context, companyID uint, from, to time.Time, statuses []string) ([]*types.TeacherPayroll, error)

	// RecalculatePeriod recalculates every Draft payroll of a company that
	// overlaps from..to. With DryRun nothing is written.
	RecalculatePeriod(ctx context.Context, in RecalculatePeriodInput) (RecalculatePeriodResult, error)
}

type RecalculatePeriodInput struct {
	Actor     domainagg.Actor
	CompanyID uint
	From      time.Time
	To        time.Time
	DryRun    bool
}

type PayrollChange struct {
	PayrollID   uint            `json:"payroll_id"`
	TeacherID   uint            `json:"teacher_id"`
	Period      string          `json:"period"`
	HoursBefore decimal.Decimal `json:"hours_before"`
	HoursAfter  decimal.Decimal `json:"hours_after"`
	NetBefore   decimal.Decimal `json:"net_before"`
	NetAfter    decimal.Decimal `json:"net_after"`
	Error       string          `json:"error,omitempty"`
}

func (c PayrollChange) Changed() bool {
	return !c.HoursBefore.Equal(c.HoursAfter) || !c.NetBefore.Equal(c.NetAfter)
}

type RecalculatePeriodResult struct {
	DryRun  bool            `json:"dry_run"`
	Changes []PayrollChange `json:"changes"`
	Failed  int             `json:"failed"`
}

type payrollService struct {
	log        *logger.Logger
	agg        domainagg.PayrollAggregate
	payrolls   repos.TeacherPayrollRepo
	attendance repos.AttendanceRepo
	publisher  TrailPublisher
}

func NewPayrollService(log *logger.Logger, agg domainagg.PayrollAggregate, payrolls repos.TeacherPayrollRepo, attendance repos.AttendanceRepo, publisher TrailPublisher) PayrollService {
	return &payrollService{
		log:        log.With("service", "PayrollService"),
		agg:        agg,
		payrolls:   payrolls,
		attendance: attendance,
		publisher:  publisher,
	}
}

func (s *payrollService) Generate(ctx context.Context, in domainagg.GeneratePayrollInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.Generate")(s.agg.Generate(ctx, in))
}

func (s *payrollService) Adjust(ctx context.Context, in domainagg.AdjustPayrollInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.Adjust")(s.agg.Adjust(ctx, in))
}

func (s *payrollService) Recalculate(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.Recalculate")(s.agg.Recalculate(ctx, in))
}

func (s *payrollService) Approve(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.Approve")(s.agg.Approve(ctx, in))
}

func (s *payrollService) MarkPaid(ctx context.Context, in domainagg.MarkPayrollPaidInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.MarkPaid")(s.agg.MarkPaid(ctx, in))
}

func (s *payrollService) RevertToDraft(ctx context.Context, in domainagg.PayrollRefInput) (*types.TeacherPayroll, error) {
	return s.done(ctx, "School.Payroll.RevertToDraft")(s.agg.RevertToDraft(ctx, in))
}

// done publishes the trail of a successful write and unwraps the payroll.
func (s *payrollService) done(ctx context.Context, op string) func(domainagg.PayrollResult, error) (*types.TeacherPayroll, error) {
	return func(res domainagg.PayrollResult, err error) (*types.TeacherPayroll, error) {
		if err != nil {
			return nil, err
		}
		s.publisher.Publish(ctx, op, res.Trail)
		return res.Payroll, nil
	}
}

func (s *payrollService) Get(ctx context.Context, id uint) (*types.TeacherPayroll, error) {
	const op = "School.Payroll.Get"
	p, err := s.payrolls.GetByID(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if p == nil {
		return nil, notFound(op, "payroll", id)
	}
	return p, nil
}

func (s *payrollService) ListForPeriod(ctx context.Context, companyID uint, from, to time.Time, statuses []string) ([]*types.TeacherPayroll, error) {
	const op = "School.Payroll.ListForPeriod"
	if companyID == 0 {
		return nil, missingID(op, "company_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	rows, err := s.payrolls.ListByCompanyPeriod(readCtx(ctx), companyID, from, to, statuses)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *payrollService) RecalculatePeriod(ctx context.Context, in RecalculatePeriodInput) (RecalculatePeriodResult, error) {
	const op = "School.Payroll.RecalculatePeriod"
	out := RecalculatePeriodResult{DryRun: in.DryRun, Changes: []PayrollChange{}}
	drafts, err := s.ListForPeriod(ctx, in.CompanyID, in.From, in.To, []string{school.PayrollDraft})
	if err != nil {
		return out, err
	}

	for _, p := range drafts {
		if err := ctx.Err(); err != nil {
			return out, readErr(op, err)
		}
		change := PayrollChange{
			PayrollID:   p.ID,
			TeacherID:   p.TeacherID,
			Period:      p.PeriodLabel(),
			HoursBefore: p.TotalTeachingHours,
			NetBefore:   p.NetSalary,
		}
		var after *types.TeacherPayroll
		if in.DryRun {
			after, err = s.preview(ctx, *p)
		} else {
			after, err = s.Recalculate(ctx, domainagg.PayrollRefInput{Actor: in.Actor, PayrollID: p.ID})
		}
		if err != nil {
			s.log.Warn("payroll recalculation failed", "payroll_id", p.ID, "error", err)
			change.Error = err.Error()
			out.Failed++
		} else {
			change.HoursAfter = after.TotalTeachingHours
			change.NetAfter = after.NetSalary
		}
		out.Changes = append(out.Changes, change)
	}
	return out, nil
}

// preview recomputes a detached copy of p from stored attendance.
func (s *payrollService) preview(ctx context.Context, p types.TeacherPayroll) (*types.TeacherPayroll, error) {
	const op = "School.Payroll.Preview"
	rows, err := s.attendance.ListByTeacher(readCtx(ctx), p.TeacherID, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		return nil, readErr(op, err)
	}
	if err := p.CalculateTeachingHours(values(rows)); err != nil {
		return nil, readErr(op, err)
	}
	return &p, nil
}
