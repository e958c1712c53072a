package aggregates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var PayrollAggregateContract = Contract{
	Name:             "School.PayrollAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns payroll generation from attendance and the Draft/Approved/Paid lifecycle.",
}

// PayrollAggregate owns teacher payroll writes. Every write leaves the
// stored row with a consistent net salary.
type PayrollAggregate interface {
	Aggregate

	// Generate builds a Draft payroll for one teacher and period from the
	// teacher's attended lessons. Overlapping payrolls are CodeConflict.
	Generate(ctx context.Context, in GeneratePayrollInput) (PayrollResult, error)

	// Adjust adds allowances and deductions to a Draft payroll.
	Adjust(ctx context.Context, in AdjustPayrollInput) (PayrollResult, error)

	// Recalculate reloads attendance and recomputes every component of a
	// Draft payroll.
	Recalculate(ctx context.Context, in PayrollRefInput) (PayrollResult, error)

	Approve(ctx context.Context, in PayrollRefInput) (PayrollResult, error)
	MarkPaid(ctx context.Context, in MarkPayrollPaidInput) (PayrollResult, error)
	RevertToDraft(ctx context.Context, in PayrollRefInput) (PayrollResult, error)
}

type GeneratePayrollInput struct {
	Actor       Actor
	TeacherID   uint
	PeriodStart time.Time
	PeriodEnd   time.Time
	// TaxRate in percent; nil uses the configured default.
	TaxRate *decimal.Decimal
	Notes   string
}

type AdjustPayrollInput struct {
	Actor      Actor
	PayrollID  uint
	Allowance  decimal.Decimal
	Deduction  decimal.Decimal
	AdjustNote string
}

type PayrollRefInput struct {
	Actor     Actor
	PayrollID uint
}

type MarkPayrollPaidInput struct {
	Actor       Actor
	PayrollID   uint
	PaymentDate time.Time
	Reference   string
}

type PayrollResult struct {
	Payroll *school.TeacherPayroll
	Trail   Trail
}
