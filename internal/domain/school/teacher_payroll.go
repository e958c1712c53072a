package school

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	PayrollDraft    = "Draft"
	PayrollApproved = "Approved"
	PayrollPaid     = "Paid"
)

const (
	MaxPayrollPeriodDays = 31
	MaxPayrollHours      = 744
)

var (
	payrollTransitions = rules.Transitions{
		PayrollDraft:    {PayrollApproved, PayrollDraft},
		PayrollApproved: {PayrollPaid, PayrollDraft},
	}

	hundred         = decimal.NewFromInt(100)
	sixty           = decimal.NewFromInt(60)
	salaryTolerance = decimal.New(1, -2)
)

// TeacherPayroll is one teacher's pay for one period. Money and hours are
// decimals rounded to two places.
type TeacherPayroll struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CompanyID          uint            `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	TeacherID          uint            `gorm:"column:teacher_id;not null;index:idx_payroll_teacher_period" json:"teacher_id" validate:"required"`
	PeriodStart        time.Time       `gorm:"column:period_start;type:date;not null;index:idx_payroll_teacher_period" json:"period_start" validate:"required"`
	PeriodEnd          time.Time       `gorm:"column:period_end;type:date;not null" json:"period_end" validate:"required"`
	TotalTeachingHours decimal.Decimal `gorm:"column:total_teaching_hours;type:numeric(8,2);not null" json:"total_teaching_hours"`
	HourlyRate         decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null" json:"hourly_rate"`
	BasicSalary        decimal.Decimal `gorm:"column:basic_salary;type:numeric(14,2);not null" json:"basic_salary"`
	Allowances         decimal.Decimal `gorm:"column:allowances;type:numeric(14,2);not null" json:"allowances"`
	Deductions         decimal.Decimal `gorm:"column:deductions;type:numeric(14,2);not null" json:"deductions"`
	TaxRate            decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null" json:"tax_rate"`
	Tax                decimal.Decimal `gorm:"column:tax;type:numeric(14,2);not null" json:"tax"`
	NetSalary          decimal.Decimal `gorm:"column:net_salary;type:numeric(14,2);not null" json:"net_salary"`
	Status             string          `gorm:"column:status;size:20;not null;index" json:"status"`
	ApprovedAt         *time.Time      `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy         *uint           `gorm:"column:approved_by" json:"approved_by,omitempty"`
	PaymentDate        *time.Time      `gorm:"column:payment_date;type:date" json:"payment_date,omitempty"`
	PaymentReference   *string         `gorm:"column:payment_reference;size:100" json:"payment_reference,omitempty" validate:"omitempty,max=100"`
	Notes              *string         `gorm:"column:notes;size:1000" json:"notes,omitempty" validate:"omitempty,max=1000"`
	Teacher            *Teacher        `gorm:"foreignKey:TeacherID" json:"teacher,omitempty" validate:"-"`
	AuditFields
}

func (TeacherPayroll) TableName() string { return "teacher_payroll" }

// NewTeacherPayroll returns an unsaved Draft payroll with zero amounts.
func NewTeacherPayroll(teacherID, companyID uint, start, end time.Time, hourlyRate, taxRate decimal.Decimal, actor *uint) *TeacherPayroll {
	p := &TeacherPayroll{
		CompanyID:   companyID,
		TeacherID:   teacherID,
		PeriodStart: rules.DateOnly(start),
		PeriodEnd:   rules.DateOnly(end),
		HourlyRate:  hourlyRate,
		TaxRate:     taxRate,
		Status:      PayrollDraft,
	}
	p.Stamp(actor)
	return p
}

func (p TeacherPayroll) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(p))
	statusRule(&s, p.Status, PayrollDraft, PayrollApproved, PayrollPaid)

	if !p.PeriodStart.IsZero() && !p.PeriodEnd.IsZero() {
		if p.PeriodEnd.Before(p.PeriodStart) {
			s.Add("pay period end must not be before pay period start")
		} else {
			s.Checkf(p.PeriodDays() > MaxPayrollPeriodDays, "pay period must not exceed %d days", MaxPayrollPeriodDays)
		}
	}
	s.Checkf(p.TotalTeachingHours.IsNegative() || p.TotalTeachingHours.GreaterThan(decimal.NewFromInt(MaxPayrollHours)),
		"total teaching hours must be between 0 and %d", MaxPayrollHours)
	s.Check(!p.HourlyRate.IsPositive(), "hourly rate must be greater than zero")
	for _, amt := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"basic salary", p.BasicSalary},
		{"allowances", p.Allowances},
		{"deductions", p.Deductions},
		{"tax", p.Tax},
	} {
		s.Checkf(amt.v.IsNegative(), "%s must not be negative", amt.name)
	}
	s.Check(p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(hundred), "tax rate must be between 0 and 100")
	s.Check(!p.NetSalaryConsistent(), "net salary must equal basic salary + allowances - deductions - tax")
	s.Check(p.NetSalary.IsNegative(), "net salary must not be negative")

	switch p.Status {
	case PayrollDraft:
		s.Check(p.PaymentDate != nil, "a draft payroll must not have a payment date")
	case PayrollApproved:
		s.Check(p.ApprovedAt == nil, "an approved payroll requires an approval date")
	case PayrollPaid:
		s.Check(p.ApprovedAt == nil, "a paid payroll requires an approval date")
		s.Check(p.PaymentDate == nil, "a paid payroll requires a payment date")
	}
	if p.PaymentDate != nil && !p.PeriodStart.IsZero() {
		s.Check(rules.DateOnly(*p.PaymentDate).Before(p.PeriodStart), "payment date must not be before the pay period start")
	}
	return s.List()
}

func (p *TeacherPayroll) CalculateBasicSalary() {
	p.BasicSalary = p.TotalTeachingHours.Mul(p.HourlyRate).Round(2)
}

// CalculateTax applies TaxRate (a percentage) to basic salary plus allowances.
func (p *TeacherPayroll) CalculateTax() {
	p.Tax = p.GrossSalary().Mul(p.TaxRate).Div(hundred).Round(2)
}

func (p *TeacherPayroll) CalculateNetSalary() {
	p.NetSalary = p.GrossSalary().Sub(p.Deductions).Sub(p.Tax)
}

func (p *TeacherPayroll) RecalculateAllSalaryComponents() {
	p.CalculateBasicSalary()
	p.CalculateTax()
	p.CalculateNetSalary()
}

// CalculateTeachingHours sets TotalTeachingHours from the attended minutes
// of this teacher's records inside the pay period, then recalculates pay.
func (p *TeacherPayroll) CalculateTeachingHours(records []Attendance) error {
	if !p.IsEditable() {
		return preconditionErr("teaching hours can only be recalculated on a Draft payroll (status %q)", p.Status)
	}
	minutes := 0
	for _, a := range records {
		if a.TeacherID != p.TeacherID || !a.IsAttended() || !inDateRange(a.AttendanceDate, p.PeriodStart, p.PeriodEnd) {
			continue
		}
		if m, ok := a.ActualDurationMinutes(); ok && m > 0 {
			minutes += m
		}
	}
	hours := decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2)
	if hours.GreaterThan(decimal.NewFromInt(MaxPayrollHours)) {
		return rangeErr("%s teaching hours exceed the %d hour limit", hours.String(), MaxPayrollHours)
	}
	p.TotalTeachingHours = hours
	p.RecalculateAllSalaryComponents()
	return nil
}

func (p *TeacherPayroll) AddAllowance(amount decimal.Decimal) error {
	return p.adjust("allowance", amount, &p.Allowances)
}

func (p *TeacherPayroll) AddDeduction(amount decimal.Decimal) error {
	return p.adjust("deduction", amount, &p.Deductions)
}

func (p *TeacherPayroll) adjust(kind string, amount decimal.Decimal, field *decimal.Decimal) error {
	if !p.IsEditable() {
		return preconditionErr("cannot add %s to a %s payroll", kind, p.Status)
	}
	if amount.IsNegative() {
		return rangeErr("%s must not be negative", kind)
	}
	*field = field.Add(amount).Round(2)
	p.CalculateTax()
	p.CalculateNetSalary()
	return nil
}

// Approve moves a Draft payroll to Approved. Calling it on any other status
// is a contract violation and yields ErrPrecondition.
func (p *TeacherPayroll) Approve(approverID uint, at time.Time) error {
	if p.Status != PayrollDraft {
		return preconditionErr("payroll must be Draft to approve (status %q)", p.Status)
	}
	if !p.NetSalaryConsistent() {
		return fmt.Errorf("%w: net salary %s does not match its components", ErrInvariant, p.NetSalary.String())
	}
	p.Status = PayrollApproved
	p.ApprovedAt = &at
	p.ApprovedBy = &approverID
	return nil
}

func (p *TeacherPayroll) MarkAsPaid(at time.Time, reference string) error {
	if p.Status != PayrollApproved {
		return preconditionErr("payroll must be Approved to mark as paid (status %q)", p.Status)
	}
	day := rules.DateOnly(at)
	if day.Before(p.PeriodStart) {
		return rangeErr("payment date %s is before the pay period start", day.Format("2006-01-02"))
	}
	p.Status = PayrollPaid
	p.PaymentDate = &day
	if ref := trimmed(reference); ref != nil {
		p.PaymentReference = ref
	}
	return nil
}

// RevertToDraft reopens an Approved payroll for editing. Paid is terminal.
func (p *TeacherPayroll) RevertToDraft() error {
	if !p.CanTransitionTo(PayrollDraft) {
		return transitionErr("payroll", p.Status, PayrollDraft)
	}
	p.Status = PayrollDraft
	p.ApprovedAt = nil
	p.ApprovedBy = nil
	return nil
}

func (p TeacherPayroll) CanTransitionTo(status string) bool {
	return payrollTransitions.Allows(p.Status, status)
}

func (p TeacherPayroll) NetSalaryConsistent() bool {
	want := p.GrossSalary().Sub(p.Deductions).Sub(p.Tax)
	return want.Sub(p.NetSalary).Abs().LessThanOrEqual(salaryTolerance)
}

func (p TeacherPayroll) GrossSalary() decimal.Decimal { return p.BasicSalary.Add(p.Allowances) }

func (p TeacherPayroll) TotalDeductions() decimal.Decimal { return p.Deductions.Add(p.Tax) }

func (p TeacherPayroll) IsEditable() bool { return p.Status == PayrollDraft }

func (p TeacherPayroll) IsPaid() bool { return p.Status == PayrollPaid }

// PeriodDays counts calendar days in the period, both ends included.
func (p TeacherPayroll) PeriodDays() int {
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return 0
	}
	return rules.DaysBetween(p.PeriodStart, p.PeriodEnd) + 1
}

// PeriodLabel is "March 2026" for a whole calendar month, otherwise the
// explicit date range.
func (p TeacherPayroll) PeriodLabel() string {
	s, e := p.PeriodStart, p.PeriodEnd
	if s.Year() == e.Year() && s.Month() == e.Month() && s.Day() == 1 && e.AddDate(0, 0, 1).Month() != e.Month() {
		return s.Format("January 2006")
	}
	return fmt.Sprintf("%s - %s", s.Format("02 Jan 2006"), e.Format("02 Jan 2006"))
}

type PayrollSummary struct {
	Count           int             `json:"count"`
	Draft           int             `json:"draft"`
	Approved        int             `json:"approved"`
	Paid            int             `json:"paid"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	TotalBasic      decimal.Decimal `json:"total_basic"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	TotalNet        decimal.Decimal `json:"total_net"`
	AverageNet      decimal.Decimal `json:"average_net"`
}

func SummarizePayrolls(items []TeacherPayroll) PayrollSummary {
	var out PayrollSummary
	for _, p := range items {
		out.Count++
		switch p.Status {
		case PayrollDraft:
			out.Draft++
		case PayrollApproved:
			out.Approved++
		case PayrollPaid:
			out.Paid++
		}
		out.TotalHours = out.TotalHours.Add(p.TotalTeachingHours)
		out.TotalBasic = out.TotalBasic.Add(p.BasicSalary)
		out.TotalAllowances = out.TotalAllowances.Add(p.Allowances)
		out.TotalDeductions = out.TotalDeductions.Add(p.Deductions)
		out.TotalTax = out.TotalTax.Add(p.Tax)
		out.TotalNet = out.TotalNet.Add(p.NetSalary)
	}
	if out.Count > 0 {
		out.AverageNet = out.TotalNet.Div(decimal.NewFromInt(int64(out.Count))).Round(2)
	}
	return out
}
