package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

func newPayrollAgg(w *world) domainagg.PayrollAggregate {
	return aggregates.NewPayrollAggregate(aggregates.PayrollAggregateDeps{
		Base:           w.base(),
		Payrolls:       payrollRepo{w},
		Teachers:       teacherRepo{w},
		Attendance:     attendanceRepo{w},
		DefaultTaxRate: decimal.NewFromInt(10),
	})
}

// seedMonth stores four attended hours and one absence for teacher in March.
func seedMonth(w *world, studentID, teacherID uint) {
	for i := 0; i < 4; i++ {
		w.seedLesson(studentID, teacherID, day.AddDate(0, 0, 7*i), school.AttendancePresent)
	}
	w.seedLesson(studentID, teacherID, day.AddDate(0, 0, 1), school.AttendanceAbsent)
}

func generateMarch(t *testing.T, w *world, agg domainagg.PayrollAggregate, teacherID uint) *school.TeacherPayroll {
	t.Helper()
	res, err := agg.Generate(context.Background(), domainagg.GeneratePayrollInput{
		Actor:       actorAt(day),
		TeacherID:   teacherID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res.Payroll
}

func TestPayrollGenerate(t *testing.T) {
	w := newWorld()
	st := w.seedStudent(1, school.StudentStatusActive)
	te := w.seedTeacher(school.TeacherStatusActive, 50000)
	seedMonth(w, st.ID, te.ID)
	agg := newPayrollAgg(w)

	p := generateMarch(t, w, agg, te.ID)
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"hours", p.TotalTeachingHours, "4"},
		{"basic", p.BasicSalary, "200000"},
		{"tax", p.Tax, "20000"},
		{"net", p.NetSalary, "180000"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("%s: want %s got %s", c.name, c.want, c.got)
		}
	}
	if p.Status != school.PayrollDraft || p.ID == 0 {
		t.Fatalf("payroll: %+v", p)
	}
	if keys := w.audit.Keys(); len(keys) != 1 || keys[0] != "Insert teacher_payroll#1" {
		t.Fatalf("audit: %v", keys)
	}

	t.Run("overlapping period", func(t *testing.T) {
		_, err := agg.Generate(context.Background(), domainagg.GeneratePayrollInput{
			Actor:       actorAt(day),
			TeacherID:   te.ID,
			PeriodStart: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
		})
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("want conflict, got %v", err)
		}
		if n := len(w.hooks.Conflicts); n != 1 {
			t.Fatalf("conflict hook calls: %d", n)
		}
	})

	t.Run("period too long", func(t *testing.T) {
		_, err := agg.Generate(context.Background(), domainagg.GeneratePayrollInput{
			Actor:       actorAt(day),
			TeacherID:   te.ID,
			PeriodStart: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		})
		if !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("want validation, got %v", err)
		}
	})

	t.Run("unknown teacher", func(t *testing.T) {
		_, err := agg.Generate(context.Background(), domainagg.GeneratePayrollInput{
			Actor:       actorAt(day),
			TeacherID:   42,
			PeriodStart: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		})
		if !domainagg.IsCode(err, domainagg.CodeNotFound) {
			t.Fatalf("want not_found, got %v", err)
		}
	})
}

func TestPayrollLifecycle(t *testing.T) {
	w := newWorld()
	st := w.seedStudent(1, school.StudentStatusActive)
	te := w.seedTeacher(school.TeacherStatusActive, 50000)
	seedMonth(w, st.ID, te.ID)
	agg := newPayrollAgg(w)
	p := generateMarch(t, w, agg, te.ID)
	ctx := context.Background()

	res, err := agg.Adjust(ctx, domainagg.AdjustPayrollInput{
		Actor:      actorAt(day),
		PayrollID:  p.ID,
		Allowance:  decimal.NewFromInt(10000),
		Deduction:  decimal.NewFromInt(5000),
		AdjustNote: "transport",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	// (200000 + 10000) * 10% = 21000 tax; 210000 - 5000 - 21000
	if !res.Payroll.NetSalary.Equal(decimal.NewFromInt(184000)) {
		t.Fatalf("net after adjust: %s", res.Payroll.NetSalary)
	}

	// A lesson recorded late is picked up by Recalculate.
	w.seedLesson(st.ID, te.ID, day.AddDate(0, 0, 2), school.AttendancePresent)
	res, err = agg.Recalculate(ctx, domainagg.PayrollRefInput{Actor: actorAt(day), PayrollID: p.ID})
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if !res.Payroll.TotalTeachingHours.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("hours after recalculate: %s", res.Payroll.TotalTeachingHours)
	}

	if _, err := agg.Approve(ctx, domainagg.PayrollRefInput{Actor: actorAt(day), PayrollID: p.ID}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	stored := w.payrolls.get(p.ID)
	if stored.Status != school.PayrollApproved || stored.ApprovedBy == nil || *stored.ApprovedBy != adminID {
		t.Fatalf("approved payroll: %+v", stored)
	}

	_, err = agg.Adjust(ctx, domainagg.AdjustPayrollInput{Actor: actorAt(day), PayrollID: p.ID, Allowance: decimal.NewFromInt(1)})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("adjusting an approved payroll: want precondition_failed, got %v", err)
	}

	paidOn := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	res, err = agg.MarkPaid(ctx, domainagg.MarkPayrollPaidInput{Actor: actorAt(paidOn), PayrollID: p.ID, PaymentDate: paidOn, Reference: "TRX-991"})
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	stored = w.payrolls.get(p.ID)
	if stored.Status != school.PayrollPaid || stored.PaymentReference == nil || *stored.PaymentReference != "TRX-991" {
		t.Fatalf("paid payroll: %+v", stored)
	}
	if len(res.Trail) != 1 {
		t.Fatalf("trail: %+v", res.Trail)
	}

	_, err = agg.RevertToDraft(ctx, domainagg.PayrollRefInput{Actor: actorAt(paidOn), PayrollID: p.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("reverting a paid payroll: want conflict, got %v", err)
	}
}

func TestPayrollApproveLosesRace(t *testing.T) {
	w := newWorld()
	te := w.seedTeacher(school.TeacherStatusActive, 50000)
	agg := newPayrollAgg(w)
	p := generateMarch(t, w, agg, te.ID)

	w.guard.Lose = true
	_, err := agg.Approve(context.Background(), domainagg.PayrollRefInput{Actor: actorAt(day), PayrollID: p.ID})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if got := w.payrolls.get(p.ID).Status; got != school.PayrollDraft {
		t.Fatalf("status changed to %s", got)
	}
	if w.runner.RollbackCalls != 1 {
		t.Fatalf("rollback calls: %d", w.runner.RollbackCalls)
	}
}

func TestPayrollApproveRequiresApprover(t *testing.T) {
	w := newWorld()
	te := w.seedTeacher(school.TeacherStatusActive, 50000)
	agg := newPayrollAgg(w)
	p := generateMarch(t, w, agg, te.ID)

	_, err := agg.Approve(context.Background(), domainagg.PayrollRefInput{PayrollID: p.ID})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
}

func TestPayrollAuditFailureRollsBack(t *testing.T) {
	w := newWorld()
	te := w.seedTeacher(school.TeacherStatusActive, 50000)
	w.audit.FailWith = errors.New("audit_log unavailable")

	_, err := newPayrollAgg(w).Generate(context.Background(), domainagg.GeneratePayrollInput{
		Actor:       actorAt(day),
		TeacherID:   te.ID,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("want internal, got %v", err)
	}
	if w.runner.RollbackCalls != 1 || w.runner.CommitCalls != 0 {
		t.Fatalf("runner: commit=%d rollback=%d", w.runner.CommitCalls, w.runner.RollbackCalls)
	}
}
