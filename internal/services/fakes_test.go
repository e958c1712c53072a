package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

var (
	march1  = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	march31 = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	errDB   = errors.New("connection reset")
)

func testLog() *logger.Logger { return logger.NewNop() }

// spyBus records published events.
type spyBus struct {
	mu      sync.Mutex
	events  []audit.Event
	calls   int
	failure error
}

func (b *spyBus) Publish(_ context.Context, events []audit.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failure != nil {
		return b.failure
	}
	b.events = append(b.events, events...)
	return nil
}

func (b *spyBus) StartForwarder(context.Context, func(audit.Event)) error { return nil }
func (b *spyBus) Close() error                                            { return nil }

// spyPublisher records the ops a service published.
type spyPublisher struct {
	mu  sync.Mutex
	ops []string
	n   int
}

func (p *spyPublisher) Publish(_ context.Context, op string, trail domainagg.Trail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
	p.n += len(trail)
}

func trailOf(entity string, id string) domainagg.Trail {
	l, _ := audit.NewAuditLog(uuid.New(), entity, id, audit.ActionInsert, nil, map[string]any{"id": id}, nil, march1)
	return domainagg.Trail{l}
}

func lesson(id, teacherID, siteID uint, d time.Time, status string) *types.Attendance {
	start := d.Add(15 * time.Hour)
	end := start.Add(time.Hour)
	a := &types.Attendance{
		ID:             id,
		CompanyID:      1,
		SiteID:         siteID,
		StudentID:      1,
		TeacherID:      teacherID,
		AttendanceDate: d,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         status,
	}
	if status == school.AttendancePresent || status == school.AttendanceLate {
		a.ActualStart, a.ActualEnd = &start, &end
	}
	return a
}

type fakeAttendanceRepo struct {
	repos.AttendanceRepo
	rows []*types.Attendance
	err  error
}

func (r *fakeAttendanceRepo) filter(keep func(a *types.Attendance) bool) ([]*types.Attendance, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*types.Attendance
	for _, a := range r.rows {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) GetByID(_ dbctx.Context, id uint) (*types.Attendance, error) {
	rows, err := r.filter(func(a *types.Attendance) bool { return a.ID == id })
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fakeAttendanceRepo) ListByTeacher(_ dbctx.Context, teacherID uint, from, to time.Time) ([]*types.Attendance, error) {
	return r.filter(func(a *types.Attendance) bool {
		return a.TeacherID == teacherID && !a.AttendanceDate.Before(from) && !a.AttendanceDate.After(to)
	})
}

func (r *fakeAttendanceRepo) ListBySite(_ dbctx.Context, siteID uint, from, to time.Time) ([]*types.Attendance, error) {
	return r.filter(func(a *types.Attendance) bool {
		return a.SiteID == siteID && !a.AttendanceDate.Before(from) && !a.AttendanceDate.After(to)
	})
}

type fakeTeacherRepo struct {
	repos.TeacherRepo
	rows []*types.Teacher
}

func (r *fakeTeacherRepo) ListByCompany(_ dbctx.Context, companyID uint, _ string) ([]*types.Teacher, error) {
	var out []*types.Teacher
	for _, t := range r.rows {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeSiteRepo struct {
	repos.SiteRepo
	rows []*types.Site
}

func (r *fakeSiteRepo) ListByCompany(_ dbctx.Context, companyID uint) ([]*types.Site, error) {
	var out []*types.Site
	for _, s := range r.rows {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakePayrollRepo struct {
	repos.TeacherPayrollRepo
	rows []*types.TeacherPayroll
}

func (r *fakePayrollRepo) GetByID(_ dbctx.Context, id uint) (*types.TeacherPayroll, error) {
	for _, p := range r.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePayrollRepo) ListByCompanyPeriod(_ dbctx.Context, companyID uint, _, _ time.Time, statuses []string) ([]*types.TeacherPayroll, error) {
	var out []*types.TeacherPayroll
	for _, p := range r.rows {
		if p.CompanyID != companyID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, p.Status) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type fakeExamRepo struct {
	repos.ExaminationRepo
	rows []*types.Examination
}

func (r *fakeExamRepo) GetWithRegistrations(_ dbctx.Context, id uint) (*types.Examination, error) {
	for _, e := range r.rows {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

type fakeCertificateRepo struct {
	repos.CertificateRepo
	rows []*types.Certificate
}

func (r *fakeCertificateRepo) GetByID(_ dbctx.Context, id uint) (*types.Certificate, error) {
	for _, c := range r.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

type fakeStudentRepo struct {
	repos.StudentRepo
	rows []*types.Student
}

func (r *fakeStudentRepo) GetByID(_ dbctx.Context, id uint) (*types.Student, error) {
	for _, s := range r.rows {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

type fakeGradeRepo struct {
	repos.GradeRepo
	rows []*types.Grade
}

func (r *fakeGradeRepo) GetByID(_ dbctx.Context, id uint) (*types.Grade, error) {
	for _, g := range r.rows {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, nil
}

type fakeGradeBookRepo struct {
	repos.GradeBookRepo
	rows []types.GradeBook
}

func (r *fakeGradeBookRepo) ListByGrade(_ dbctx.Context, gradeID uint) ([]types.GradeBook, error) {
	out := []types.GradeBook{}
	for _, gb := range r.rows {
		if gb.GradeID == gradeID {
			out = append(out, gb)
		}
	}
	return out, nil
}

// stubPayrollAgg answers Recalculate from a fixed payroll and counts calls.
type stubPayrollAgg struct {
	domainagg.PayrollAggregate
	recalculated []uint
	fail         map[uint]error
	hours        decimal.Decimal
}

func (a *stubPayrollAgg) Recalculate(_ context.Context, in domainagg.PayrollRefInput) (domainagg.PayrollResult, error) {
	if err := a.fail[in.PayrollID]; err != nil {
		return domainagg.PayrollResult{}, err
	}
	a.recalculated = append(a.recalculated, in.PayrollID)
	p := &types.TeacherPayroll{ID: in.PayrollID, TotalTeachingHours: a.hours}
	return domainagg.PayrollResult{Payroll: p, Trail: trailOf("teacher_payroll", "1")}, nil
}

func (a *stubPayrollAgg) Approve(_ context.Context, in domainagg.PayrollRefInput) (domainagg.PayrollResult, error) {
	if err := a.fail[in.PayrollID]; err != nil {
		return domainagg.PayrollResult{}, err
	}
	p := &types.TeacherPayroll{ID: in.PayrollID, Status: school.PayrollApproved}
	return domainagg.PayrollResult{Payroll: p, Trail: trailOf("teacher_payroll", "1")}, nil
}

// stubCertificateAgg returns canned results.
type stubCertificateAgg struct {
	domainagg.CertificateAggregate
	result domainagg.CertificateResult
	err    error
}

func (a *stubCertificateAgg) Replace(context.Context, domainagg.ReplaceCertificateInput) (domainagg.CertificateResult, error) {
	return a.result, a.err
}

func (a *stubCertificateAgg) Revoke(context.Context, domainagg.RevokeCertificateInput) (domainagg.CertificateResult, error) {
	return a.result, a.err
}

// stubRequisitionAgg echoes the reading list it is given.
type stubRequisitionAgg struct {
	domainagg.RequisitionAggregate
	got domainagg.SetReadingListInput
}

func (a *stubRequisitionAgg) SetReadingList(_ context.Context, in domainagg.SetReadingListInput) (domainagg.ReadingListResult, error) {
	a.got = in
	if in.GradeID == 0 {
		return domainagg.ReadingListResult{}, domainagg.NewError(domainagg.CodeValidation, "School.Requisition.SetReadingList", "missing grade_id", nil)
	}
	rows := make([]*types.GradeBook, len(in.Books))
	for i := range in.Books {
		gb := in.Books[i]
		gb.GradeID = in.GradeID
		rows[i] = &gb
	}
	return domainagg.ReadingListResult{Books: rows, Trail: trailOf("grade_book", "1")}, nil
}
