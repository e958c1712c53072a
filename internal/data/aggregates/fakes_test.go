package aggregates_test

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/data/aggregates"
	"github.com/yungbote/cadenza-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

// memTable keeps value copies so callers never alias stored rows.
type memTable[T any] struct {
	mu   sync.Mutex
	next uint
	rows map[uint]T
	idOf func(*T) *uint
}

func newTable[T any](idOf func(*T) *uint) *memTable[T] {
	return &memTable[T]{rows: map[uint]T{}, idOf: idOf}
}

func (m *memTable[T]) insert(v *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	*m.idOf(v) = m.next
	m.rows[m.next] = *v
}

func (m *memTable[T]) get(id uint) *T {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil
	}
	return &v
}

func (m *memTable[T]) put(v *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[*m.idOf(v)] = *v
}

func (m *memTable[T]) remove(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
}

func (m *memTable[T]) filter(keep func(*T) bool) []*T {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []*T{}
	for _, id := range ids {
		v := m.rows[id]
		if keep == nil || keep(&v) {
			out = append(out, &v)
		}
	}
	return out
}

func inIDs(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func inDays(t, from, to time.Time) bool {
	d := rules.DateOnly(t)
	return !d.Before(rules.DateOnly(from)) && !d.After(rules.DateOnly(to))
}

// world is an in-memory school.
type world struct {
	students     *memTable[school.Student]
	teachers     *memTable[school.Teacher]
	grades       *memTable[school.Grade]
	books        *memTable[school.Book]
	gradeBooks   *memTable[school.GradeBook]
	attendance   *memTable[school.Attendance]
	payrolls     *memTable[school.TeacherPayroll]
	exams        *memTable[school.Examination]
	regs         *memTable[school.StudentExamination]
	certificates *memTable[school.Certificate]
	history      *memTable[school.StudentGradeHistory]
	requisitions *memTable[school.BookRequisition]
	lines        *memTable[school.BookRequisitionDetail]

	runner *testutil.InjectedTxRunner
	hooks  *testutil.HooksRecorder
	audit  *testutil.AuditSink
	guard  *fakeGuard
}

func newWorld() *world {
	w := &world{
		students:     newTable(func(v *school.Student) *uint { return &v.ID }),
		teachers:     newTable(func(v *school.Teacher) *uint { return &v.ID }),
		grades:       newTable(func(v *school.Grade) *uint { return &v.ID }),
		books:        newTable(func(v *school.Book) *uint { return &v.ID }),
		gradeBooks:   newTable(func(v *school.GradeBook) *uint { return &v.ID }),
		attendance:   newTable(func(v *school.Attendance) *uint { return &v.ID }),
		payrolls:     newTable(func(v *school.TeacherPayroll) *uint { return &v.ID }),
		exams:        newTable(func(v *school.Examination) *uint { return &v.ID }),
		regs:         newTable(func(v *school.StudentExamination) *uint { return &v.ID }),
		certificates: newTable(func(v *school.Certificate) *uint { return &v.ID }),
		history:      newTable(func(v *school.StudentGradeHistory) *uint { return &v.ID }),
		requisitions: newTable(func(v *school.BookRequisition) *uint { return &v.ID }),
		lines:        newTable(func(v *school.BookRequisitionDetail) *uint { return &v.ID }),
		runner:       &testutil.InjectedTxRunner{},
		hooks:        &testutil.HooksRecorder{},
		audit:        &testutil.AuditSink{},
	}
	w.guard = &fakeGuard{w: w}
	return w
}

func (w *world) base() aggregates.BaseDeps {
	return aggregates.BaseDeps{Runner: w.runner, Hooks: w.hooks, Audit: w.audit, Guard: w.guard}
}

var (
	day     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	adminID = uint(7)
)

func (w *world) seedStudent(siteID uint, status string) *school.Student {
	st := &school.Student{CompanyID: 1, SiteID: siteID, StudentCode: fmt.Sprintf("S%03d", siteID), FullName: "Ada Lovelace", Status: status}
	w.students.insert(st)
	return st
}

func (w *world) seedTeacher(status string, rate int64) *school.Teacher {
	t := &school.Teacher{
		CompanyID:      1,
		SiteID:         1,
		EmployeeCode:   "T-01",
		FullName:       "Clara Schumann",
		HourlyRate:     decimal.NewFromInt(rate),
		MaxWeeklyHours: 30,
		HireDate:       day.AddDate(-3, 0, 0),
		Status:         status,
	}
	w.teachers.insert(t)
	return t
}

func (w *world) seedGrade(level int, active bool) *school.Grade {
	g := &school.Grade{
		CompanyID:              1,
		Code:                   fmt.Sprintf("PNO-%d", level),
		Name:                   fmt.Sprintf("Piano Grade %d", level),
		Level:                  level,
		Instrument:             "Piano",
		ExpectedDurationMonths: 12,
		IsActive:               active,
	}
	w.grades.insert(g)
	return g
}

func (w *world) seedBook(stock int) *school.Book {
	b := &school.Book{CompanyID: 1, Title: "Scales and Arpeggios", Price: decimal.RequireFromString("12.50"), Stock: stock, IsActive: true}
	w.books.insert(b)
	return b
}

// seedLesson stores a 60 minute lesson at 15:00 on d.
func (w *world) seedLesson(studentID, teacherID uint, d time.Time, status string) *school.Attendance {
	start := d.Add(15 * time.Hour)
	end := start.Add(time.Hour)
	a := &school.Attendance{
		CompanyID:      1,
		SiteID:         1,
		StudentID:      studentID,
		TeacherID:      teacherID,
		AttendanceDate: d,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         status,
	}
	if status == school.AttendancePresent {
		a.ActualStart, a.ActualEnd = &start, &end
	}
	w.attendance.insert(a)
	return a
}

type fakeGuard struct {
	w *world
	// Lose makes the next update lose its race.
	Lose bool
}

func (g *fakeGuard) UpdateByStatus(_ dbctx.Context, table string, id uint, allowed []string, updates map[string]any) (bool, error) {
	if g.Lose {
		g.Lose = false
		return false, nil
	}
	if table != "teacher_payroll" {
		return false, nil
	}
	p := g.w.payrolls.get(id)
	if p == nil || !containsString(allowed, p.Status) {
		return false, nil
	}
	if s, ok := updates["status"].(string); ok {
		p.Status = s
	}
	if v, ok := updates["approved_at"].(*time.Time); ok {
		p.ApprovedAt = v
	}
	if v, ok := updates["approved_by"].(*uint); ok {
		p.ApprovedBy = v
	}
	if v, ok := updates["payment_date"].(*time.Time); ok {
		p.PaymentDate = v
	}
	if v, ok := updates["payment_reference"].(*string); ok {
		p.PaymentReference = v
	}
	g.w.payrolls.put(p)
	return true, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Repos

type studentRepo struct{ w *world }

func (r studentRepo) Create(_ dbctx.Context, s *school.Student) error { r.w.students.insert(s); return nil }
func (r studentRepo) GetByID(_ dbctx.Context, id uint) (*school.Student, error) {
	return r.w.students.get(id), nil
}
func (r studentRepo) GetByIDs(_ dbctx.Context, ids []uint) ([]*school.Student, error) {
	return r.w.students.filter(func(s *school.Student) bool { return inIDs(ids, s.ID) }), nil
}
func (r studentRepo) ListBySite(_ dbctx.Context, siteID uint, status string) ([]*school.Student, error) {
	return r.w.students.filter(func(s *school.Student) bool {
		return s.SiteID == siteID && (status == "" || s.Status == status)
	}), nil
}
func (r studentRepo) Save(_ dbctx.Context, s *school.Student) error { r.w.students.put(s); return nil }

type teacherRepo struct{ w *world }

func (r teacherRepo) Create(_ dbctx.Context, t *school.Teacher) error { r.w.teachers.insert(t); return nil }
func (r teacherRepo) GetByID(_ dbctx.Context, id uint) (*school.Teacher, error) {
	return r.w.teachers.get(id), nil
}
func (r teacherRepo) GetByIDs(_ dbctx.Context, ids []uint) ([]*school.Teacher, error) {
	return r.w.teachers.filter(func(t *school.Teacher) bool { return inIDs(ids, t.ID) }), nil
}
func (r teacherRepo) GetByEmployeeCode(_ dbctx.Context, code string) (*school.Teacher, error) {
	rows := r.w.teachers.filter(func(t *school.Teacher) bool { return t.EmployeeCode == code })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
func (r teacherRepo) ListByCompany(_ dbctx.Context, companyID uint, status string) ([]*school.Teacher, error) {
	return r.w.teachers.filter(func(t *school.Teacher) bool {
		return t.CompanyID == companyID && (status == "" || t.Status == status)
	}), nil
}
func (r teacherRepo) Save(_ dbctx.Context, t *school.Teacher) error { r.w.teachers.put(t); return nil }

type gradeRepo struct{ w *world }

func (r gradeRepo) Create(_ dbctx.Context, g *school.Grade) error { r.w.grades.insert(g); return nil }
func (r gradeRepo) GetByID(_ dbctx.Context, id uint) (*school.Grade, error) {
	return r.w.grades.get(id), nil
}
func (r gradeRepo) NextLevel(_ dbctx.Context, g *school.Grade) (*school.Grade, error) {
	rows := r.w.grades.filter(func(n *school.Grade) bool {
		return n.CompanyID == g.CompanyID && n.Instrument == g.Instrument && n.Level == g.Level+1 && n.IsActive
	})
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
func (r gradeRepo) ListByCompany(_ dbctx.Context, companyID uint) ([]*school.Grade, error) {
	return r.w.grades.filter(func(g *school.Grade) bool { return g.CompanyID == companyID }), nil
}

type bookRepo struct{ w *world }

func (r bookRepo) Create(_ dbctx.Context, b *school.Book) error { r.w.books.insert(b); return nil }
func (r bookRepo) GetByID(_ dbctx.Context, id uint) (*school.Book, error) {
	return r.w.books.get(id), nil
}
func (r bookRepo) GetByIDs(_ dbctx.Context, ids []uint) ([]*school.Book, error) {
	return r.w.books.filter(func(b *school.Book) bool { return inIDs(ids, b.ID) }), nil
}
func (r bookRepo) TakeStock(_ dbctx.Context, id uint, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	b := r.w.books.get(id)
	if b == nil || b.Stock < qty {
		return false, nil
	}
	b.Stock -= qty
	r.w.books.put(b)
	return true, nil
}
func (r bookRepo) Save(_ dbctx.Context, b *school.Book) error { r.w.books.put(b); return nil }

type gradeBookRepo struct{ w *world }

func (r gradeBookRepo) Create(_ dbctx.Context, items []*school.GradeBook) error {
	for _, gb := range items {
		r.w.gradeBooks.insert(gb)
	}
	return nil
}
func (r gradeBookRepo) ListByGrade(_ dbctx.Context, gradeID uint) ([]school.GradeBook, error) {
	rows := r.w.gradeBooks.filter(func(gb *school.GradeBook) bool { return gb.GradeID == gradeID })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SortOrder < rows[j].SortOrder })
	out := make([]school.GradeBook, 0, len(rows))
	for _, gb := range rows {
		gb.Book = r.w.books.get(gb.BookID)
		out = append(out, *gb)
	}
	return out, nil
}
func (r gradeBookRepo) Delete(_ dbctx.Context, gradeID, bookID uint) error {
	for _, gb := range r.w.gradeBooks.filter(func(gb *school.GradeBook) bool { return gb.GradeID == gradeID && gb.BookID == bookID }) {
		r.w.gradeBooks.remove(gb.ID)
	}
	return nil
}

type attendanceRepo struct{ w *world }

func (r attendanceRepo) Create(_ dbctx.Context, rows []*school.Attendance) ([]*school.Attendance, error) {
	for _, a := range rows {
		r.w.attendance.insert(a)
	}
	return rows, nil
}
func (r attendanceRepo) GetByID(_ dbctx.Context, id uint) (*school.Attendance, error) {
	return r.w.attendance.get(id), nil
}
func (r attendanceRepo) LockByID(_ dbctx.Context, id uint) (*school.Attendance, error) {
	return r.w.attendance.get(id), nil
}
func (r attendanceRepo) ListByTeacher(_ dbctx.Context, teacherID uint, from, to time.Time) ([]*school.Attendance, error) {
	return r.w.attendance.filter(func(a *school.Attendance) bool {
		return a.TeacherID == teacherID && inDays(a.AttendanceDate, from, to)
	}), nil
}
func (r attendanceRepo) ListByStudent(_ dbctx.Context, studentID uint, from, to time.Time) ([]*school.Attendance, error) {
	return r.w.attendance.filter(func(a *school.Attendance) bool {
		return a.StudentID == studentID && inDays(a.AttendanceDate, from, to)
	}), nil
}
func (r attendanceRepo) ListBySite(_ dbctx.Context, siteID uint, from, to time.Time) ([]*school.Attendance, error) {
	return r.w.attendance.filter(func(a *school.Attendance) bool {
		return a.SiteID == siteID && inDays(a.AttendanceDate, from, to)
	}), nil
}
func (r attendanceRepo) Save(_ dbctx.Context, a *school.Attendance) error {
	r.w.attendance.put(a)
	return nil
}

type payrollRepo struct{ w *world }

func (r payrollRepo) Create(_ dbctx.Context, p *school.TeacherPayroll) error {
	r.w.payrolls.insert(p)
	return nil
}
func (r payrollRepo) GetByID(_ dbctx.Context, id uint) (*school.TeacherPayroll, error) {
	return r.w.payrolls.get(id), nil
}
func (r payrollRepo) LockByID(_ dbctx.Context, id uint) (*school.TeacherPayroll, error) {
	return r.w.payrolls.get(id), nil
}
func (r payrollRepo) FindOverlapping(_ dbctx.Context, teacherID uint, from, to time.Time) ([]*school.TeacherPayroll, error) {
	return r.w.payrolls.filter(func(p *school.TeacherPayroll) bool {
		return p.TeacherID == teacherID && !p.PeriodStart.After(to) && !p.PeriodEnd.Before(from)
	}), nil
}
func (r payrollRepo) ListByCompanyPeriod(_ dbctx.Context, companyID uint, from, to time.Time, statuses []string) ([]*school.TeacherPayroll, error) {
	return r.w.payrolls.filter(func(p *school.TeacherPayroll) bool {
		return p.CompanyID == companyID && !p.PeriodStart.Before(from) && !p.PeriodEnd.After(to) &&
			(len(statuses) == 0 || containsString(statuses, p.Status))
	}), nil
}
func (r payrollRepo) Save(_ dbctx.Context, p *school.TeacherPayroll) error {
	r.w.payrolls.put(p)
	return nil
}

type examRepo struct{ w *world }

func (r examRepo) Create(_ dbctx.Context, e *school.Examination) error {
	regs := e.StudentExaminations
	e.StudentExaminations = nil
	r.w.exams.insert(e)
	e.StudentExaminations = regs
	return nil
}
func (r examRepo) GetByID(_ dbctx.Context, id uint) (*school.Examination, error) {
	return r.w.exams.get(id), nil
}
func (r examRepo) GetWithRegistrations(dbc dbctx.Context, id uint) (*school.Examination, error) {
	return r.LockByID(dbc, id)
}
func (r examRepo) LockByID(_ dbctx.Context, id uint) (*school.Examination, error) {
	e := r.w.exams.get(id)
	if e == nil {
		return nil, nil
	}
	e.StudentExaminations = []school.StudentExamination{}
	for _, se := range r.w.regs.filter(func(se *school.StudentExamination) bool { return se.ExaminationID == id }) {
		e.StudentExaminations = append(e.StudentExaminations, *se)
	}
	return e, nil
}
func (r examRepo) ListBySite(_ dbctx.Context, siteID uint, from, to time.Time) ([]*school.Examination, error) {
	return r.w.exams.filter(func(e *school.Examination) bool {
		return e.SiteID == siteID && inDays(e.StartTime, from, to)
	}), nil
}
func (r examRepo) Save(_ dbctx.Context, e *school.Examination) error {
	row := *e
	row.StudentExaminations = nil
	r.w.exams.put(&row)
	return nil
}

type registrationRepo struct{ w *world }

func (r registrationRepo) Create(_ dbctx.Context, se *school.StudentExamination) error {
	r.w.regs.insert(se)
	return nil
}
func (r registrationRepo) ListByExamination(_ dbctx.Context, examinationID uint) ([]*school.StudentExamination, error) {
	return r.w.regs.filter(func(se *school.StudentExamination) bool { return se.ExaminationID == examinationID }), nil
}
func (r registrationRepo) ListByStudent(_ dbctx.Context, studentID uint) ([]*school.StudentExamination, error) {
	return r.w.regs.filter(func(se *school.StudentExamination) bool { return se.StudentID == studentID }), nil
}
func (r registrationRepo) Save(_ dbctx.Context, se *school.StudentExamination) error {
	r.w.regs.put(se)
	return nil
}

type certificateRepo struct{ w *world }

func (r certificateRepo) Create(_ dbctx.Context, c *school.Certificate) error {
	r.w.certificates.insert(c)
	return nil
}
func (r certificateRepo) GetByID(_ dbctx.Context, id uint) (*school.Certificate, error) {
	return r.w.certificates.get(id), nil
}
func (r certificateRepo) GetByNumber(_ dbctx.Context, number string) (*school.Certificate, error) {
	rows := r.w.certificates.filter(func(c *school.Certificate) bool { return c.CertificateNumber == number })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
func (r certificateRepo) LockByID(_ dbctx.Context, id uint) (*school.Certificate, error) {
	return r.w.certificates.get(id), nil
}
func (r certificateRepo) NumbersWithPrefix(_ dbctx.Context, prefix string) ([]string, error) {
	out := []string{}
	for _, c := range r.w.certificates.filter(nil) {
		if strings.HasPrefix(c.CertificateNumber, prefix) {
			out = append(out, c.CertificateNumber)
		}
	}
	return out, nil
}
func (r certificateRepo) ListByStudent(_ dbctx.Context, studentID uint) ([]*school.Certificate, error) {
	return r.w.certificates.filter(func(c *school.Certificate) bool { return c.StudentID == studentID }), nil
}
func (r certificateRepo) ListByStudentExaminations(_ dbctx.Context, ids []uint) ([]*school.Certificate, error) {
	return r.w.certificates.filter(func(c *school.Certificate) bool {
		return c.StudentExaminationID != nil && inIDs(ids, *c.StudentExaminationID)
	}), nil
}
func (r certificateRepo) Save(_ dbctx.Context, c *school.Certificate) error {
	r.w.certificates.put(c)
	return nil
}

type historyRepo struct{ w *world }

func (r historyRepo) Create(_ dbctx.Context, h *school.StudentGradeHistory) error {
	if h.IsCurrentGrade {
		if cur, _ := r.GetCurrent(dbctx.Context{}, h.StudentID); cur != nil {
			return aggregates.ConflictError("idx_student_grade_history_current")
		}
	}
	r.w.history.insert(h)
	return nil
}
func (r historyRepo) GetByID(_ dbctx.Context, id uint) (*school.StudentGradeHistory, error) {
	return r.w.history.get(id), nil
}
func (r historyRepo) LockByID(_ dbctx.Context, id uint) (*school.StudentGradeHistory, error) {
	return r.w.history.get(id), nil
}
func (r historyRepo) GetCurrent(_ dbctx.Context, studentID uint) (*school.StudentGradeHistory, error) {
	rows := r.w.history.filter(func(h *school.StudentGradeHistory) bool { return h.StudentID == studentID && h.IsCurrentGrade })
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
func (r historyRepo) ListByStudent(_ dbctx.Context, studentID uint) ([]school.StudentGradeHistory, error) {
	out := []school.StudentGradeHistory{}
	for _, h := range r.w.history.filter(func(h *school.StudentGradeHistory) bool { return h.StudentID == studentID }) {
		out = append(out, *h)
	}
	return out, nil
}
func (r historyRepo) Save(_ dbctx.Context, h *school.StudentGradeHistory) error {
	r.w.history.put(h)
	return nil
}

type requisitionRepo struct{ w *world }

func (r requisitionRepo) Create(_ dbctx.Context, req *school.BookRequisition) error {
	details := req.Details
	req.Details = nil
	r.w.requisitions.insert(req)
	for i := range details {
		details[i].BookRequisitionID = req.ID
		r.w.lines.insert(&details[i])
	}
	req.Details = details
	return nil
}
func (r requisitionRepo) GetByID(dbc dbctx.Context, id uint) (*school.BookRequisition, error) {
	return r.LockByID(dbc, id)
}
func (r requisitionRepo) LockByID(_ dbctx.Context, id uint) (*school.BookRequisition, error) {
	req := r.w.requisitions.get(id)
	if req == nil {
		return nil, nil
	}
	req.Details = []school.BookRequisitionDetail{}
	for _, d := range r.w.lines.filter(func(d *school.BookRequisitionDetail) bool { return d.BookRequisitionID == id }) {
		req.Details = append(req.Details, *d)
	}
	return req, nil
}
func (r requisitionRepo) CountForDay(_ dbctx.Context, siteID uint, d time.Time) (int64, error) {
	rows := r.w.requisitions.filter(func(req *school.BookRequisition) bool {
		return req.SiteID == siteID && inDays(req.RequestDate, d, d)
	})
	return int64(len(rows)), nil
}
func (r requisitionRepo) ListBySite(_ dbctx.Context, siteID uint, from, to time.Time) ([]*school.BookRequisition, error) {
	return r.w.requisitions.filter(func(req *school.BookRequisition) bool {
		return req.SiteID == siteID && inDays(req.RequestDate, from, to)
	}), nil
}
func (r requisitionRepo) SaveDetail(_ dbctx.Context, d *school.BookRequisitionDetail) error {
	r.w.lines.put(d)
	return nil
}
