package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

const reportConcurrency = 4

type ReportService interface {
	SiteAttendance(ctx context.Context, siteID uint, from, to time.Time) (school.AttendanceSummary, error)
	StudentAttendance(ctx context.Context, studentID uint, from, to time.Time) (school.AttendanceSummary, error)
	// TeacherUtilization covers every non-terminated teacher of the company.
	TeacherUtilization(ctx context.Context, companyID uint, from, to time.Time) ([]school.Utilization, error)
	PayrollSummary(ctx context.Context, companyID uint, from, to time.Time, statuses []string) (school.PayrollSummary, error)
	ExamResults(ctx context.Context, examinationID uint) (ExamReport, error)
	// CompanyOverview loads payroll, utilization and per-site attendance in
	// parallel.
	CompanyOverview(ctx context.Context, companyID uint, from, to time.Time) (CompanyOverview, error)
}

type ExamReport struct {
	ExaminationID uint                     `json:"examination_id"`
	Title         string                   `json:"title"`
	Status        string                   `json:"status"`
	MaxScore      float64                  `json:"max_score"`
	Summary       school.ExamResultSummary `json:"summary"`
}

type SiteAttendance struct {
	SiteID  uint                     `json:"site_id"`
	Name    string                   `json:"name"`
	Summary school.AttendanceSummary `json:"summary"`
}

type CompanyOverview struct {
	CompanyID   uint                  `json:"company_id"`
	From        time.Time             `json:"from"`
	To          time.Time             `json:"to"`
	Payroll     school.PayrollSummary `json:"payroll"`
	Utilization []school.Utilization  `json:"utilization"`
	Sites       []SiteAttendance      `json:"sites"`
}

type ReportServiceDeps struct {
	Log          *logger.Logger
	Sites        repos.SiteRepo
	Teachers     repos.TeacherRepo
	Attendance   repos.AttendanceRepo
	Payrolls     repos.TeacherPayrollRepo
	Examinations repos.ExaminationRepo

	Bands school.UtilizationBands
	Scale []school.GradeBand
}

type reportService struct {
	log  *logger.Logger
	deps ReportServiceDeps
}

func NewReportService(deps ReportServiceDeps) ReportService {
	if deps.Bands == (school.UtilizationBands{}) {
		deps.Bands = school.DefaultUtilizationBands
	}
	if len(deps.Scale) == 0 {
		deps.Scale = school.DefaultGradingScale
	}
	return &reportService{log: deps.Log.With("service", "ReportService"), deps: deps}
}

func (s *reportService) SiteAttendance(ctx context.Context, siteID uint, from, to time.Time) (school.AttendanceSummary, error) {
	const op = "School.Report.SiteAttendance"
	if siteID == 0 {
		return school.AttendanceSummary{}, missingID(op, "site_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return school.AttendanceSummary{}, err
	}
	rows, err := s.deps.Attendance.ListBySite(readCtx(ctx), siteID, from, to)
	if err != nil {
		return school.AttendanceSummary{}, readErr(op, err)
	}
	return school.SummarizeAttendance(values(rows)), nil
}

func (s *reportService) StudentAttendance(ctx context.Context, studentID uint, from, to time.Time) (school.AttendanceSummary, error) {
	const op = "School.Report.StudentAttendance"
	if studentID == 0 {
		return school.AttendanceSummary{}, missingID(op, "student_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return school.AttendanceSummary{}, err
	}
	rows, err := s.deps.Attendance.ListByStudent(readCtx(ctx), studentID, from, to)
	if err != nil {
		return school.AttendanceSummary{}, readErr(op, err)
	}
	return school.SummarizeAttendance(values(rows)), nil
}

func (s *reportService) TeacherUtilization(ctx context.Context, companyID uint, from, to time.Time) ([]school.Utilization, error) {
	const op = "School.Report.TeacherUtilization"
	if companyID == 0 {
		return nil, missingID(op, "company_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	teachers, err := s.deps.Teachers.ListByCompany(readCtx(ctx), companyID, "")
	if err != nil {
		return nil, readErr(op, err)
	}
	active := teachers[:0:0]
	for _, t := range teachers {
		if t.Status != school.TeacherStatusTerminated {
			active = append(active, t)
		}
	}

	out := make([]school.Utilization, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, t := range active {
		i, t := i, t
		g.Go(func() error {
			rows, err := s.deps.Attendance.ListByTeacher(readCtx(gctx), t.ID, from, to)
			if err != nil {
				return err
			}
			out[i] = school.TeacherUtilization(*t, values(rows), from, to, s.deps.Bands)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func (s *reportService) PayrollSummary(ctx context.Context, companyID uint, from, to time.Time, statuses []string) (school.PayrollSummary, error) {
	const op = "School.Report.PayrollSummary"
	if companyID == 0 {
		return school.PayrollSummary{}, missingID(op, "company_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return school.PayrollSummary{}, err
	}
	rows, err := s.deps.Payrolls.ListByCompanyPeriod(readCtx(ctx), companyID, from, to, statuses)
	if err != nil {
		return school.PayrollSummary{}, readErr(op, err)
	}
	return school.SummarizePayrolls(values(rows)), nil
}

func (s *reportService) ExamResults(ctx context.Context, examinationID uint) (ExamReport, error) {
	const op = "School.Report.ExamResults"
	e, err := s.deps.Examinations.GetWithRegistrations(readCtx(ctx), examinationID)
	if err != nil {
		return ExamReport{}, readErr(op, err)
	}
	if e == nil {
		return ExamReport{}, notFound(op, "examination", examinationID)
	}
	return ExamReport{
		ExaminationID: e.ID,
		Title:         e.Title,
		Status:        e.Status,
		MaxScore:      e.MaxScore,
		Summary:       school.SummarizeExamResults(e.StudentExaminations, e.MaxScore, s.deps.Scale),
	}, nil
}

func (s *reportService) CompanyOverview(ctx context.Context, companyID uint, from, to time.Time) (CompanyOverview, error) {
	const op = "School.Report.CompanyOverview"
	out := CompanyOverview{CompanyID: companyID, From: rules.DateOnly(from), To: rules.DateOnly(to)}
	if companyID == 0 {
		return out, missingID(op, "company_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return out, err
	}
	sites, err := s.deps.Sites.ListByCompany(readCtx(ctx), companyID)
	if err != nil {
		return out, readErr(op, err)
	}
	out.Sites = make([]SiteAttendance, len(sites))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	g.Go(func() error {
		var err error
		out.Payroll, err = s.PayrollSummary(gctx, companyID, from, to, nil)
		return err
	})
	g.Go(func() error {
		var err error
		out.Utilization, err = s.TeacherUtilization(gctx, companyID, from, to)
		return err
	})
	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			summary, err := s.SiteAttendance(gctx, site.ID, from, to)
			if err != nil {
				return err
			}
			out.Sites[i] = SiteAttendance{SiteID: site.ID, Name: site.Name, Summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, readErr(op, err)
	}
	s.log.Debug("company overview built", "company_id", companyID, "sites", len(sites), "duration", time.Since(start))
	return out, nil
}
