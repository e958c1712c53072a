package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cadenza-backend/internal/data/aggregates"
	"github.com/yungbote/cadenza-backend/internal/data/repos"
	"github.com/yungbote/cadenza-backend/internal/observability"
	"github.com/yungbote/cadenza-backend/internal/platform/gcp"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type Services struct {
	Attendance   services.AttendanceService
	Payroll      services.PayrollService
	Examination  services.ExaminationService
	Certificate  services.CertificateService
	GradeHistory services.GradeHistoryService
	Requisition  services.RequisitionService
	Report       services.ReportService
	Audit        services.AuditService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	hooks := aggregates.NewLogHooks(log, cfg.SlowWrite)
	if metrics != nil {
		hooks = aggregates.JoinHooks(hooks, metrics)
	}
	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(db, aggregates.TxOptions{LockTimeout: cfg.LockTimeout}),
		Hooks:  hooks,
		Guard:  aggregates.NewStatusGuard(db),
		Audit:  reposet.AuditLogs,
	}
	pol := cfg.Policy

	attendanceAgg := aggregates.NewAttendanceAggregate(aggregates.AttendanceAggregateDeps{
		Base:       base,
		Attendance: reposet.Attendance,
		Students:   reposet.Students,
		Teachers:   reposet.Teachers,
	})
	payrollAgg := aggregates.NewPayrollAggregate(aggregates.PayrollAggregateDeps{
		Base:           base,
		Payrolls:       reposet.Payrolls,
		Teachers:       reposet.Teachers,
		Attendance:     reposet.Attendance,
		DefaultTaxRate: pol.Payroll.TaxRate(),
	})
	examAgg := aggregates.NewExaminationAggregate(aggregates.ExaminationAggregateDeps{
		Base:          base,
		Examinations:  reposet.Examinations,
		Registrations: reposet.StudentExaminations,
		Students:      reposet.Students,
		Grades:        reposet.Grades,
	})
	certificateAgg := aggregates.NewCertificateAggregate(aggregates.CertificateAggregateDeps{
		Base:         base,
		Certificates: reposet.Certificates,
		Examinations: reposet.Examinations,
		Prefix:       pol.Certificate.Prefix,
	})
	historyAgg := aggregates.NewGradeHistoryAggregate(aggregates.GradeHistoryAggregateDeps{
		Base:     base,
		History:  reposet.GradeHistory,
		Students: reposet.Students,
		Grades:   reposet.Grades,
	})
	requisitionAgg := aggregates.NewRequisitionAggregate(aggregates.RequisitionAggregateDeps{
		Base:         base,
		Requisitions: reposet.Requisitions,
		Books:        reposet.Books,
		Grades:       reposet.Grades,
		GradeBooks:   reposet.GradeBooks,
		Prefix:       pol.Requisition.Prefix,
	})

	publisher := services.NewTrailPublisher(log, clients.AuditBus)

	renderer, err := services.NewCertificateRenderer(log, cfg.CertificateFont, pol.Certificate.FontSize)
	if err != nil {
		return Services{}, fmt.Errorf("init certificate renderer: %w", err)
	}

	return Services{
		Attendance:  services.NewAttendanceService(log, attendanceAgg, reposet.Attendance, publisher),
		Payroll:     services.NewPayrollService(log, payrollAgg, reposet.Payrolls, reposet.Attendance, publisher),
		Examination: services.NewExaminationService(log, examAgg, reposet.Examinations, reposet.StudentExaminations, publisher),
		Certificate: services.NewCertificateService(services.CertificateServiceDeps{
			Log:          log,
			Aggregate:    certificateAgg,
			Certificates: reposet.Certificates,
			Students:     reposet.Students,
			Grades:       reposet.Grades,
			Companies:    reposet.Companies,
			Renderer:     renderer,
			Archive:      archiveOrNil(clients.CertificateArchive),
			Publisher:    publisher,
		}),
		GradeHistory: services.NewGradeHistoryService(log, historyAgg, reposet.GradeHistory, publisher),
		Requisition:  services.NewRequisitionService(log, requisitionAgg, reposet.Requisitions, reposet.GradeBooks, publisher),
		Report: services.NewReportService(services.ReportServiceDeps{
			Log:          log,
			Sites:        reposet.Sites,
			Teachers:     reposet.Teachers,
			Attendance:   reposet.Attendance,
			Payrolls:     reposet.Payrolls,
			Examinations: reposet.Examinations,
			Bands:        pol.Utilization,
			Scale:        pol.Grading.Scale,
		}),
		Audit: services.NewAuditService(log, reposet.AuditLogs),
	}, nil
}

func archiveOrNil(b gcp.BucketService) services.CertificateArchive {
	if b == nil {
		return nil
	}
	return b
}
