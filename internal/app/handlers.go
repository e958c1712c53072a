package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/yungbote/cadenza-backend/internal/http/handlers"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Attendance   *httpH.AttendanceHandler
	Payroll      *httpH.PayrollHandler
	Examination  *httpH.ExaminationHandler
	Certificate  *httpH.CertificateHandler
	GradeHistory *httpH.GradeHistoryHandler
	Requisition  *httpH.RequisitionHandler
	Report       *httpH.ReportHandler
	Audit        *httpH.AuditHandler
}

func wireHandlers(db *gorm.DB, svcs Services) Handlers {
	return Handlers{
		Health:       httpH.NewHealthHandler(pingDB(db)),
		Attendance:   httpH.NewAttendanceHandler(svcs.Attendance),
		Payroll:      httpH.NewPayrollHandler(svcs.Payroll),
		Examination:  httpH.NewExaminationHandler(svcs.Examination, svcs.Certificate),
		Certificate:  httpH.NewCertificateHandler(svcs.Certificate),
		GradeHistory: httpH.NewGradeHistoryHandler(svcs.GradeHistory),
		Requisition:  httpH.NewRequisitionHandler(svcs.Requisition),
		Report:       httpH.NewReportHandler(svcs.Report),
		Audit:        httpH.NewAuditHandler(svcs.Audit),
	}
}

func pingDB(db *gorm.DB) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
