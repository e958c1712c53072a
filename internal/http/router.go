package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cadenza-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cadenza-backend/internal/http/middleware"
	"github.com/yungbote/cadenza-backend/internal/observability"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	Metrics      *observability.Metrics
	ServiceName  string
	AllowOrigins []string
	ActorSecret  string

	// ExposeMetrics mounts GET /metrics on the API router.
	ExposeMetrics bool

	HealthHandler       *httpH.HealthHandler
	AttendanceHandler   *httpH.AttendanceHandler
	PayrollHandler      *httpH.PayrollHandler
	ExaminationHandler  *httpH.ExaminationHandler
	CertificateHandler  *httpH.CertificateHandler
	GradeHistoryHandler *httpH.GradeHistoryHandler
	RequisitionHandler  *httpH.RequisitionHandler
	ReportHandler       *httpH.ReportHandler
	AuditHandler        *httpH.AuditHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = observability.DefaultServiceName
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.ExposeMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	api.Use(httpMW.AttachActor(cfg.ActorSecret))
	{
		// Attendance
		if h := cfg.AttendanceHandler; h != nil {
			api.POST("/attendance", h.Record)
			api.GET("/attendance/:id", h.Get)
			api.POST("/attendance/:id/mark", h.Mark)
			api.GET("/students/:id/attendance", h.ListByStudent)
			api.GET("/teachers/:id/attendance", h.ListByTeacher)
		}

		// Payroll
		if h := cfg.PayrollHandler; h != nil {
			api.POST("/payrolls", h.Generate)
			api.GET("/payrolls", h.List)
			api.GET("/payrolls/:id", h.Get)
			api.POST("/payrolls/:id/adjust", h.Adjust)
			api.POST("/payrolls/:id/recalculate", h.Recalculate)
			api.POST("/payrolls/:id/approve", h.Approve)
			api.POST("/payrolls/:id/pay", h.MarkPaid)
			api.POST("/payrolls/:id/revert", h.RevertToDraft)
			api.POST("/companies/:id/payrolls/recalculate", h.RecalculatePeriod)
		}

		// Examinations
		if h := cfg.ExaminationHandler; h != nil {
			api.POST("/examinations", h.Schedule)
			api.GET("/examinations/:id", h.Get)
			api.POST("/examinations/:id/registrations", h.Register)
			api.POST("/examinations/:id/status", h.ChangeStatus)
			api.POST("/examinations/:id/results", h.RecordResults)
			api.POST("/examinations/:id/certificates", h.IssueCertificates)
			api.GET("/sites/:id/examinations", h.ListBySite)
			api.GET("/students/:id/examinations", h.ListByStudent)
		}

		// Certificates
		if h := cfg.CertificateHandler; h != nil {
			api.GET("/certificates/:id", h.Get)
			api.GET("/certificates/:id/image.png", h.Image)
			api.POST("/certificates/:id/archive", h.Archive)
			api.POST("/certificates/:id/revoke", h.Revoke)
			api.POST("/certificates/:id/replace", h.Replace)
			api.GET("/certificate-numbers/:number", h.GetByNumber)
			api.GET("/students/:id/certificates", h.ListByStudent)
		}

		// Grade history
		if h := cfg.GradeHistoryHandler; h != nil {
			api.POST("/students/:id/enrol", h.Enroll)
			api.POST("/students/:id/promote", h.Promote)
			api.GET("/students/:id/grade", h.Current)
			api.GET("/students/:id/timeline", h.Timeline)
			api.POST("/grade-history/:id/progress", h.UpdateProgress)
		}

		// Book requisitions
		if h := cfg.RequisitionHandler; h != nil {
			api.POST("/requisitions", h.Submit)
			api.GET("/requisitions/:id", h.Get)
			api.GET("/requisitions/:id/summary", h.Summary)
			api.POST("/requisitions/:id/approve", h.Approve)
			api.POST("/requisitions/:id/fulfil", h.Fulfil)
			api.POST("/requisition-drafts", h.Draft)
			api.GET("/sites/:id/requisitions", h.ListBySite)
			api.GET("/grades/:id/books", h.ReadingList)
			api.PUT("/grades/:id/books", h.SetReadingList)
		}

		// Reports
		if h := cfg.ReportHandler; h != nil {
			api.GET("/reports/sites/:id/attendance", h.SiteAttendance)
			api.GET("/reports/students/:id/attendance", h.StudentAttendance)
			api.GET("/reports/companies/:id/utilization", h.TeacherUtilization)
			api.GET("/reports/companies/:id/payroll", h.PayrollSummary)
			api.GET("/reports/companies/:id/overview", h.CompanyOverview)
			api.GET("/reports/examinations/:id", h.ExamResults)
		}

		// Audit
		if h := cfg.AuditHandler; h != nil {
			api.GET("/audit/records/:entity/:id", h.RecordHistory)
			api.GET("/audit/change-sets/:id", h.ChangeSet)
			api.GET("/audit/summary", h.Summary)
		}
	}

	return r
}
