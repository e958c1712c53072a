package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GET /api/reports/sites/:id/attendance?from=&to=
func (h *ReportHandler) SiteAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	sum, err := h.reports.SiteAttendance(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// GET /api/reports/students/:id/attendance?from=&to=
func (h *ReportHandler) StudentAttendance(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	sum, err := h.reports.StudentAttendance(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// GET /api/reports/companies/:id/utilization?from=&to=
func (h *ReportHandler) TeacherUtilization(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.TeacherUtilization(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"teachers": rows})
}

// GET /api/reports/companies/:id/payroll?from=&to=&status=
func (h *ReportHandler) PayrollSummary(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	sum, err := h.reports.PayrollSummary(c.Request.Context(), id, from, to, listQuery(c, "status"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// GET /api/reports/companies/:id/overview?from=&to=
func (h *ReportHandler) CompanyOverview(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	out, err := h.reports.CompanyOverview(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"overview": out})
}

// GET /api/reports/examinations/:id
func (h *ReportHandler) ExamResults(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.reports.ExamResults(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": out})
}
