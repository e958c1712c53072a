package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type ExaminationHandler struct {
	exams        services.ExaminationService
	certificates services.CertificateService
}

func NewExaminationHandler(exams services.ExaminationService, certificates services.CertificateService) *ExaminationHandler {
	return &ExaminationHandler{exams: exams, certificates: certificates}
}

// POST /api/examinations
func (h *ExaminationHandler) Schedule(c *gin.Context) {
	var exam types.Examination
	if !bindBody(c, &exam) {
		return
	}
	out, err := h.exams.Schedule(c.Request.Context(), domainagg.ScheduleExaminationInput{
		Actor:       actorFrom(c),
		Examination: &exam,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"examination": out})
}

// GET /api/examinations/:id
func (h *ExaminationHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	exam, err := h.exams.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"examination": exam})
}

// GET /api/sites/:id/examinations?from=&to=
func (h *ExaminationHandler) ListBySite(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	exams, err := h.exams.ListBySite(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"examinations": exams})
}

// GET /api/students/:id/examinations
func (h *ExaminationHandler) ListByStudent(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	regs, err := h.exams.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"registrations": regs})
}

type registerStudentRequest struct {
	StudentID uint `json:"student_id"`
}

// POST /api/examinations/:id/registrations
func (h *ExaminationHandler) Register(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req registerStudentRequest
	if !bindBody(c, &req) {
		return
	}
	reg, err := h.exams.Register(c.Request.Context(), domainagg.RegisterStudentInput{
		Actor:         actorFrom(c),
		ExaminationID: id,
		StudentID:     req.StudentID,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"registration": reg})
}

type changeExamStatusRequest struct {
	Action    string    `json:"action"`
	Reason    string    `json:"reason"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// POST /api/examinations/:id/status
func (h *ExaminationHandler) ChangeStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req changeExamStatusRequest
	if !bindBody(c, &req) {
		return
	}
	exam, err := h.exams.ChangeStatus(c.Request.Context(), domainagg.ChangeExaminationStatusInput{
		Actor:         actorFrom(c),
		ExaminationID: id,
		Action:        req.Action,
		Reason:        req.Reason,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"examination": exam})
}

type recordResultsRequest struct {
	// Scores by student id; null marks the student absent.
	Scores   map[uint]*float64 `json:"scores"`
	Complete bool              `json:"complete"`
}

// POST /api/examinations/:id/results
func (h *ExaminationHandler) RecordResults(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req recordResultsRequest
	if !bindBody(c, &req) {
		return
	}
	exam, err := h.exams.RecordResults(c.Request.Context(), domainagg.RecordResultsInput{
		Actor:         actorFrom(c),
		ExaminationID: id,
		Scores:        req.Scores,
		Complete:      req.Complete,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"examination": exam})
}

type issueCertificatesRequest struct {
	Prefix string `json:"prefix"`
}

// POST /api/examinations/:id/certificates
func (h *ExaminationHandler) IssueCertificates(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req issueCertificatesRequest
	if !bindOptionalBody(c, &req) {
		return
	}
	certs, err := h.certificates.IssueForExamination(c.Request.Context(), domainagg.IssueCertificatesInput{
		Actor:         actorFrom(c),
		ExaminationID: id,
		Prefix:        req.Prefix,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"certificates": certs})
}
