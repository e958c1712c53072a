package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type GradeHistoryHandler struct {
	history services.GradeHistoryService
}

func NewGradeHistoryHandler(history services.GradeHistoryService) *GradeHistoryHandler {
	return &GradeHistoryHandler{history: history}
}

type enrollRequest struct {
	GradeID   uint `json:"grade_id"`
	StartDate Date `json:"start_date"`
}

// POST /api/students/:id/enrol
func (h *GradeHistoryHandler) Enroll(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req enrollRequest
	if !bindBody(c, &req) {
		return
	}
	row, err := h.history.Enroll(c.Request.Context(), domainagg.EnrollGradeInput{
		Actor:     actorFrom(c),
		StudentID: studentID,
		GradeID:   req.GradeID,
		StartDate: req.StartDate.Time,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"grade_history": row})
}

type progressRequest struct {
	Action     string  `json:"action"`
	Completion float64 `json:"completion"`
	Reason     string  `json:"reason"`
}

// POST /api/grade-history/:id/progress
func (h *GradeHistoryHandler) UpdateProgress(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !bindBody(c, &req) {
		return
	}
	row, err := h.history.UpdateProgress(c.Request.Context(), domainagg.UpdateGradeProgressInput{
		Actor:      actorFrom(c),
		HistoryID:  id,
		Action:     req.Action,
		Completion: req.Completion,
		Reason:     req.Reason,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grade_history": row})
}

type promoteRequest struct {
	NextGradeID uint `json:"next_grade_id"`
	StartDate   Date `json:"start_date"`
}

// POST /api/students/:id/promote
func (h *GradeHistoryHandler) Promote(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req promoteRequest
	if !bindBody(c, &req) {
		return
	}
	res, err := h.history.Promote(c.Request.Context(), domainagg.PromoteStudentInput{
		Actor:       actorFrom(c),
		StudentID:   studentID,
		NextGradeID: req.NextGradeID,
		StartDate:   req.StartDate.Time,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"closed": res.Closed, "current": res.Current})
}

// GET /api/students/:id/grade
func (h *GradeHistoryHandler) Current(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	row, err := h.history.Current(c.Request.Context(), studentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grade_history": row})
}

// GET /api/students/:id/timeline?today=
func (h *GradeHistoryHandler) Timeline(c *gin.Context) {
	studentID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	today, err := parseDate(c.Query("today"))
	if err != nil {
		badRequest(c, "invalid_today", err)
		return
	}
	if today.IsZero() {
		today = time.Now().UTC()
	}
	tl, err := h.history.Timeline(c.Request.Context(), studentID, today)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"timeline": tl})
}
