package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type AttendanceHandler struct {
	attendance services.AttendanceService
}

func NewAttendanceHandler(attendance services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type recordAttendanceRequest struct {
	Lessons []*types.Attendance `json:"lessons"`
}

// POST /api/attendance
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req recordAttendanceRequest
	if !bindBody(c, &req) {
		return
	}
	lessons, err := h.attendance.Record(c.Request.Context(), domainagg.RecordAttendanceInput{
		Actor:   actorFrom(c),
		Lessons: req.Lessons,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lessons": lessons})
}

type markAttendanceRequest struct {
	Status      string    `json:"status"`
	ActualStart time.Time `json:"actual_start"`
	ActualEnd   time.Time `json:"actual_end"`
	Reason      string    `json:"reason"`
}

// POST /api/attendance/:id/mark
func (h *AttendanceHandler) Mark(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req markAttendanceRequest
	if !bindBody(c, &req) {
		return
	}
	lesson, err := h.attendance.Mark(c.Request.Context(), domainagg.MarkAttendanceInput{
		Actor:        actorFrom(c),
		AttendanceID: id,
		Status:       req.Status,
		ActualStart:  req.ActualStart,
		ActualEnd:    req.ActualEnd,
		Reason:       req.Reason,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// GET /api/attendance/:id
func (h *AttendanceHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	lesson, err := h.attendance.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// GET /api/students/:id/attendance?from=&to=
func (h *AttendanceHandler) ListByStudent(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	lessons, err := h.attendance.ListByStudent(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// GET /api/teachers/:id/attendance?from=&to=
func (h *AttendanceHandler) ListByTeacher(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	lessons, err := h.attendance.ListByTeacher(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}
