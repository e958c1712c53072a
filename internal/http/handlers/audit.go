package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit/records/:entity/:id
func (h *AuditHandler) RecordHistory(c *gin.Context) {
	logs, err := h.audit.RecordHistory(c.Request.Context(), c.Param("entity"), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": logs})
}

// GET /api/audit/change-sets/:id
func (h *AuditHandler) ChangeSet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid_change_set_id", err)
		return
	}
	logs, err := h.audit.ChangeSet(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": logs})
}

// GET /api/audit/summary?from=&to=&limit=
func (h *AuditHandler) Summary(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	sum, err := h.audit.Summarize(c.Request.Context(), from, to, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}
