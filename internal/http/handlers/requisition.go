package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type RequisitionHandler struct {
	requisitions services.RequisitionService
}

func NewRequisitionHandler(requisitions services.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{requisitions: requisitions}
}

// POST /api/requisitions
func (h *RequisitionHandler) Submit(c *gin.Context) {
	var req types.BookRequisition
	if !bindBody(c, &req) {
		return
	}
	out, err := h.requisitions.Submit(c.Request.Context(), domainagg.SubmitRequisitionInput{
		Actor:       actorFrom(c),
		Requisition: &req,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"requisition": out, "status": out.Status()})
}

type draftRequisitionRequest struct {
	CompanyID     uint `json:"company_id"`
	SiteID        uint `json:"site_id"`
	GradeID       uint `json:"grade_id"`
	Quantity      int  `json:"quantity"`
	MandatoryOnly bool `json:"mandatory_only"`
}

// POST /api/requisition-drafts
func (h *RequisitionHandler) Draft(c *gin.Context) {
	var req draftRequisitionRequest
	if !bindBody(c, &req) {
		return
	}
	out, err := h.requisitions.DraftForGrade(c.Request.Context(), services.DraftForGradeInput{
		CompanyID:     req.CompanyID,
		SiteID:        req.SiteID,
		GradeID:       req.GradeID,
		Quantity:      req.Quantity,
		MandatoryOnly: req.MandatoryOnly,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requisition": out})
}

// GET /api/requisitions/:id
func (h *RequisitionHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.requisitions.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requisition": out, "status": out.Status()})
}

// GET /api/requisitions/:id/summary
func (h *RequisitionHandler) Summary(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	sum, err := h.requisitions.Summary(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": sum})
}

// GET /api/sites/:id/requisitions?from=&to=
func (h *RequisitionHandler) ListBySite(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.requisitions.ListBySite(c.Request.Context(), id, from, to)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requisitions": rows})
}

type lineQuantitiesRequest struct {
	// Quantities by requisition line id.
	Quantities map[uint]int `json:"quantities"`
}

// POST /api/requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	h.quantities(c, h.requisitions.Approve)
}

// POST /api/requisitions/:id/fulfil
func (h *RequisitionHandler) Fulfil(c *gin.Context) {
	h.quantities(c, h.requisitions.Fulfil)
}

func (h *RequisitionHandler) quantities(c *gin.Context, fn func(context.Context, domainagg.LineQuantitiesInput) (*types.BookRequisition, error)) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req lineQuantitiesRequest
	if !bindBody(c, &req) {
		return
	}
	out, err := fn(c.Request.Context(), domainagg.LineQuantitiesInput{
		Actor:         actorFrom(c),
		RequisitionID: id,
		Quantities:    req.Quantities,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"requisition": out, "status": out.Status()})
}

// GET /api/grades/:id/books
func (h *RequisitionHandler) ReadingList(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.requisitions.ReadingList(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"books": rows})
}

type readingListRequest struct {
	Books []readingListEntry `json:"books"`
}

type readingListEntry struct {
	BookID      uint `json:"book_id"`
	IsMandatory bool `json:"is_mandatory"`
	SortOrder   int  `json:"sort_order"`
}

// PUT /api/grades/:id/books
func (h *RequisitionHandler) SetReadingList(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req readingListRequest
	if !bindBody(c, &req) {
		return
	}
	books := make([]types.GradeBook, 0, len(req.Books))
	for _, e := range req.Books {
		books = append(books, types.GradeBook{BookID: e.BookID, IsMandatory: e.IsMandatory, SortOrder: e.SortOrder})
	}
	rows, err := h.requisitions.SetReadingList(c.Request.Context(), domainagg.SetReadingListInput{
		Actor:   actorFrom(c),
		GradeID: id,
		Books:   books,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"books": rows})
}
