package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type PayrollHandler struct {
	payrolls services.PayrollService
}

func NewPayrollHandler(payrolls services.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrolls: payrolls}
}

type generatePayrollRequest struct {
	TeacherID   uint             `json:"teacher_id"`
	PeriodStart Date             `json:"period_start"`
	PeriodEnd   Date             `json:"period_end"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Notes       string           `json:"notes"`
}

// POST /api/payrolls
func (h *PayrollHandler) Generate(c *gin.Context) {
	var req generatePayrollRequest
	if !bindBody(c, &req) {
		return
	}
	p, err := h.payrolls.Generate(c.Request.Context(), domainagg.GeneratePayrollInput{
		Actor:       actorFrom(c),
		TeacherID:   req.TeacherID,
		PeriodStart: req.PeriodStart.Time,
		PeriodEnd:   req.PeriodEnd.Time,
		TaxRate:     req.TaxRate,
		Notes:       req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"payroll": p})
}

// GET /api/payrolls?company_id=&from=&to=&status=Draft,Approved
func (h *PayrollHandler) List(c *gin.Context) {
	companyID, ok := uintQuery(c, "company_id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.payrolls.ListForPeriod(c.Request.Context(), companyID, from, to, listQuery(c, "status"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payrolls": rows})
}

// GET /api/payrolls/:id
func (h *PayrollHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	p, err := h.payrolls.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payroll": p})
}

type adjustPayrollRequest struct {
	Allowance decimal.Decimal `json:"allowance"`
	Deduction decimal.Decimal `json:"deduction"`
	Note      string          `json:"note"`
}

// POST /api/payrolls/:id/adjust
func (h *PayrollHandler) Adjust(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req adjustPayrollRequest
	if !bindBody(c, &req) {
		return
	}
	p, err := h.payrolls.Adjust(c.Request.Context(), domainagg.AdjustPayrollInput{
		Actor:      actorFrom(c),
		PayrollID:  id,
		Allowance:  req.Allowance,
		Deduction:  req.Deduction,
		AdjustNote: req.Note,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payroll": p})
}

// POST /api/payrolls/:id/recalculate
func (h *PayrollHandler) Recalculate(c *gin.Context) {
	h.transition(c, h.payrolls.Recalculate)
}

// POST /api/payrolls/:id/approve
func (h *PayrollHandler) Approve(c *gin.Context) {
	h.transition(c, h.payrolls.Approve)
}

// POST /api/payrolls/:id/revert
func (h *PayrollHandler) RevertToDraft(c *gin.Context) {
	h.transition(c, h.payrolls.RevertToDraft)
}

type markPaidRequest struct {
	PaymentDate Date   `json:"payment_date"`
	Reference   string `json:"reference"`
}

// POST /api/payrolls/:id/pay
func (h *PayrollHandler) MarkPaid(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req markPaidRequest
	if !bindBody(c, &req) {
		return
	}
	p, err := h.payrolls.MarkPaid(c.Request.Context(), domainagg.MarkPayrollPaidInput{
		Actor:       actorFrom(c),
		PayrollID:   id,
		PaymentDate: req.PaymentDate.Time,
		Reference:   req.Reference,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payroll": p})
}

type recalculatePeriodRequest struct {
	From   Date `json:"from"`
	To     Date `json:"to"`
	DryRun bool `json:"dry_run"`
}

// POST /api/companies/:id/payrolls/recalculate
func (h *PayrollHandler) RecalculatePeriod(c *gin.Context) {
	companyID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req recalculatePeriodRequest
	if !bindBody(c, &req) {
		return
	}
	res, err := h.payrolls.RecalculatePeriod(c.Request.Context(), services.RecalculatePeriodInput{
		Actor:     actorFrom(c),
		CompanyID: companyID,
		From:      req.From.Time,
		To:        req.To.Time,
		DryRun:    req.DryRun,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

func (h *PayrollHandler) transition(c *gin.Context, fn func(context.Context, domainagg.PayrollRefInput) (*types.TeacherPayroll, error)) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	p, err := fn(c.Request.Context(), domainagg.PayrollRefInput{Actor: actorFrom(c), PayrollID: id})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"payroll": p})
}
