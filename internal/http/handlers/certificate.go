package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/response"
	"github.com/yungbote/cadenza-backend/internal/services"
)

type CertificateHandler struct {
	certificates services.CertificateService
}

func NewCertificateHandler(certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// GET /api/certificates/:id
func (h *CertificateHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	cert, err := h.certificates.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificate": cert})
}

// GET /api/certificate-numbers/:number
func (h *CertificateHandler) GetByNumber(c *gin.Context) {
	cert, err := h.certificates.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificate": cert})
}

// GET /api/students/:id/certificates
func (h *CertificateHandler) ListByStudent(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	certs, err := h.certificates.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}

// GET /api/certificates/:id/image.png
func (h *CertificateHandler) Image(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	buf, err := h.certificates.RenderPNG(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=certificate-%d.png", id))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// POST /api/certificates/:id/archive
func (h *CertificateHandler) Archive(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	out, err := h.certificates.Archive(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"archive": out})
}

type revokeCertificateRequest struct {
	Reason string `json:"reason"`
}

// POST /api/certificates/:id/revoke
func (h *CertificateHandler) Revoke(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req revokeCertificateRequest
	if !bindBody(c, &req) {
		return
	}
	cert, err := h.certificates.Revoke(c.Request.Context(), domainagg.RevokeCertificateInput{
		Actor:         actorFrom(c),
		CertificateID: id,
		Reason:        req.Reason,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificate": cert})
}

type replaceCertificateRequest struct {
	Prefix string `json:"prefix"`
}

// POST /api/certificates/:id/replace
func (h *CertificateHandler) Replace(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req replaceCertificateRequest
	if !bindOptionalBody(c, &req) {
		return
	}
	cert, err := h.certificates.Replace(c.Request.Context(), domainagg.ReplaceCertificateInput{
		Actor:         actorFrom(c),
		CertificateID: id,
		Prefix:        req.Prefix,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"certificate": cert})
}
