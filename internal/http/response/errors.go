package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
)

// StatusFor maps an error code to its HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict, domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes a coded service error. Uncoded and internal
// errors are reported without their message.
func RespondServiceError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	msg := "internal error"
	if err != nil {
		_ = c.Error(err)
		if status != http.StatusInternalServerError {
			msg = err.Error()
		}
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:    msg,
			Code:       string(code),
			Violations: domainagg.ViolationsOf(err),
		},
	})
}
