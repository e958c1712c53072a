package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
		violations int
	}{
		{
			name:       "validation keeps violations",
			err:        domainagg.Violations("School.Payroll.Generate", []string{"period end is before start", "teacher is required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "validation",
			violations: 2,
		},
		{
			name:       "not found",
			err:        domainagg.NewError(domainagg.CodeNotFound, "School.Payroll.Get", "payroll 4 not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "conflict",
			err:        domainagg.NewError(domainagg.CodeConflict, "School.Payroll.Approve", "changed concurrently", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "precondition",
			err:        domainagg.NewError(domainagg.CodePreconditionFailed, "School.Payroll.Approve", "payroll is Paid", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "precondition_failed",
		},
		{
			name:       "retryable",
			err:        domainagg.NewError(domainagg.CodeRetryable, "School.Payroll.Approve", "lock timeout", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "retryable",
		},
		{
			name:       "uncoded hides message",
			err:        errors.New("pq: password authentication failed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
			wantMsg:    "internal error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondServiceError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.wantStatus)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode {
				t.Fatalf("code: got=%q want=%q", env.Error.Code, tc.wantCode)
			}
			if tc.wantMsg != "" && env.Error.Message != tc.wantMsg {
				t.Fatalf("message: got=%q want=%q", env.Error.Message, tc.wantMsg)
			}
			if len(env.Error.Violations) != tc.violations {
				t.Fatalf("violations: got=%v", env.Error.Violations)
			}
		})
	}
}
