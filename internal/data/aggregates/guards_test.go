package aggregates

import (
	"testing"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestStatusGuardRejectsBadArguments(t *testing.T) {
	g := NewStatusGuard(nil)
	cases := []struct {
		name    string
		table   string
		id      uint
		allowed []string
	}{
		{name: "no db", table: "teacher_payroll", id: 1, allowed: []string{"Draft"}},
		{name: "no table", table: " ", id: 1, allowed: []string{"Draft"}},
		{name: "no id", table: "teacher_payroll", allowed: []string{"Draft"}},
		{name: "no statuses", table: "teacher_payroll", id: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := g.UpdateByStatus(dbctx.Context{}, tc.table, tc.id, tc.allowed, map[string]any{"status": "Approved"})
			if ok || err == nil {
				t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
			}
			if !domainagg.IsCode(MapError("op", err), domainagg.CodeValidation) {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}
