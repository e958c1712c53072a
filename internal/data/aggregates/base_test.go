package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	runner := spyTxRunner{}

	err := executeWrite(context.Background(), BaseDeps{
		Runner: runner,
		Hooks:  hooks,
	}, "School.Test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != "success" {
		t.Fatalf("operation status: want=success got=%s", hooks.Operations[0].Status)
	}
}

func TestExecuteWriteObservesInvariantViolationStatus(t *testing.T) {
	hooks := &spyHooks{}
	runner := spyTxRunner{}

	err := executeWrite(context.Background(), BaseDeps{
		Runner: runner,
		Hooks:  hooks,
	}, "School.Test.invariant", func(_ dbctx.Context) error {
		return InvariantError("invariant broken")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant violation code, got=%v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("operation status: want=%s got=%s", domainagg.CodeInvariantViolation, hooks.Operations[0].Status)
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		hooks := &spyHooks{}
		runner := spyTxRunner{}
		err := executeWrite(context.Background(), BaseDeps{
			Runner: runner,
			Hooks:  hooks,
		}, "School.Test.conflict", func(_ dbctx.Context) error {
			return ConflictError("payroll changed status concurrently")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("expected conflict code, got=%v", err)
		}
		if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "School.Test.conflict" {
			t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
		}
		if len(hooks.Retries) != 0 {
			t.Fatalf("retry hooks should be empty, got=%+v", hooks.Retries)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeConflict) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})

	t.Run("retryable", func(t *testing.T) {
		hooks := &spyHooks{}
		runner := spyTxRunner{}
		err := executeWrite(context.Background(), BaseDeps{
			Runner: runner,
			Hooks:  hooks,
		}, "School.Test.retry", func(_ dbctx.Context) error {
			return RetryableError("lock timeout on teacher_payroll")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !domainagg.IsCode(err, domainagg.CodeRetryable) {
			t.Fatalf("expected retryable code, got=%v", err)
		}
		if len(hooks.Retries) != 1 || hooks.Retries[0] != "School.Test.retry" {
			t.Fatalf("retry hooks: %+v", hooks.Retries)
		}
		if len(hooks.Conflicts) != 0 {
			t.Fatalf("conflict hooks should be empty, got=%+v", hooks.Conflicts)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeRetryable) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})
}

func TestWriteOutcome(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"invariant", InvariantError("x"), string(domainagg.CodeInvariantViolation)},
		{"conflict", ConflictError("x"), string(domainagg.CodeConflict)},
		{"retryable", RetryableError("x"), string(domainagg.CodeRetryable)},
		{"deadline", context.DeadlineExceeded, string(domainagg.CodeRetryable)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := writeOutcome(tc.err); got != tc.want {
				t.Fatalf("writeOutcome = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExecuteWriteNamesOpsUnderSchool(t *testing.T) {
	cases := []struct {
		op   string
		want string
	}{
		{"School.Payroll.Approve", "School.Payroll.Approve"},
		{" Payroll.Approve ", "School.Payroll.Approve"},
		{"", "School.Unnamed.Write"},
	}
	for _, tc := range cases {
		hooks := &spyHooks{}
		err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, tc.op, func(_ dbctx.Context) error {
			return ConflictError("payroll changed status concurrently")
		})
		var coded *domainagg.Error
		if !errors.As(err, &coded) || coded.Op != tc.want {
			t.Fatalf("op %q: error %v, want op %q", tc.op, err, tc.want)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Name != tc.want || hooks.Conflicts[0] != tc.want {
			t.Fatalf("op %q: hooks saw %+v %v", tc.op, hooks.Operations, hooks.Conflicts)
		}
	}
}

func TestLockTimeoutStatement(t *testing.T) {
	cases := []struct {
		dialect string
		d       time.Duration
		want    string
	}{
		{"postgres", 3 * time.Second, "SET LOCAL lock_timeout = '3000ms'"},
		{"postgres", time.Microsecond, "SET LOCAL lock_timeout = '1ms'"},
		{"postgres", 0, ""},
		{"sqlite", time.Second, ""},
	}
	for _, tc := range cases {
		if got := lockTimeoutStatement(tc.dialect, tc.d); got != tc.want {
			t.Fatalf("%s %s: got %q, want %q", tc.dialect, tc.d, got, tc.want)
		}
	}
}

func TestGormTxRunnerWithoutDatabase(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("want internal, got %v", err)
	}
}

func TestJoinHooksFansOut(t *testing.T) {
	a, b := &spyHooks{}, &spyHooks{}
	hooks := JoinHooks(a, nil, b)

	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "School.Test.join", func(_ dbctx.Context) error {
		return ConflictError("certificate changed status concurrently")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got=%v", err)
	}
	for i, h := range []*spyHooks{a, b} {
		if len(h.Operations) != 1 || len(h.Conflicts) != 1 {
			t.Fatalf("hook %d: operations=%d conflicts=%d", i, len(h.Operations), len(h.Conflicts))
		}
	}
	if _, ok := JoinHooks(nil).(noopHooks); !ok {
		t.Fatalf("joining only nil hooks should yield the no-op hooks")
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}
