package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

// BaseDeps is what every school aggregate shares: one transaction per write,
// a status guard for payroll and certificate transitions, and the audit
// writer the trail goes through.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Guard  StatusUpdater
	Audit  AuditWriter
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Guard == nil {
		d.Guard = NewStatusGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

const unnamedWrite = domainagg.OpPrefix + "Unnamed.Write"

// schoolOp normalises op to "School.<Aggregate>.<Action>".
func schoolOp(op string) string {
	op = strings.TrimSpace(op)
	switch {
	case op == "":
		return unnamedWrite
	case !strings.HasPrefix(op, domainagg.OpPrefix):
		return domainagg.OpPrefix + op
	}
	return op
}

// executeWrite runs fn in one transaction, maps its error onto an aggregate
// code and reports the outcome to the hooks under the school op name.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	op = schoolOp(op)

	began := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	took := time.Since(began)

	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	deps.Hooks.ObserveOperation(op, writeOutcome(err), took)
	return err
}

// writeOutcome is the status label of a write: "success" or its error code.
func writeOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	if code := domainagg.CodeOf(MapError(unnamedWrite, err)); code != "" {
		return string(code)
	}
	return "failure"
}
