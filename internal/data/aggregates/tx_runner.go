package aggregates

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction a school write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxOptions apply to every write transaction.
type TxOptions struct {
	// LockTimeout bounds the wait on a row lock taken FOR UPDATE. Zero waits
	// forever. Only postgres honours it; a timeout surfaces as retryable.
	LockTimeout time.Duration

	Isolation sql.IsolationLevel
}

type gormTxRunner struct {
	db   *gorm.DB
	opts TxOptions
}

// NewGormTxRunner runs writes on db. At most one TxOptions is used.
func NewGormTxRunner(db *gorm.DB, opts ...TxOptions) TxRunner {
	r := &gormTxRunner{db: db}
	if len(opts) > 0 {
		r.opts = opts[0]
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, domainagg.OpPrefix+"Tx", "no database is configured for school writes", nil)
	}
	var sqlOpts []*sql.TxOptions
	if r.opts.Isolation != sql.LevelDefault {
		sqlOpts = append(sqlOpts, &sql.TxOptions{Isolation: r.opts.Isolation})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if stmt := lockTimeoutStatement(tx.Dialector.Name(), r.opts.LockTimeout); stmt != "" {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}, sqlOpts...)
}

// lockTimeoutStatement is the SET LOCAL that scopes d to one transaction, or
// "" when the dialect has no such setting.
func lockTimeoutStatement(dialect string, d time.Duration) string {
	if d <= 0 || dialect != "postgres" {
		return ""
	}
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}
