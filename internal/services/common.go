package services

import (
	"context"
	"fmt"

	dataagg "github.com/yungbote/cadenza-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

func readCtx(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func notFound(op, what string, id uint) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("%s %d not found", what, id), nil)
}

func missingID(op, name string) error {
	return domainagg.NewError(domainagg.CodeValidation, op, "missing "+name, nil)
}

// readErr maps repo failures on read paths the same way writes are mapped.
func readErr(op string, err error) error {
	return dataagg.MapError(op, err)
}

func values[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
