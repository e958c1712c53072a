package aggregates

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

// AuditWriter persists audit entries in the caller's transaction.
type AuditWriter interface {
	Create(dbc dbctx.Context, logs []*audit.AuditLog) ([]*audit.AuditLog, error)
}

type tabler interface {
	TableName() string
}

// trail records the audit entries of one write under a single change set.
type trail struct {
	writer    AuditWriter
	changeSet uuid.UUID
	actor     *uint
	at        time.Time
	entries   domainagg.Trail
}

func newTrail(w AuditWriter, actor domainagg.Actor) *trail {
	return &trail{
		writer:    w,
		changeSet: uuid.New(),
		actor:     actor.UserID,
		at:        actor.When(),
	}
}

func (t *trail) inserted(dbc dbctx.Context, rec tabler, id uint) error {
	return t.add(dbc, audit.ActionInsert, rec.TableName(), id, nil, rec)
}

// updated records before -> after. An update that changes nothing is not
// recorded.
func (t *trail) updated(dbc dbctx.Context, before, after tabler, id uint) error {
	return t.add(dbc, audit.ActionUpdate, after.TableName(), id, before, after)
}

func (t *trail) deleted(dbc dbctx.Context, rec tabler, id uint) error {
	return t.add(dbc, audit.ActionDelete, rec.TableName(), id, rec, nil)
}

func (t *trail) add(dbc dbctx.Context, action, entity string, id uint, before, after interface{}) error {
	entry, err := audit.NewAuditLog(t.changeSet, entity, strconv.FormatUint(uint64(id), 10), action, before, after, t.actor, t.at)
	if err != nil {
		return err
	}
	if action == audit.ActionUpdate && bytes.Equal(entry.OldValues, entry.NewValues) {
		return nil
	}
	if msgs := entry.Validate(); msgs != nil {
		return InvariantError(fmt.Sprintf("audit entry for %s#%d: %v", entity, id, msgs))
	}
	if t.writer != nil {
		if _, err := t.writer.Create(dbc, []*audit.AuditLog{entry}); err != nil {
			return err
		}
	}
	t.entries = append(t.entries, entry)
	return nil
}
