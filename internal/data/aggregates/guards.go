package aggregates

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

// StatusUpdater applies a compare-and-set update keyed on a row's status.
type StatusUpdater interface {
	UpdateByStatus(dbc dbctx.Context, table string, id uint, allowedStatuses []string, updates map[string]any) (bool, error)
}

// StatusGuard is the gorm StatusUpdater.
type StatusGuard struct {
	db *gorm.DB
}

func NewStatusGuard(db *gorm.DB) StatusGuard {
	return StatusGuard{db: db}
}

// UpdateByStatus applies updates only while the row's status is one of
// allowedStatuses. false means another writer moved it first.
func (g StatusGuard) UpdateByStatus(dbc dbctx.Context, table string, id uint, allowedStatuses []string, updates map[string]any) (bool, error) {
	table = strings.TrimSpace(table)
	if table == "" || id == 0 {
		return false, ValidationError("table and id are required for UpdateByStatus")
	}
	if len(allowedStatuses) == 0 {
		return false, ValidationError("allowedStatuses must not be empty")
	}
	db := dbc.DB(g.db)
	if db == nil {
		return false, ValidationError("missing db transaction context")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

