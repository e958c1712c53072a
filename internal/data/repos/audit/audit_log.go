package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type AuditLogRepo interface {
	Create(dbc dbctx.Context, logs []*types.AuditLog) ([]*types.AuditLog, error)
	ListByRecord(dbc dbctx.Context, entity, recordID string) ([]types.AuditLog, error)
	ListByChangeSet(dbc dbctx.Context, changeSetID uuid.UUID) ([]types.AuditLog, error)
	ListInRange(dbc dbctx.Context, from, to time.Time, limit int) ([]types.AuditLog, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(dbc dbctx.Context, logs []*types.AuditLog) ([]*types.AuditLog, error) {
	if len(logs) == 0 {
		return []*types.AuditLog{}, nil
	}
	if err := dbc.DB(r.db).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListByRecord returns the record's history oldest first.
func (r *auditLogRepo) ListByRecord(dbc dbctx.Context, entity, recordID string) ([]types.AuditLog, error) {
	out := []types.AuditLog{}
	if entity == "" || recordID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("entity_name = ? AND record_id = ?", entity, recordID).
		Order("occurred_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditLogRepo) ListByChangeSet(dbc dbctx.Context, changeSetID uuid.UUID) ([]types.AuditLog, error) {
	out := []types.AuditLog{}
	if changeSetID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("change_set_id = ?", changeSetID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListInRange returns entries with from <= occurred_at < to, newest first.
// limit <= 0 means no limit.
func (r *auditLogRepo) ListInRange(dbc dbctx.Context, from, to time.Time, limit int) ([]types.AuditLog, error) {
	out := []types.AuditLog{}
	q := dbc.DB(r.db).
		Where("occurred_at >= ? AND occurred_at < ?", from.UTC(), to.UTC()).
		Order("occurred_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
