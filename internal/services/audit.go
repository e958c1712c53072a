package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cadenza-backend/internal/clients/redis"
	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/observability"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

const publishTimeout = 3 * time.Second

// TrailPublisher announces committed audit trails. Publishing happens after
// the write has committed, so a failure is logged and never returned.
type TrailPublisher interface {
	Publish(ctx context.Context, op string, trail domainagg.Trail)
}

type trailPublisher struct {
	log *logger.Logger
	bus redis.AuditBus
}

// NewTrailPublisher returns a publisher over bus. A nil bus drops every trail.
func NewTrailPublisher(log *logger.Logger, bus redis.AuditBus) TrailPublisher {
	return &trailPublisher{log: log.With("service", "TrailPublisher"), bus: bus}
}

func (p *trailPublisher) Publish(ctx context.Context, op string, trail domainagg.Trail) {
	if p == nil || p.bus == nil || len(trail) == 0 {
		return
	}
	events := make([]audit.Event, 0, len(trail))
	for _, entry := range trail {
		if entry != nil {
			events = append(events, entry.Event())
		}
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	outcome := "published"
	if err := p.bus.Publish(pctx, events); err != nil {
		outcome = "failed"
		p.log.Warn("audit publish failed (ignored)", "op", op, "entries", len(events), "error", err)
	}
	if m := observability.Current(); m != nil {
		counts := map[string]int{}
		for _, ev := range events {
			counts[ev.EntityName]++
		}
		for entity, n := range counts {
			m.AddAuditEvents(entity, outcome, n)
		}
	}
}

type AuditService interface {
	// RecordHistory lists the entries for one record, oldest first.
	RecordHistory(ctx context.Context, entity, recordID string) ([]audit.AuditLog, error)
	ChangeSet(ctx context.Context, id uuid.UUID) ([]audit.AuditLog, error)
	Summarize(ctx context.Context, from, to time.Time, limit int) (audit.Summary, error)
}

type auditService struct {
	log  *logger.Logger
	logs repos.AuditLogRepo
}

func NewAuditService(log *logger.Logger, logs repos.AuditLogRepo) AuditService {
	return &auditService{log: log.With("service", "AuditService"), logs: logs}
}

func (s *auditService) RecordHistory(ctx context.Context, entity, recordID string) ([]audit.AuditLog, error) {
	const op = "School.Audit.RecordHistory"
	entity, recordID = strings.TrimSpace(entity), strings.TrimSpace(recordID)
	if entity == "" || recordID == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "entity and record id are required", nil)
	}
	rows, err := s.logs.ListByRecord(readCtx(ctx), entity, recordID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *auditService) ChangeSet(ctx context.Context, id uuid.UUID) ([]audit.AuditLog, error) {
	const op = "School.Audit.ChangeSet"
	if id == uuid.Nil {
		return nil, missingID(op, "change_set_id")
	}
	rows, err := s.logs.ListByChangeSet(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *auditService) Summarize(ctx context.Context, from, to time.Time, limit int) (audit.Summary, error) {
	const op = "School.Audit.Summarize"
	if to.Before(from) {
		return audit.Summary{}, domainagg.NewError(domainagg.CodeValidation, op, "range end is before its start", nil)
	}
	rows, err := s.logs.ListInRange(readCtx(ctx), from, to, limit)
	if err != nil {
		return audit.Summary{}, readErr(op, err)
	}
	return audit.SummarizeAuditLogs(rows), nil
}
