package testutil

import (
	"fmt"
	"sync"

	"github.com/yungbote/cadenza-backend/internal/data/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

// AuditSink is an in-memory aggregates.AuditWriter.
type AuditSink struct {
	mu sync.Mutex

	// FailWith makes every Create return this error.
	FailWith error

	Logs   []*audit.AuditLog
	nextID uint
}

var _ aggregates.AuditWriter = (*AuditSink)(nil)

func (s *AuditSink) Create(_ dbctx.Context, logs []*audit.AuditLog) ([]*audit.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	for _, l := range logs {
		s.nextID++
		l.ID = s.nextID
		s.Logs = append(s.Logs, l)
	}
	return logs, nil
}

// Keys lists the recorded entries as "Action entity#id", in write order.
func (s *AuditSink) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Logs))
	for _, l := range s.Logs {
		out = append(out, fmt.Sprintf("%s %s#%s", l.Action, l.EntityName, l.RecordID))
	}
	return out
}
