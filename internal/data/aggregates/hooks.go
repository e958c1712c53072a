package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

// Hooks observe aggregate writes.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type logHooks struct {
	log  *logger.Logger
	slow time.Duration
}

// NewLogHooks reports every write at debug, failures at warn, and
// successful writes slower than slow at info.
func NewLogHooks(log *logger.Logger, slow time.Duration) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &logHooks{log: log.With("component", "aggregates"), slow: slow}
}

func (h *logHooks) ObserveOperation(name, status string, dur time.Duration) {
	name, status = strings.TrimSpace(name), strings.TrimSpace(status)
	switch {
	case status != "success":
		h.log.Warn("aggregate write failed", "op", name, "status", status, "duration_ms", dur.Milliseconds())
	case h.slow > 0 && dur >= h.slow:
		h.log.Info("aggregate write slow", "op", name, "duration_ms", dur.Milliseconds())
	default:
		h.log.Debug("aggregate write", "op", name, "duration_ms", dur.Milliseconds())
	}
}

func (h *logHooks) IncConflict(name string) {
	h.log.Info("aggregate conflict", "op", strings.TrimSpace(name))
}

func (h *logHooks) IncRetry(name string) {
	h.log.Info("aggregate retryable failure", "op", strings.TrimSpace(name))
}

type multiHooks []Hooks

// JoinHooks fans every observation out to each non-nil hook.
func JoinHooks(hooks ...Hooks) Hooks {
	var out multiHooks
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return noopHooks{}
	}
	return out
}

func (m multiHooks) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(name, status, dur)
	}
}

func (m multiHooks) IncConflict(name string) {
	for _, h := range m {
		h.IncConflict(name)
	}
}

func (m multiHooks) IncRetry(name string) {
	for _, h := range m {
		h.IncRetry(name)
	}
}
