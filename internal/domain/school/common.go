package school

import (
	"strings"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

// AuditFields are owned by the calling layer; entities never stamp
// themselves.
type AuditFields struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	CreatedBy *uint     `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy *uint     `gorm:"column:updated_by" json:"updated_by,omitempty"`
}

// Stamp prepares a row for insert. Whatever the caller decoded into the
// audit fields is discarded: actor becomes creator and last writer, and the
// zero timestamps are filled by the database layer on create.
func (a *AuditFields) Stamp(actor *uint) {
	*a = AuditFields{}
	if actor == nil {
		return
	}
	created, updated := *actor, *actor
	a.CreatedBy = &created
	a.UpdatedBy = &updated
}

// Touch records actor as the last writer of an existing row.
func (a *AuditFields) Touch(actor *uint) {
	if actor == nil {
		return
	}
	id := *actor
	a.UpdatedBy = &id
}

func statusRule(s *rules.Set, status string, allowed ...string) {
	s.Checkf(!rules.OneOf(status, allowed...), "status must be one of %s", strings.Join(allowed, ", "))
}

func inDateRange(t, from, to time.Time) bool {
	d := rules.DateOnly(t)
	return !d.Before(rules.DateOnly(from)) && !d.After(rules.DateOnly(to))
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
