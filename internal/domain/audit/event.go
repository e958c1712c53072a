package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is the published form of a committed AuditLog: no snapshots, just
// what changed and who changed it.
type Event struct {
	ChangeSetID uuid.UUID `json:"change_set_id"`
	EntityName  string    `json:"entity_name"`
	RecordID    string    `json:"record_id"`
	Action      string    `json:"action"`
	Fields      []string  `json:"fields,omitempty"`
	ActorID     *uint     `json:"actor_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Summary     string    `json:"summary"`
}

func (l AuditLog) Event() Event {
	ev := Event{
		ChangeSetID: l.ChangeSetID,
		EntityName:  l.EntityName,
		RecordID:    l.RecordID,
		Action:      l.Action,
		ActorID:     l.ActorID,
		OccurredAt:  l.OccurredAt,
		Summary:     l.Summary(),
	}
	if l.Action == ActionUpdate {
		ev.Fields = l.ChangedFields()
	}
	return ev
}
