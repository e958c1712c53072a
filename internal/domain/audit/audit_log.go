package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	ActionInsert = "Insert"
	ActionUpdate = "Update"
	ActionDelete = "Delete"
)

// AuditLog is one row-level change. OldValues/NewValues are opaque JSON
// snapshots of the record; they are only decoded to diff them.
type AuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ChangeSetID uuid.UUID      `gorm:"column:change_set_id;type:uuid;not null;index" json:"change_set_id"`
	EntityName  string         `gorm:"column:entity_name;size:100;not null;index:idx_audit_record" json:"entity_name" validate:"required,max=100"`
	RecordID    string         `gorm:"column:record_id;size:64;not null;index:idx_audit_record" json:"record_id" validate:"required,max=64"`
	Action      string         `gorm:"column:action;size:10;not null" json:"action"`
	OldValues   datatypes.JSON `gorm:"column:old_values" json:"old_values,omitempty"`
	NewValues   datatypes.JSON `gorm:"column:new_values" json:"new_values,omitempty"`
	ActorID     *uint          `gorm:"column:actor_id;index" json:"actor_id,omitempty"`
	OccurredAt  time.Time      `gorm:"column:occurred_at;not null;index" json:"occurred_at" validate:"required"`
}

func (AuditLog) TableName() string { return "audit_log" }

// NewAuditLog snapshots before and after (either may be nil) as JSON. A nil
// changeSet gets a fresh id.
func NewAuditLog(changeSet uuid.UUID, entity, recordID, action string, before, after interface{}, actor *uint, at time.Time) (*AuditLog, error) {
	oldJSON, err := snapshot(before)
	if err != nil {
		return nil, fmt.Errorf("snapshot old %s#%s: %w", entity, recordID, err)
	}
	newJSON, err := snapshot(after)
	if err != nil {
		return nil, fmt.Errorf("snapshot new %s#%s: %w", entity, recordID, err)
	}
	if changeSet == uuid.Nil {
		changeSet = uuid.New()
	}
	return &AuditLog{
		ChangeSetID: changeSet,
		EntityName:  entity,
		RecordID:    recordID,
		Action:      action,
		OldValues:   oldJSON,
		NewValues:   newJSON,
		ActorID:     actor,
		OccurredAt:  at.UTC(),
	}, nil
}

func snapshot(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (l AuditLog) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(l))
	s.Check(!rules.OneOf(l.Action, ActionInsert, ActionUpdate, ActionDelete), "action must be one of Insert, Update, Delete")
	hasOld, hasNew := len(l.OldValues) > 0, len(l.NewValues) > 0
	switch l.Action {
	case ActionInsert:
		s.Check(!hasNew, "an Insert entry requires new values")
		s.Check(hasOld, "an Insert entry must not carry old values")
	case ActionDelete:
		s.Check(!hasOld, "a Delete entry requires old values")
		s.Check(hasNew, "a Delete entry must not carry new values")
	case ActionUpdate:
		s.Check(!hasOld || !hasNew, "an Update entry requires old and new values")
	}
	return s.List()
}

// OldValueMap decodes the old snapshot; nil when absent or malformed.
func (l AuditLog) OldValueMap() map[string]interface{} { return decode(l.OldValues) }

// NewValueMap decodes the new snapshot; nil when absent or malformed.
func (l AuditLog) NewValueMap() map[string]interface{} { return decode(l.NewValues) }

func decode(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// Changes diffs the two snapshots field by field, sorted by field name.
// An undecodable side is treated as empty.
func (l AuditLog) Changes() []FieldChange {
	oldM, newM := l.OldValueMap(), l.NewValueMap()
	keys := map[string]struct{}{}
	for k := range oldM {
		keys[k] = struct{}{}
	}
	for k := range newM {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	var out []FieldChange
	for _, k := range names {
		o, n := oldM[k], newM[k]
		if reflect.DeepEqual(o, n) {
			continue
		}
		out = append(out, FieldChange{Field: k, Old: o, New: n})
	}
	return out
}

func (l AuditLog) ChangedFields() []string {
	changes := l.Changes()
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Field)
	}
	return out
}

// Summary is a one-line description: "Update teacher_payroll#12: status, net_salary".
func (l AuditLog) Summary() string {
	head := fmt.Sprintf("%s %s#%s", l.Action, l.EntityName, l.RecordID)
	if l.Action != ActionUpdate {
		return head
	}
	fields := l.ChangedFields()
	if len(fields) == 0 {
		return head + ": no changes"
	}
	return head + ": " + strings.Join(fields, ", ")
}

type TableCount struct {
	EntityName string `json:"entity_name"`
	Count      int    `json:"count"`
}

type Summary struct {
	Total   int          `json:"total"`
	Inserts int          `json:"inserts"`
	Updates int          `json:"updates"`
	Deletes int          `json:"deletes"`
	Actors  int          `json:"actors"`
	ByTable []TableCount `json:"by_table"`
}

// SummarizeAuditLogs counts entries per action and per table (sorted by
// table name) and the number of distinct actors.
func SummarizeAuditLogs(logs []AuditLog) Summary {
	out := Summary{ByTable: []TableCount{}}
	perTable := map[string]int{}
	actors := map[uint]struct{}{}
	for _, l := range logs {
		out.Total++
		switch l.Action {
		case ActionInsert:
			out.Inserts++
		case ActionUpdate:
			out.Updates++
		case ActionDelete:
			out.Deletes++
		}
		perTable[l.EntityName]++
		if l.ActorID != nil {
			actors[*l.ActorID] = struct{}{}
		}
	}
	out.Actors = len(actors)
	for name, n := range perTable {
		out.ByTable = append(out.ByTable, TableCount{EntityName: name, Count: n})
	}
	sort.Slice(out.ByTable, func(i, j int) bool { return out.ByTable[i].EntityName < out.ByTable[j].EntityName })
	return out
}
