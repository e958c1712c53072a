package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/audit"
)

// WriteTxOwnership says who opens the write transaction.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy says which reads an aggregate may perform.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the reads a write needs to check its rules.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries: listing and reporting go through table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Actor identifies who performs a write and when. A zero At means now.
type Actor struct {
	UserID *uint
	At     time.Time
}

// When returns At in UTC, defaulting to now.
func (a Actor) When() time.Time {
	if a.At.IsZero() {
		return time.Now().UTC()
	}
	return a.At.UTC()
}

// Trail is the audit entries a write committed, in write order.
type Trail []*audit.AuditLog

// OpPrefix starts every write op: "School.<Aggregate>.<Action>".
const OpPrefix = "School."

// SplitOp returns the aggregate and action of a write op. Missing parts
// come back as "unknown".
func SplitOp(op string) (aggregate, action string) {
	aggregate, action = "unknown", "unknown"
	rest := strings.TrimPrefix(strings.TrimSpace(op), OpPrefix)
	head, tail, _ := strings.Cut(rest, ".")
	if head != "" {
		aggregate = head
	}
	if tail != "" {
		action = tail
	}
	return aggregate, action
}
