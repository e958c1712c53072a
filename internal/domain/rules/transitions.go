package rules

// Transitions is a hardcoded status state machine: from-status to the set
// of statuses it may move to. A status with no entry (or an empty entry)
// is terminal.
type Transitions map[string][]string

// Allows reports whether from -> to is an allowed edge.
func (t Transitions) Allows(from, to string) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from from.
func (t Transitions) Next(from string) []string {
	next := t[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

func (t Transitions) IsTerminal(status string) bool {
	return len(t[status]) == 0
}
