// Package rules holds the shared building blocks of entity rule sets:
// an ordered violation collector, struct-tag validation, status transition
// tables and the small numeric/format helpers computed views rely on.
package rules

import (
	"fmt"
	"strings"
)

// Set collects rule violations in the order they are checked.
// Rules never short-circuit each other.
type Set struct {
	msgs []string
}

// Check records msg when failed is true.
func (s *Set) Check(failed bool, msg string) {
	if failed {
		s.msgs = append(s.msgs, msg)
	}
}

// Checkf is Check with a format string.
func (s *Set) Checkf(failed bool, format string, args ...interface{}) {
	if failed {
		s.msgs = append(s.msgs, fmt.Sprintf(format, args...))
	}
}

// Add records msg unconditionally. Blank messages are ignored.
func (s *Set) Add(msg string) {
	if strings.TrimSpace(msg) != "" {
		s.msgs = append(s.msgs, msg)
	}
}

// Merge appends msgs, optionally prefixed ("line 2: ...").
func (s *Set) Merge(prefix string, msgs []string) {
	for _, m := range msgs {
		if prefix != "" {
			m = prefix + ": " + m
		}
		s.msgs = append(s.msgs, m)
	}
}

// List returns the collected messages; nil when valid.
func (s *Set) List() []string {
	if len(s.msgs) == 0 {
		return nil
	}
	out := make([]string, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Set) Valid() bool { return len(s.msgs) == 0 }

// OneOf reports whether v equals one of allowed.
func OneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Blank reports whether s is nil or only whitespace.
func Blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
