package rules

import (
	"testing"
	"time"
)

type tagged struct {
	Title string `json:"title" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Count int    `json:"count" validate:"gte=1"`
}

func TestSetKeepsOrderAndDoesNotShortCircuit(t *testing.T) {
	var s Set
	s.Check(true, "first")
	s.Check(false, "skipped")
	s.Checkf(true, "third %d", 3)
	s.Merge("line 1", []string{"nested"})

	got := s.List()
	want := []string{"first", "third 3", "line 1: nested"}
	if len(got) != len(want) {
		t.Fatalf("want %d messages got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: want %q got %q", i, want[i], got[i])
		}
	}
	if s.Valid() {
		t.Fatalf("expected invalid set")
	}
}

func TestEmptySetListIsNil(t *testing.T) {
	var s Set
	if s.List() != nil {
		t.Fatalf("expected nil list")
	}
}

func TestStructUsesJSONNames(t *testing.T) {
	msgs := Struct(tagged{Title: "too long", Email: "nope", Count: 0})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %+v", msgs)
	}
	if msgs[0] != "title must be a maximum of 5 characters in length" {
		t.Fatalf("unexpected first message: %q", msgs[0])
	}
	if got := Struct(tagged{Title: "ok", Count: 2}); got != nil {
		t.Fatalf("expected valid struct, got %+v", got)
	}
}

func TestTransitions(t *testing.T) {
	tbl := Transitions{
		"a": {"b", "c"},
		"b": {"c"},
	}
	if !tbl.Allows("a", "c") || tbl.Allows("b", "a") {
		t.Fatalf("unexpected Allows results")
	}
	if !tbl.IsTerminal("c") || tbl.IsTerminal("a") {
		t.Fatalf("unexpected IsTerminal results")
	}
	next := tbl.Next("a")
	next[0] = "z"
	if tbl["a"][0] != "b" {
		t.Fatalf("Next must return a copy")
	}
}

func TestNumericHelpers(t *testing.T) {
	if Percent(1, 0) != 0 {
		t.Fatalf("Percent with zero denominator must be 0")
	}
	if Percent(1, 4) != 25 {
		t.Fatalf("Percent(1,4) want 25")
	}
	if Round2(2.346) != 2.35 || Round2(2.3449) != 2.34 {
		t.Fatalf("Round2 mismatch: %v %v", Round2(2.346), Round2(2.3449))
	}
	cases := map[int]string{0: "0m", 45: "45m", 60: "1h", 90: "1h 30m", -5: "0m"}
	for in, want := range cases {
		if got := FormatMinutes(in); got != want {
			t.Fatalf("FormatMinutes(%d): want %q got %q", in, want, got)
		}
	}
	a := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 11, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 10 {
		t.Fatalf("DaysBetween: want 10 got %d", got)
	}
}
