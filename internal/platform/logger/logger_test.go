package logger

import "testing"

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"teacher_email", "someone@example.com",
		"actor_id", uint(42),
		"payroll_id", uint(7),
	})
	if len(out) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("email should be redacted, got %v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || len(hashed) != len("hash:")+12 {
		t.Fatalf("actor_id should be hashed, got %v", out[3])
	}
	if out[5] != uint(7) {
		t.Fatalf("payroll_id should pass through, got %v", out[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.With("service", "test").Info("hello", "k", "v")
}
