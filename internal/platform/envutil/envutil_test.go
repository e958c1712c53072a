package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CADENZA_TEST_INT", "abc")
	if got := Int("CADENZA_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("Int: want 7 got %d", got)
	}
	t.Setenv("CADENZA_TEST_INT", " 12 ")
	if got := Int("CADENZA_TEST_INT", 7, nil); got != 12 {
		t.Fatalf("Int: want 12 got %d", got)
	}
}

func TestDurationAcceptsSecondsAndStrings(t *testing.T) {
	t.Setenv("CADENZA_TEST_DUR", "90")
	if got := Duration("CADENZA_TEST_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("Duration seconds: got %s", got)
	}
	t.Setenv("CADENZA_TEST_DUR", "2m")
	if got := Duration("CADENZA_TEST_DUR", time.Second, nil); got != 2*time.Minute {
		t.Fatalf("Duration string: got %s", got)
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("CADENZA_TEST_LIST", "a, ,b")
	got := List("CADENZA_TEST_LIST", nil, nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got %+v", got)
	}
	t.Setenv("CADENZA_TEST_BOOL", "off")
	if Bool("CADENZA_TEST_BOOL", true, nil) {
		t.Fatalf("Bool: expected false")
	}
	if !Bool("CADENZA_TEST_BOOL_MISSING", true, nil) {
		t.Fatalf("Bool: expected default true")
	}
}
