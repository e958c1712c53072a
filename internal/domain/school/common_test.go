package school

import (
	"testing"
	"time"
)

func TestAuditFieldsStampAndTouch(t *testing.T) {
	forged, old := uint(999), time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	a := AuditFields{CreatedAt: old, UpdatedAt: old, CreatedBy: &forged, UpdatedBy: &forged}

	actor := uint(3)
	a.Stamp(&actor)
	if !a.CreatedAt.IsZero() || !a.UpdatedAt.IsZero() {
		t.Fatalf("timestamps kept: %+v", a)
	}
	if a.CreatedBy == nil || *a.CreatedBy != 3 || a.UpdatedBy == nil || *a.UpdatedBy != 3 {
		t.Fatalf("stamp: %+v", a)
	}
	actor = 4
	if *a.CreatedBy != 3 {
		t.Fatal("stamp aliased the actor pointer")
	}

	editor := uint(5)
	a.Touch(&editor)
	if *a.CreatedBy != 3 || *a.UpdatedBy != 5 {
		t.Fatalf("touch: created=%d updated=%d", *a.CreatedBy, *a.UpdatedBy)
	}

	var legacy AuditFields
	legacy.Touch(&editor)
	if legacy.CreatedBy != nil {
		t.Fatalf("touch must not claim creation: %v", *legacy.CreatedBy)
	}

	a.Stamp(nil)
	if a.CreatedBy != nil || a.UpdatedBy != nil {
		t.Fatalf("stamp nil actor: %+v", a)
	}
}
