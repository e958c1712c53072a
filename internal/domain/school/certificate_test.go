package school

import (
	"errors"
	"testing"
	"time"
)

var issuedOn = time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

func passedResult() StudentExamination {
	score := 88.0
	return StudentExamination{ID: 40, ExaminationID: 5, StudentID: 7, Score: &score, Result: ResultPass}
}

func issued(t *testing.T) *Certificate {
	t.Helper()
	c, err := IssueCertificate(passedResult(), 1, 2, "Grade 2 Piano", FormatCertificateNumber("cert", issuedOn, 1), issuedOn, nil)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	c.ID = 100
	return c
}

func TestIssueCertificateRequiresPass(t *testing.T) {
	for _, result := range []string{ResultFail, ResultPending, ResultAbsent} {
		se := passedResult()
		se.Result = result
		if _, err := IssueCertificate(se, 1, 2, "x", "CERT-202607-00001", issuedOn, nil); !errors.Is(err, ErrPrecondition) {
			t.Fatalf("%s result: expected ErrPrecondition, got %v", result, err)
		}
	}
	c := issued(t)
	if c.Status != CertificateIssued || *c.ExaminationID != 5 || *c.StudentExaminationID != 40 {
		t.Fatalf("unexpected certificate: %+v", c)
	}
	if msgs := c.Validate(); msgs != nil {
		t.Fatalf("issued certificate should be valid: %+v", msgs)
	}
}

func TestCertificateTerminalStatesAreSticky(t *testing.T) {
	revoked := issued(t)
	if err := revoked.Revoke("", issuedOn); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank reason: got %v", err)
	}
	if err := revoked.Revoke("issued in error", issuedOn); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	replaced := issued(t)
	if err := replaced.MarkAsReplaced(replaced.ID, issuedOn); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("self replacement: got %v", err)
	}
	if err := replaced.MarkAsReplaced(101, issuedOn); err != nil {
		t.Fatalf("MarkAsReplaced: %v", err)
	}

	for _, c := range []*Certificate{revoked, replaced} {
		before := c.Status
		if c.CanRevoke() {
			t.Fatalf("%s must not be revocable", before)
		}
		if err := c.Revoke("again", issuedOn); !errors.Is(err, ErrTransitionNotAllowed) {
			t.Fatalf("%s Revoke: got %v", before, err)
		}
		if err := c.MarkAsReplaced(202, issuedOn); !errors.Is(err, ErrTransitionNotAllowed) {
			t.Fatalf("%s MarkAsReplaced: got %v", before, err)
		}
		if c.Status != before {
			t.Fatalf("status changed from %s to %s", before, c.Status)
		}
		if msgs := c.Validate(); msgs != nil {
			t.Fatalf("%s certificate should be valid: %+v", before, msgs)
		}
	}
}

func TestCertificateNumbering(t *testing.T) {
	if got := FormatCertificateNumber("cert", issuedOn, 7); got != "CERT-202607-00007" {
		t.Fatalf("FormatCertificateNumber: %s", got)
	}
	prefix, period, seq, ok := ParseCertificateNumber("MUS-EU-202607-00042")
	if !ok || prefix != "MUS-EU" || period != "202607" || seq != 42 {
		t.Fatalf("Parse: %q %q %d %v", prefix, period, seq, ok)
	}
	for _, bad := range []string{"", "CERT-2026-00001", "CERT-202613-00001", "CERT-202607-abcde", "-202607-00001"} {
		if _, _, _, ok := ParseCertificateNumber(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
	existing := []string{"CERT-202607-00003", "CERT-202607-00011", "CERT-202606-00099", "OTHER-202607-00500", "garbage"}
	if got := NextCertificateNumber("CERT", issuedOn, existing); got != "CERT-202607-00012" {
		t.Fatalf("NextCertificateNumber: %s", got)
	}
	if got := NextCertificateNumber("CERT", issuedOn, nil); got != "CERT-202607-00001" {
		t.Fatalf("first number: %s", got)
	}

	c := issued(t)
	c.CertificateNumber = "12345"
	if !hasViolation(c.Validate(), "is not in PREFIX-YYYYMM-NNNNN format") {
		t.Fatalf("malformed number must fail validation")
	}
}

func TestCertificateViews(t *testing.T) {
	cases := map[string]string{
		"Spring Recital Award":     CertificateTypePerformance,
		"Music Theory Level 3":     CertificateTypeTheory,
		"Grade 5 Violin":           CertificateTypeGrade,
		"Workshop Participation":   CertificateTypeParticipation,
		"Outstanding Contribution": CertificateTypeGeneral,
	}
	for title, want := range cases {
		c := Certificate{Title: title}
		if got := c.CertificateType(); got != want {
			t.Fatalf("%q: want %s got %s", title, want, got)
		}
	}

	c := issued(t)
	if c.AgeCategory(issuedOn.AddDate(0, 0, 29)) != CertificateAgeNew ||
		c.AgeCategory(issuedOn.AddDate(0, 0, 30)) != CertificateAgeRecent ||
		c.AgeCategory(issuedOn.AddDate(1, 0, 0)) != CertificateAgeArchived {
		t.Fatalf("unexpected age categories")
	}
	if c.AgeDays(issuedOn.AddDate(0, 0, -3)) != 0 {
		t.Fatalf("age must not go negative")
	}
}
