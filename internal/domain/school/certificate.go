package school

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	CertificateIssued   = "Issued"
	CertificateRevoked  = "Revoked"
	CertificateReplaced = "Replaced"
)

const (
	CertificateTypePerformance   = "Performance"
	CertificateTypeTheory        = "Theory"
	CertificateTypeGrade         = "Grade Completion"
	CertificateTypeParticipation = "Participation"
	CertificateTypeGeneral       = "General"
)

const (
	CertificateAgeNew      = "New"
	CertificateAgeRecent   = "Recent"
	CertificateAgeArchived = "Archived"
)

const DefaultCertificatePrefix = "CERT"

var certificateTransitions = rules.Transitions{
	CertificateIssued: {CertificateRevoked, CertificateReplaced},
}

// Checked in order; the first keyword found in the lowercased title wins.
var certificateKeywords = []struct {
	keywords []string
	kind     string
}{
	{[]string{"recital", "performance", "concert"}, CertificateTypePerformance},
	{[]string{"theory"}, CertificateTypeTheory},
	{[]string{"participation", "attendance"}, CertificateTypeParticipation},
	{[]string{"grade", "level"}, CertificateTypeGrade},
}

type Certificate struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	CompanyID            uint       `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	StudentID            uint       `gorm:"column:student_id;not null;index" json:"student_id" validate:"required"`
	GradeID              uint       `gorm:"column:grade_id;not null;index" json:"grade_id" validate:"required"`
	ExaminationID        *uint      `gorm:"column:examination_id;index" json:"examination_id,omitempty"`
	StudentExaminationID *uint      `gorm:"column:student_examination_id" json:"student_examination_id,omitempty"`
	CertificateNumber    string     `gorm:"column:certificate_number;size:40;not null;uniqueIndex" json:"certificate_number" validate:"required,max=40"`
	Title                string     `gorm:"column:title;size:200;not null" json:"title" validate:"required,max=200"`
	IssueDate            time.Time  `gorm:"column:issue_date;type:date;not null" json:"issue_date" validate:"required"`
	Status               string     `gorm:"column:status;size:20;not null;index" json:"status"`
	RevokedAt            *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	RevocationReason     *string    `gorm:"column:revocation_reason;size:500" json:"revocation_reason,omitempty" validate:"omitempty,max=500"`
	ReplacedByID         *uint      `gorm:"column:replaced_by_id" json:"replaced_by_id,omitempty"`
	ReplacedAt           *time.Time `gorm:"column:replaced_at" json:"replaced_at,omitempty"`
	Student              *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty" validate:"-"`
	Grade                *Grade     `gorm:"foreignKey:GradeID" json:"grade,omitempty" validate:"-"`
	AuditFields
}

func (Certificate) TableName() string { return "certificate" }

// IssueCertificate creates an unsaved Issued certificate for a passed
// examination result. Any other result is ErrPrecondition.
func IssueCertificate(result StudentExamination, companyID, gradeID uint, title, number string, at time.Time, actor *uint) (*Certificate, error) {
	if result.Result != ResultPass {
		return nil, preconditionErr("certificates are only issued for a Pass result (result %q)", result.Result)
	}
	c := &Certificate{
		CompanyID:         companyID,
		StudentID:         result.StudentID,
		GradeID:           gradeID,
		CertificateNumber: number,
		Title:             strings.TrimSpace(title),
		IssueDate:         rules.DateOnly(at),
		Status:            CertificateIssued,
	}
	if result.ExaminationID != 0 {
		id := result.ExaminationID
		c.ExaminationID = &id
	}
	if result.ID != 0 {
		id := result.ID
		c.StudentExaminationID = &id
	}
	c.Stamp(actor)
	return c, nil
}

func (c Certificate) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(c))
	statusRule(&s, c.Status, CertificateIssued, CertificateRevoked, CertificateReplaced)
	if c.CertificateNumber != "" {
		_, _, _, ok := ParseCertificateNumber(c.CertificateNumber)
		s.Checkf(!ok, "certificate number %q is not in PREFIX-YYYYMM-NNNNN format", c.CertificateNumber)
	}
	switch c.Status {
	case CertificateIssued:
		s.Check(c.RevokedAt != nil || c.ReplacedByID != nil, "an issued certificate must not carry revocation or replacement details")
	case CertificateRevoked:
		s.Check(c.RevokedAt == nil, "a revoked certificate requires a revocation date")
		s.Check(rules.Blank(c.RevocationReason), "a revoked certificate requires a revocation reason")
	case CertificateReplaced:
		s.Check(c.ReplacedByID == nil, "a replaced certificate requires the replacing certificate")
		s.Check(c.ReplacedByID != nil && c.ID != 0 && *c.ReplacedByID == c.ID, "a certificate cannot replace itself")
	}
	return s.List()
}

func (c Certificate) CanRevoke() bool {
	return certificateTransitions.Allows(c.Status, CertificateRevoked)
}

func (c Certificate) IsValid() bool { return c.Status == CertificateIssued }

func (c *Certificate) Revoke(reason string, at time.Time) error {
	if !c.CanRevoke() {
		return transitionErr("certificate", c.Status, CertificateRevoked)
	}
	r := trimmed(reason)
	if r == nil {
		return argumentErr("a revocation reason is required")
	}
	c.Status = CertificateRevoked
	c.RevokedAt = &at
	c.RevocationReason = r
	return nil
}

func (c *Certificate) MarkAsReplaced(newID uint, at time.Time) error {
	if !certificateTransitions.Allows(c.Status, CertificateReplaced) {
		return transitionErr("certificate", c.Status, CertificateReplaced)
	}
	if newID == 0 || newID == c.ID {
		return argumentErr("replacement certificate id %d is invalid", newID)
	}
	c.Status = CertificateReplaced
	c.ReplacedByID = &newID
	c.ReplacedAt = &at
	return nil
}

func (c Certificate) CertificateType() string {
	title := strings.ToLower(c.Title)
	for _, k := range certificateKeywords {
		for _, w := range k.keywords {
			if strings.Contains(title, w) {
				return k.kind
			}
		}
	}
	return CertificateTypeGeneral
}

func (c Certificate) AgeDays(now time.Time) int {
	if d := rules.DaysBetween(c.IssueDate, now); d > 0 {
		return d
	}
	return 0
}

func (c Certificate) AgeCategory(now time.Time) string {
	switch d := c.AgeDays(now); {
	case d < 30:
		return CertificateAgeNew
	case d < 365:
		return CertificateAgeRecent
	default:
		return CertificateAgeArchived
	}
}

// FormatCertificateNumber renders PREFIX-YYYYMM-NNNNN.
func FormatCertificateNumber(prefix string, at time.Time, seq int) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCertificatePrefix
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("200601"), seq)
}

// ParseCertificateNumber splits a number produced by FormatCertificateNumber.
// The prefix itself may contain dashes.
func ParseCertificateNumber(number string) (prefix, period string, seq int, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) < 3 {
		return "", "", 0, false
	}
	n := len(parts)
	seqPart, periodPart := parts[n-1], parts[n-2]
	prefix = strings.Join(parts[:n-2], "-")
	if prefix == "" || len(seqPart) < 5 || len(periodPart) != 6 {
		return "", "", 0, false
	}
	if _, err := time.Parse("200601", periodPart); err != nil {
		return "", "", 0, false
	}
	v, err := strconv.Atoi(seqPart)
	if err != nil || v <= 0 {
		return "", "", 0, false
	}
	return prefix, periodPart, v, true
}

// NextCertificateNumber picks the sequence after the highest existing
// number with the same prefix and month. Unparsable numbers are ignored.
func NextCertificateNumber(prefix string, at time.Time, existing []string) string {
	want := FormatCertificateNumber(prefix, at, 1)
	wantPrefix, wantPeriod, _, _ := ParseCertificateNumber(want)
	highest := 0
	for _, n := range existing {
		p, period, seq, ok := ParseCertificateNumber(n)
		if !ok || p != wantPrefix || period != wantPeriod {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return FormatCertificateNumber(prefix, at, highest+1)
}
