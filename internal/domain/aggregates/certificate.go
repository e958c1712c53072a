package aggregates

import (
	"context"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var CertificateAggregateContract = Contract{
	Name:             "School.CertificateAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Issues numbered certificates for passed results; revocation and replacement are terminal.",
}

type CertificateAggregate interface {
	Aggregate

	// IssueForExamination issues one certificate per Pass result of a
	// Completed examination that does not already have one.
	IssueForExamination(ctx context.Context, in IssueCertificatesInput) (CertificateResult, error)

	Revoke(ctx context.Context, in RevokeCertificateInput) (CertificateResult, error)

	// Replace issues a new number for the same result and marks the old
	// certificate Replaced.
	Replace(ctx context.Context, in ReplaceCertificateInput) (CertificateResult, error)
}

type IssueCertificatesInput struct {
	Actor         Actor
	ExaminationID uint
	// Prefix overrides the configured number prefix when set.
	Prefix string
}

type RevokeCertificateInput struct {
	Actor         Actor
	CertificateID uint
	Reason        string
}

type ReplaceCertificateInput struct {
	Actor         Actor
	CertificateID uint
	Prefix        string
}

type CertificateResult struct {
	Certificates []*school.Certificate
	Trail        Trail
}
