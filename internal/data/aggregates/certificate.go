package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

type CertificateAggregateDeps struct {
	Base BaseDeps

	Certificates repos.CertificateRepo
	Examinations repos.ExaminationRepo

	// Prefix for new certificate numbers; school.DefaultCertificatePrefix
	// when empty.
	Prefix string
}

type certificateAggregate struct {
	deps CertificateAggregateDeps
}

func NewCertificateAggregate(deps CertificateAggregateDeps) domainagg.CertificateAggregate {
	deps.Base = deps.Base.withDefaults()
	if strings.TrimSpace(deps.Prefix) == "" {
		deps.Prefix = school.DefaultCertificatePrefix
	}
	deps.Prefix = strings.ToUpper(strings.TrimSpace(deps.Prefix))
	return &certificateAggregate{deps: deps}
}

func (a *certificateAggregate) Contract() domainagg.Contract {
	return domainagg.CertificateAggregateContract
}

func (a *certificateAggregate) prefix(override string) string {
	if p := strings.ToUpper(strings.TrimSpace(override)); p != "" {
		return p
	}
	return a.deps.Prefix
}

// numberer hands out consecutive numbers for one prefix within one write.
type numberer struct {
	prefix   string
	existing []string
}

func (a *certificateAggregate) newNumberer(dbc dbctx.Context, prefix string) (*numberer, error) {
	existing, err := a.deps.Certificates.NumbersWithPrefix(dbc, prefix)
	if err != nil {
		return nil, err
	}
	return &numberer{prefix: prefix, existing: existing}, nil
}

func (n *numberer) next(at domainagg.Actor) string {
	number := school.NextCertificateNumber(n.prefix, at.When(), n.existing)
	n.existing = append(n.existing, number)
	return number
}

func (a *certificateAggregate) IssueForExamination(ctx context.Context, in domainagg.IssueCertificatesInput) (domainagg.CertificateResult, error) {
	const op = "School.Certificate.IssueForExamination"
	var out domainagg.CertificateResult
	if in.ExaminationID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing examination_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		exam, err := a.deps.Examinations.LockByID(dbc, in.ExaminationID)
		if err != nil {
			return err
		}
		if exam == nil {
			return notFound(op, fmt.Sprintf("examination %d", in.ExaminationID))
		}
		if exam.Status != school.ExamCompleted {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("certificates are issued once the examination is Completed (status %q)", exam.Status), nil)
		}

		var passed []school.StudentExamination
		ids := []uint{}
		for _, r := range exam.StudentExaminations {
			if r.Result == school.ResultPass {
				passed = append(passed, r)
				ids = append(ids, r.ID)
			}
		}
		existing, err := a.deps.Certificates.ListByStudentExaminations(dbc, ids)
		if err != nil {
			return err
		}
		covered := map[uint]bool{}
		for _, c := range existing {
			if c.StudentExaminationID != nil {
				covered[*c.StudentExaminationID] = true
			}
		}

		numbers, err := a.newNumberer(dbc, a.prefix(in.Prefix))
		if err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		issued := []*school.Certificate{}
		for _, r := range passed {
			if covered[r.ID] {
				continue
			}
			c, err := school.IssueCertificate(r, exam.CompanyID, exam.GradeID, exam.Title, numbers.next(in.Actor), in.Actor.When(), in.Actor.UserID)
			if err != nil {
				return err
			}
			if err := checkRules(op, c.Validate()); err != nil {
				return err
			}
			if err := a.deps.Certificates.Create(dbc, c); err != nil {
				return err
			}
			if err := tr.inserted(dbc, c, c.ID); err != nil {
				return err
			}
			issued = append(issued, c)
		}
		out = domainagg.CertificateResult{Certificates: issued, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *certificateAggregate) Revoke(ctx context.Context, in domainagg.RevokeCertificateInput) (domainagg.CertificateResult, error) {
	const op = "School.Certificate.Revoke"
	var out domainagg.CertificateResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.lock(dbc, op, in.CertificateID)
		if err != nil {
			return err
		}
		before := *c
		if err := c.Revoke(in.Reason, in.Actor.When()); err != nil {
			return err
		}
		if err := checkRules(op, c.Validate()); err != nil {
			return err
		}
		c.Touch(in.Actor.UserID)
		if err := a.deps.Certificates.Save(dbc, c); err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.updated(dbc, before, c, c.ID); err != nil {
			return err
		}
		out = domainagg.CertificateResult{Certificates: []*school.Certificate{c}, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *certificateAggregate) Replace(ctx context.Context, in domainagg.ReplaceCertificateInput) (domainagg.CertificateResult, error) {
	const op = "School.Certificate.Replace"
	var out domainagg.CertificateResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		old, err := a.lock(dbc, op, in.CertificateID)
		if err != nil {
			return err
		}
		if !old.IsValid() {
			return ConflictError(fmt.Sprintf("certificate %s is %s and cannot be replaced", old.CertificateNumber, old.Status))
		}
		before := *old

		numbers, err := a.newNumberer(dbc, a.prefix(in.Prefix))
		if err != nil {
			return err
		}
		repl := &school.Certificate{
			CompanyID:            old.CompanyID,
			StudentID:            old.StudentID,
			GradeID:              old.GradeID,
			ExaminationID:        old.ExaminationID,
			StudentExaminationID: old.StudentExaminationID,
			CertificateNumber:    numbers.next(in.Actor),
			Title:                old.Title,
			IssueDate:            rules.DateOnly(in.Actor.When()),
			Status:               school.CertificateIssued,
		}
		repl.Stamp(in.Actor.UserID)
		if err := checkRules(op, repl.Validate()); err != nil {
			return err
		}
		if err := a.deps.Certificates.Create(dbc, repl); err != nil {
			return err
		}
		if err := old.MarkAsReplaced(repl.ID, in.Actor.When()); err != nil {
			return err
		}
		old.Touch(in.Actor.UserID)
		if err := a.deps.Certificates.Save(dbc, old); err != nil {
			return err
		}

		tr := newTrail(a.deps.Base.Audit, in.Actor)
		if err := tr.inserted(dbc, repl, repl.ID); err != nil {
			return err
		}
		if err := tr.updated(dbc, before, old, old.ID); err != nil {
			return err
		}
		out = domainagg.CertificateResult{Certificates: []*school.Certificate{repl, old}, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *certificateAggregate) lock(dbc dbctx.Context, op string, id uint) (*school.Certificate, error) {
	if id == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing certificate_id", nil)
	}
	c, err := a.deps.Certificates.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound(op, fmt.Sprintf("certificate %d", id))
	}
	return c, nil
}
