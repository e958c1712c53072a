package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type CertificateService interface {
	IssueForExamination(ctx context.Context, in domainagg.IssueCertificatesInput) ([]*types.Certificate, error)
	Revoke(ctx context.Context, in domainagg.RevokeCertificateInput) (*types.Certificate, error)
	// Replace returns the new certificate.
	Replace(ctx context.Context, in domainagg.ReplaceCertificateInput) (*types.Certificate, error)

	Get(ctx context.Context, id uint) (*types.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*types.Certificate, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*types.Certificate, error)

	// RenderPNG draws the printable certificate.
	RenderPNG(ctx context.Context, id uint) (bytes.Buffer, error)
	// Archive renders the certificate and stores the PNG in object storage.
	Archive(ctx context.Context, id uint) (ArchivedCertificate, error)
}

// CertificateArchive stores rendered certificates.
type CertificateArchive interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	PublicURL(key string) string
}

type ArchivedCertificate struct {
	CertificateID uint   `json:"certificate_id"`
	Key           string `json:"key"`
	URL           string `json:"url"`
	Bytes         int    `json:"bytes"`
}

type certificateService struct {
	log          *logger.Logger
	agg          domainagg.CertificateAggregate
	certificates repos.CertificateRepo
	students     repos.StudentRepo
	grades       repos.GradeRepo
	companies    repos.CompanyRepo
	renderer     CertificateRenderer
	archive      CertificateArchive
	publisher    TrailPublisher
}

type CertificateServiceDeps struct {
	Log          *logger.Logger
	Aggregate    domainagg.CertificateAggregate
	Certificates repos.CertificateRepo
	Students     repos.StudentRepo
	Grades       repos.GradeRepo
	Companies    repos.CompanyRepo
	Renderer     CertificateRenderer
	Archive      CertificateArchive
	Publisher    TrailPublisher
}

func NewCertificateService(deps CertificateServiceDeps) CertificateService {
	return &certificateService{
		log:          deps.Log.With("service", "CertificateService"),
		agg:          deps.Aggregate,
		certificates: deps.Certificates,
		students:     deps.Students,
		grades:       deps.Grades,
		companies:    deps.Companies,
		renderer:     deps.Renderer,
		archive:      deps.Archive,
		publisher:    deps.Publisher,
	}
}

func (s *certificateService) IssueForExamination(ctx context.Context, in domainagg.IssueCertificatesInput) ([]*types.Certificate, error) {
	res, err := s.agg.IssueForExamination(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Certificate.IssueForExamination", res.Trail)
	return res.Certificates, nil
}

func (s *certificateService) Revoke(ctx context.Context, in domainagg.RevokeCertificateInput) (*types.Certificate, error) {
	res, err := s.agg.Revoke(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Certificate.Revoke", res.Trail)
	return first(res.Certificates), nil
}

func (s *certificateService) Replace(ctx context.Context, in domainagg.ReplaceCertificateInput) (*types.Certificate, error) {
	res, err := s.agg.Replace(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Certificate.Replace", res.Trail)
	return first(res.Certificates), nil
}

func first[T any](rows []*T) *T {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func (s *certificateService) Get(ctx context.Context, id uint) (*types.Certificate, error) {
	const op = "School.Certificate.Get"
	c, err := s.certificates.GetByID(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if c == nil {
		return nil, notFound(op, "certificate", id)
	}
	return c, nil
}

func (s *certificateService) GetByNumber(ctx context.Context, number string) (*types.Certificate, error) {
	const op = "School.Certificate.GetByNumber"
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, missingID(op, "certificate_number")
	}
	c, err := s.certificates.GetByNumber(readCtx(ctx), number)
	if err != nil {
		return nil, readErr(op, err)
	}
	if c == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "certificate "+number+" not found", nil)
	}
	return c, nil
}

func (s *certificateService) ListByStudent(ctx context.Context, studentID uint) ([]*types.Certificate, error) {
	const op = "School.Certificate.ListByStudent"
	if studentID == 0 {
		return nil, missingID(op, "student_id")
	}
	rows, err := s.certificates.ListByStudent(readCtx(ctx), studentID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *certificateService) RenderPNG(ctx context.Context, id uint) (bytes.Buffer, error) {
	const op = "School.Certificate.RenderPNG"
	if s.renderer == nil {
		return bytes.Buffer{}, domainagg.NewError(domainagg.CodePreconditionFailed, op, "certificate rendering is not configured", nil)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return bytes.Buffer{}, err
	}
	return s.render(ctx, op, c)
}

func (s *certificateService) Archive(ctx context.Context, id uint) (ArchivedCertificate, error) {
	const op = "School.Certificate.Archive"
	if s.renderer == nil || s.archive == nil {
		return ArchivedCertificate{}, domainagg.NewError(domainagg.CodePreconditionFailed, op, "certificate archive is not configured", nil)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return ArchivedCertificate{}, err
	}
	buf, err := s.render(ctx, op, c)
	if err != nil {
		return ArchivedCertificate{}, err
	}
	out := ArchivedCertificate{
		CertificateID: c.ID,
		Key:           archiveKey(c),
		Bytes:         buf.Len(),
	}
	if err := s.archive.Upload(ctx, out.Key, &buf); err != nil {
		s.log.Warn("certificate upload failed", "certificate_id", c.ID, "key", out.Key, "error", err)
		return ArchivedCertificate{}, domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	out.URL = s.archive.PublicURL(out.Key)
	s.log.Info("certificate archived", "certificate_id", c.ID, "key", out.Key, "bytes", out.Bytes)
	return out, nil
}

// archiveKey is stable per number so re-archiving overwrites.
func archiveKey(c *types.Certificate) string {
	return fmt.Sprintf("certificates/%d/%s.png", c.CompanyID, strings.ToLower(c.CertificateNumber))
}

func (s *certificateService) render(ctx context.Context, op string, c *types.Certificate) (bytes.Buffer, error) {
	var buf bytes.Buffer
	dbc := readCtx(ctx)

	doc := CertificateDocument{
		Title:     c.Title,
		Number:    c.CertificateNumber,
		IssueDate: c.IssueDate,
		Status:    c.Status,
	}
	student, err := s.students.GetByID(dbc, c.StudentID)
	if err != nil {
		return buf, readErr(op, err)
	}
	if student == nil {
		return buf, notFound(op, "student", c.StudentID)
	}
	doc.StudentName = student.FullName

	grade, err := s.grades.GetByID(dbc, c.GradeID)
	if err != nil {
		return buf, readErr(op, err)
	}
	if grade != nil {
		doc.GradeName = grade.Name
	}
	if s.companies != nil {
		company, err := s.companies.GetByID(dbc, c.CompanyID)
		if err != nil {
			return buf, readErr(op, err)
		}
		if company != nil {
			doc.SchoolName = company.Name
		}
	}

	buf, err = s.renderer.Render(doc)
	if err != nil {
		s.log.Error("certificate render failed", "certificate_id", c.ID, "error", err)
		return buf, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return buf, nil
}
