package services

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type ExaminationService interface {
	Schedule(ctx context.Context, in domainagg.ScheduleExaminationInput) (*types.Examination, error)
	Register(ctx context.Context, in domainagg.RegisterStudentInput) (*types.StudentExamination, error)
	ChangeStatus(ctx context.Context, in domainagg.ChangeExaminationStatusInput) (*types.Examination, error)
	RecordResults(ctx context.Context, in domainagg.RecordResultsInput) (*types.Examination, error)

	// Get loads the examination with its registrations.
	Get(ctx context.Context, id uint) (*types.Examination, error)
	ListBySite(ctx context.Context, siteID uint, from, to time.Time) ([]*types.Examination, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*types.StudentExamination, error)
}

type examinationService struct {
	log           *logger.Logger
	agg           domainagg.ExaminationAggregate
	examinations  repos.ExaminationRepo
	registrations repos.StudentExaminationRepo
	publisher     TrailPublisher
}

func NewExaminationService(log *logger.Logger, agg domainagg.ExaminationAggregate, examinations repos.ExaminationRepo, registrations repos.StudentExaminationRepo, publisher TrailPublisher) ExaminationService {
	return &examinationService{
		log:           log.With("service", "ExaminationService"),
		agg:           agg,
		examinations:  examinations,
		registrations: registrations,
		publisher:     publisher,
	}
}

func (s *examinationService) Schedule(ctx context.Context, in domainagg.ScheduleExaminationInput) (*types.Examination, error) {
	res, err := s.agg.Schedule(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Examination.Schedule", res.Trail)
	return res.Examination, nil
}

func (s *examinationService) Register(ctx context.Context, in domainagg.RegisterStudentInput) (*types.StudentExamination, error) {
	res, err := s.agg.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Examination.Register", res.Trail)
	return res.Registration, nil
}

func (s *examinationService) ChangeStatus(ctx context.Context, in domainagg.ChangeExaminationStatusInput) (*types.Examination, error) {
	res, err := s.agg.ChangeStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Examination.ChangeStatus", res.Trail)
	return res.Examination, nil
}

func (s *examinationService) RecordResults(ctx context.Context, in domainagg.RecordResultsInput) (*types.Examination, error) {
	res, err := s.agg.RecordResults(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Examination.RecordResults", res.Trail)
	return res.Examination, nil
}

func (s *examinationService) Get(ctx context.Context, id uint) (*types.Examination, error) {
	const op = "School.Examination.Get"
	e, err := s.examinations.GetWithRegistrations(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if e == nil {
		return nil, notFound(op, "examination", id)
	}
	return e, nil
}

func (s *examinationService) ListBySite(ctx context.Context, siteID uint, from, to time.Time) ([]*types.Examination, error) {
	const op = "School.Examination.ListBySite"
	if siteID == 0 {
		return nil, missingID(op, "site_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	rows, err := s.examinations.ListBySite(readCtx(ctx), siteID, from, to)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *examinationService) ListByStudent(ctx context.Context, studentID uint) ([]*types.StudentExamination, error) {
	const op = "School.Examination.ListByStudent"
	if studentID == 0 {
		return nil, missingID(op, "student_id")
	}
	rows, err := s.registrations.ListByStudent(readCtx(ctx), studentID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}
