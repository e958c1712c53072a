package services

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type GradeHistoryService interface {
	Enroll(ctx context.Context, in domainagg.EnrollGradeInput) (*types.StudentGradeHistory, error)
	UpdateProgress(ctx context.Context, in domainagg.UpdateGradeProgressInput) (*types.StudentGradeHistory, error)
	Promote(ctx context.Context, in domainagg.PromoteStudentInput) (domainagg.GradeHistoryResult, error)

	Current(ctx context.Context, studentID uint) (*types.StudentGradeHistory, error)
	Timeline(ctx context.Context, studentID uint, today time.Time) (StudentTimeline, error)
}

type StudentTimeline struct {
	History []types.StudentGradeHistory `json:"history"`
	Summary school.PromotionSummary     `json:"summary"`
}

type gradeHistoryService struct {
	log       *logger.Logger
	agg       domainagg.GradeHistoryAggregate
	history   repos.StudentGradeHistoryRepo
	publisher TrailPublisher
}

func NewGradeHistoryService(log *logger.Logger, agg domainagg.GradeHistoryAggregate, history repos.StudentGradeHistoryRepo, publisher TrailPublisher) GradeHistoryService {
	return &gradeHistoryService{
		log:       log.With("service", "GradeHistoryService"),
		agg:       agg,
		history:   history,
		publisher: publisher,
	}
}

func (s *gradeHistoryService) Enroll(ctx context.Context, in domainagg.EnrollGradeInput) (*types.StudentGradeHistory, error) {
	res, err := s.agg.Enroll(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.GradeHistory.Enroll", res.Trail)
	return res.Current, nil
}

func (s *gradeHistoryService) UpdateProgress(ctx context.Context, in domainagg.UpdateGradeProgressInput) (*types.StudentGradeHistory, error) {
	res, err := s.agg.UpdateProgress(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.GradeHistory.UpdateProgress", res.Trail)
	return res.Current, nil
}

// Promote returns the closed record and the newly opened one; the trail is
// published, not returned.
func (s *gradeHistoryService) Promote(ctx context.Context, in domainagg.PromoteStudentInput) (domainagg.GradeHistoryResult, error) {
	res, err := s.agg.Promote(ctx, in)
	if err != nil {
		return domainagg.GradeHistoryResult{}, err
	}
	s.publisher.Publish(ctx, "School.GradeHistory.Promote", res.Trail)
	res.Trail = nil
	return res, nil
}

func (s *gradeHistoryService) Current(ctx context.Context, studentID uint) (*types.StudentGradeHistory, error) {
	const op = "School.GradeHistory.Current"
	if studentID == 0 {
		return nil, missingID(op, "student_id")
	}
	h, err := s.history.GetCurrent(readCtx(ctx), studentID)
	if err != nil {
		return nil, readErr(op, err)
	}
	if h == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "student has no current grade", nil)
	}
	return h, nil
}

func (s *gradeHistoryService) Timeline(ctx context.Context, studentID uint, today time.Time) (StudentTimeline, error) {
	const op = "School.GradeHistory.Timeline"
	if studentID == 0 {
		return StudentTimeline{}, missingID(op, "student_id")
	}
	rows, err := s.history.ListByStudent(readCtx(ctx), studentID)
	if err != nil {
		return StudentTimeline{}, readErr(op, err)
	}
	if rows == nil {
		rows = []types.StudentGradeHistory{}
	}
	return StudentTimeline{
		History: rows,
		Summary: school.SummarizeGradeHistory(studentID, rows, today),
	}, nil
}
