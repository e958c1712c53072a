package services

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type AttendanceService interface {
	Record(ctx context.Context, in domainagg.RecordAttendanceInput) ([]*types.Attendance, error)
	Mark(ctx context.Context, in domainagg.MarkAttendanceInput) (*types.Attendance, error)

	Get(ctx context.Context, id uint) (*types.Attendance, error)
	ListByStudent(ctx context.Context, studentID uint, from, to time.Time) ([]*types.Attendance, error)
	ListByTeacher(ctx context.Context, teacherID uint, from, to time.Time) ([]*types.Attendance, error)
}

type attendanceService struct {
	log        *logger.Logger
	agg        domainagg.AttendanceAggregate
	attendance repos.AttendanceRepo
	publisher  TrailPublisher
}

func NewAttendanceService(log *logger.Logger, agg domainagg.AttendanceAggregate, attendance repos.AttendanceRepo, publisher TrailPublisher) AttendanceService {
	return &attendanceService{
		log:        log.With("service", "AttendanceService"),
		agg:        agg,
		attendance: attendance,
		publisher:  publisher,
	}
}

func (s *attendanceService) Record(ctx context.Context, in domainagg.RecordAttendanceInput) ([]*types.Attendance, error) {
	res, err := s.agg.Record(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Attendance.Record", res.Trail)
	return res.Lessons, nil
}

func (s *attendanceService) Mark(ctx context.Context, in domainagg.MarkAttendanceInput) (*types.Attendance, error) {
	res, err := s.agg.Mark(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Attendance.Mark", res.Trail)
	if len(res.Lessons) == 0 {
		return nil, nil
	}
	return res.Lessons[0], nil
}

func (s *attendanceService) Get(ctx context.Context, id uint) (*types.Attendance, error) {
	const op = "School.Attendance.Get"
	a, err := s.attendance.GetByID(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if a == nil {
		return nil, notFound(op, "attendance", id)
	}
	return a, nil
}

func (s *attendanceService) ListByStudent(ctx context.Context, studentID uint, from, to time.Time) ([]*types.Attendance, error) {
	const op = "School.Attendance.ListByStudent"
	if studentID == 0 {
		return nil, missingID(op, "student_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	rows, err := s.attendance.ListByStudent(readCtx(ctx), studentID, from, to)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *attendanceService) ListByTeacher(ctx context.Context, teacherID uint, from, to time.Time) ([]*types.Attendance, error) {
	const op = "School.Attendance.ListByTeacher"
	if teacherID == 0 {
		return nil, missingID(op, "teacher_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	rows, err := s.attendance.ListByTeacher(readCtx(ctx), teacherID, from, to)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

// checkRange rejects a missing or inverted date range.
func checkRange(op string, from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return domainagg.NewError(domainagg.CodeValidation, op, "from and to are required", nil)
	}
	if rules.DateOnly(to).Before(rules.DateOnly(from)) {
		return domainagg.NewError(domainagg.CodeValidation, op, "to is before from", nil)
	}
	return nil
}
