package school

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type AttendanceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Attendance) ([]*types.Attendance, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Attendance, error)
	LockByID(dbc dbctx.Context, id uint) (*types.Attendance, error)
	ListByTeacher(dbc dbctx.Context, teacherID uint, from, to time.Time) ([]*types.Attendance, error)
	ListByStudent(dbc dbctx.Context, studentID uint, from, to time.Time) ([]*types.Attendance, error)
	ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.Attendance, error)
	Save(dbc dbctx.Context, a *types.Attendance) error
}

type attendanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttendanceRepo(db *gorm.DB, baseLog *logger.Logger) AttendanceRepo {
	return &attendanceRepo{db: db, log: baseLog.With("repo", "AttendanceRepo")}
}

func (r *attendanceRepo) Create(dbc dbctx.Context, rows []*types.Attendance) ([]*types.Attendance, error) {
	if len(rows) == 0 {
		return []*types.Attendance{}, nil
	}
	if err := dbc.DB(r.db).Omit("Student", "Teacher").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attendanceRepo) GetByID(dbc dbctx.Context, id uint) (*types.Attendance, error) {
	return firstByID[types.Attendance](dbc.DB(r.db), id)
}

func (r *attendanceRepo) LockByID(dbc dbctx.Context, id uint) (*types.Attendance, error) {
	return lockByID[types.Attendance](dbc.DB(r.db), id)
}

func (r *attendanceRepo) ListByTeacher(dbc dbctx.Context, teacherID uint, from, to time.Time) ([]*types.Attendance, error) {
	return r.listInRange(dbc, "teacher_id", teacherID, from, to)
}

func (r *attendanceRepo) ListByStudent(dbc dbctx.Context, studentID uint, from, to time.Time) ([]*types.Attendance, error) {
	return r.listInRange(dbc, "student_id", studentID, from, to)
}

func (r *attendanceRepo) ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.Attendance, error) {
	return r.listInRange(dbc, "site_id", siteID, from, to)
}

// listInRange is inclusive of both dates.
func (r *attendanceRepo) listInRange(dbc dbctx.Context, column string, id uint, from, to time.Time) ([]*types.Attendance, error) {
	var out []*types.Attendance
	if id == 0 {
		return out, nil
	}
	start, end := dayBounds(from, to)
	if err := dbc.DB(r.db).
		Where(column+" = ?", id).
		Where("attendance_date >= ? AND attendance_date < ?", start, end).
		Order("attendance_date ASC, scheduled_start ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attendanceRepo) Save(dbc dbctx.Context, a *types.Attendance) error {
	return dbc.DB(r.db).Omit("Student", "Teacher").Save(a).Error
}
