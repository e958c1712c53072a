package school

import (
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type StudentGradeHistoryRepo interface {
	Create(dbc dbctx.Context, h *types.StudentGradeHistory) error
	GetByID(dbc dbctx.Context, id uint) (*types.StudentGradeHistory, error)
	LockByID(dbc dbctx.Context, id uint) (*types.StudentGradeHistory, error)
	// GetCurrent returns the student's current grade record, or nil.
	GetCurrent(dbc dbctx.Context, studentID uint) (*types.StudentGradeHistory, error)
	ListByStudent(dbc dbctx.Context, studentID uint) ([]types.StudentGradeHistory, error)
	Save(dbc dbctx.Context, h *types.StudentGradeHistory) error
}

type studentGradeHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentGradeHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StudentGradeHistoryRepo {
	return &studentGradeHistoryRepo{db: db, log: baseLog.With("repo", "StudentGradeHistoryRepo")}
}

func (r *studentGradeHistoryRepo) Create(dbc dbctx.Context, h *types.StudentGradeHistory) error {
	return dbc.DB(r.db).Omit("Grade").Create(h).Error
}

func (r *studentGradeHistoryRepo) GetByID(dbc dbctx.Context, id uint) (*types.StudentGradeHistory, error) {
	return firstByID[types.StudentGradeHistory](dbc.DB(r.db), id)
}

func (r *studentGradeHistoryRepo) LockByID(dbc dbctx.Context, id uint) (*types.StudentGradeHistory, error) {
	return lockByID[types.StudentGradeHistory](dbc.DB(r.db), id)
}

func (r *studentGradeHistoryRepo) GetCurrent(dbc dbctx.Context, studentID uint) (*types.StudentGradeHistory, error) {
	var rows []types.StudentGradeHistory
	if err := dbc.DB(r.db).
		Where("student_id = ? AND is_current_grade = ?", studentID, true).
		Order("start_date DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *studentGradeHistoryRepo) ListByStudent(dbc dbctx.Context, studentID uint) ([]types.StudentGradeHistory, error) {
	out := []types.StudentGradeHistory{}
	if err := dbc.DB(r.db).
		Preload("Grade").
		Where("student_id = ?", studentID).
		Order("start_date ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentGradeHistoryRepo) Save(dbc dbctx.Context, h *types.StudentGradeHistory) error {
	return dbc.DB(r.db).Omit("Grade").Save(h).Error
}
