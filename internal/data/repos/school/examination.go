package school

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type ExaminationRepo interface {
	Create(dbc dbctx.Context, e *types.Examination) error
	GetByID(dbc dbctx.Context, id uint) (*types.Examination, error)
	// GetWithRegistrations loads the examination and every registration.
	GetWithRegistrations(dbc dbctx.Context, id uint) (*types.Examination, error)
	LockByID(dbc dbctx.Context, id uint) (*types.Examination, error)
	ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.Examination, error)
	Save(dbc dbctx.Context, e *types.Examination) error
}

type examinationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExaminationRepo(db *gorm.DB, baseLog *logger.Logger) ExaminationRepo {
	return &examinationRepo{db: db, log: baseLog.With("repo", "ExaminationRepo")}
}

func (r *examinationRepo) Create(dbc dbctx.Context, e *types.Examination) error {
	return dbc.DB(r.db).Omit("Grade", "StudentExaminations").Create(e).Error
}

func (r *examinationRepo) GetByID(dbc dbctx.Context, id uint) (*types.Examination, error) {
	return firstByID[types.Examination](dbc.DB(r.db), id)
}

func (r *examinationRepo) GetWithRegistrations(dbc dbctx.Context, id uint) (*types.Examination, error) {
	e, err := firstByID[types.Examination](dbc.DB(r.db), id)
	if err != nil || e == nil {
		return e, err
	}
	return e, r.loadRegistrations(dbc, e)
}

// LockByID locks the examination row and loads its registrations, so
// capacity checks see every committed registration.
func (r *examinationRepo) LockByID(dbc dbctx.Context, id uint) (*types.Examination, error) {
	e, err := lockByID[types.Examination](dbc.DB(r.db), id)
	if err != nil || e == nil {
		return e, err
	}
	return e, r.loadRegistrations(dbc, e)
}

func (r *examinationRepo) loadRegistrations(dbc dbctx.Context, e *types.Examination) error {
	regs := []types.StudentExamination{}
	if err := dbc.DB(r.db).
		Where("examination_id = ?", e.ID).
		Order("registered_at ASC, id ASC").
		Find(&regs).Error; err != nil {
		return err
	}
	e.StudentExaminations = regs
	return nil
}

func (r *examinationRepo) ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.Examination, error) {
	start, end := dayBounds(from, to)
	var out []*types.Examination
	if err := dbc.DB(r.db).
		Where("site_id = ?", siteID).
		Where("start_time >= ? AND start_time < ?", start, end).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *examinationRepo) Save(dbc dbctx.Context, e *types.Examination) error {
	return dbc.DB(r.db).Omit("Grade", "StudentExaminations").Save(e).Error
}

type StudentExaminationRepo interface {
	Create(dbc dbctx.Context, se *types.StudentExamination) error
	ListByExamination(dbc dbctx.Context, examinationID uint) ([]*types.StudentExamination, error)
	ListByStudent(dbc dbctx.Context, studentID uint) ([]*types.StudentExamination, error)
	Save(dbc dbctx.Context, se *types.StudentExamination) error
}

type studentExaminationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentExaminationRepo(db *gorm.DB, baseLog *logger.Logger) StudentExaminationRepo {
	return &studentExaminationRepo{db: db, log: baseLog.With("repo", "StudentExaminationRepo")}
}

func (r *studentExaminationRepo) Create(dbc dbctx.Context, se *types.StudentExamination) error {
	return dbc.DB(r.db).Omit("Student").Create(se).Error
}

func (r *studentExaminationRepo) ListByExamination(dbc dbctx.Context, examinationID uint) ([]*types.StudentExamination, error) {
	var out []*types.StudentExamination
	if err := dbc.DB(r.db).
		Where("examination_id = ?", examinationID).
		Order("registered_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentExaminationRepo) ListByStudent(dbc dbctx.Context, studentID uint) ([]*types.StudentExamination, error) {
	var out []*types.StudentExamination
	if err := dbc.DB(r.db).
		Where("student_id = ?", studentID).
		Order("registered_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentExaminationRepo) Save(dbc dbctx.Context, se *types.StudentExamination) error {
	return dbc.DB(r.db).Omit("Student").Save(se).Error
}
