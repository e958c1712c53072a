package school

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type StudentRepo interface {
	Create(dbc dbctx.Context, s *types.Student) error
	GetByID(dbc dbctx.Context, id uint) (*types.Student, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Student, error)
	ListBySite(dbc dbctx.Context, siteID uint, status string) ([]*types.Student, error)
	Save(dbc dbctx.Context, s *types.Student) error
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) Create(dbc dbctx.Context, s *types.Student) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *studentRepo) GetByID(dbc dbctx.Context, id uint) (*types.Student, error) {
	return firstByID[types.Student](dbc.DB(r.db), id)
}

func (r *studentRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Student, error) {
	return findByIDs[types.Student](dbc.DB(r.db), ids)
}

// ListBySite filters by status when status is non-empty.
func (r *studentRepo) ListBySite(dbc dbctx.Context, siteID uint, status string) ([]*types.Student, error) {
	q := dbc.DB(r.db).Where("site_id = ?", siteID)
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Student
	if err := q.Order("full_name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *studentRepo) Save(dbc dbctx.Context, s *types.Student) error {
	return dbc.DB(r.db).Save(s).Error
}

type TeacherRepo interface {
	Create(dbc dbctx.Context, t *types.Teacher) error
	GetByID(dbc dbctx.Context, id uint) (*types.Teacher, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Teacher, error)
	GetByEmployeeCode(dbc dbctx.Context, code string) (*types.Teacher, error)
	ListByCompany(dbc dbctx.Context, companyID uint, status string) ([]*types.Teacher, error)
	Save(dbc dbctx.Context, t *types.Teacher) error
}

type teacherRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeacherRepo(db *gorm.DB, baseLog *logger.Logger) TeacherRepo {
	return &teacherRepo{db: db, log: baseLog.With("repo", "TeacherRepo")}
}

func (r *teacherRepo) Create(dbc dbctx.Context, t *types.Teacher) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *teacherRepo) GetByID(dbc dbctx.Context, id uint) (*types.Teacher, error) {
	return firstByID[types.Teacher](dbc.DB(r.db), id)
}

func (r *teacherRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Teacher, error) {
	return findByIDs[types.Teacher](dbc.DB(r.db), ids)
}

func (r *teacherRepo) GetByEmployeeCode(dbc dbctx.Context, code string) (*types.Teacher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var rows []types.Teacher
	if err := dbc.DB(r.db).Where("employee_code = ?", code).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *teacherRepo) ListByCompany(dbc dbctx.Context, companyID uint, status string) ([]*types.Teacher, error) {
	q := dbc.DB(r.db).Where("company_id = ?", companyID)
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Teacher
	if err := q.Order("employee_code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teacherRepo) Save(dbc dbctx.Context, t *types.Teacher) error {
	return dbc.DB(r.db).Save(t).Error
}
