package school

import (
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type TeacherPayrollRepo interface {
	Create(dbc dbctx.Context, p *types.TeacherPayroll) error
	GetByID(dbc dbctx.Context, id uint) (*types.TeacherPayroll, error)
	LockByID(dbc dbctx.Context, id uint) (*types.TeacherPayroll, error)
	FindOverlapping(dbc dbctx.Context, teacherID uint, from, to time.Time) ([]*types.TeacherPayroll, error)
	ListByCompanyPeriod(dbc dbctx.Context, companyID uint, from, to time.Time, statuses []string) ([]*types.TeacherPayroll, error)
	Save(dbc dbctx.Context, p *types.TeacherPayroll) error
}

type teacherPayrollRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeacherPayrollRepo(db *gorm.DB, baseLog *logger.Logger) TeacherPayrollRepo {
	return &teacherPayrollRepo{db: db, log: baseLog.With("repo", "TeacherPayrollRepo")}
}

func (r *teacherPayrollRepo) Create(dbc dbctx.Context, p *types.TeacherPayroll) error {
	return dbc.DB(r.db).Omit("Teacher").Create(p).Error
}

func (r *teacherPayrollRepo) GetByID(dbc dbctx.Context, id uint) (*types.TeacherPayroll, error) {
	return firstByID[types.TeacherPayroll](dbc.DB(r.db), id)
}

func (r *teacherPayrollRepo) LockByID(dbc dbctx.Context, id uint) (*types.TeacherPayroll, error) {
	return lockByID[types.TeacherPayroll](dbc.DB(r.db), id)
}

// FindOverlapping returns the teacher's payrolls whose period intersects
// [from, to].
func (r *teacherPayrollRepo) FindOverlapping(dbc dbctx.Context, teacherID uint, from, to time.Time) ([]*types.TeacherPayroll, error) {
	var out []*types.TeacherPayroll
	start, end := dayBounds(from, to)
	if err := dbc.DB(r.db).
		Where("teacher_id = ?", teacherID).
		Where("period_start < ? AND period_end >= ?", end, start).
		Order("period_start ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCompanyPeriod returns payrolls whose period starts inside [from, to].
// An empty statuses slice means any status.
func (r *teacherPayrollRepo) ListByCompanyPeriod(dbc dbctx.Context, companyID uint, from, to time.Time, statuses []string) ([]*types.TeacherPayroll, error) {
	start, end := dayBounds(from, to)
	q := dbc.DB(r.db).
		Where("company_id = ?", companyID).
		Where("period_start >= ? AND period_start < ?", start, end)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []*types.TeacherPayroll
	if err := q.Order("period_start ASC, teacher_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *teacherPayrollRepo) Save(dbc dbctx.Context, p *types.TeacherPayroll) error {
	return dbc.DB(r.db).Omit("Teacher").Save(p).Error
}
