package school

import (
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type CertificateRepo interface {
	Create(dbc dbctx.Context, c *types.Certificate) error
	GetByID(dbc dbctx.Context, id uint) (*types.Certificate, error)
	GetByNumber(dbc dbctx.Context, number string) (*types.Certificate, error)
	LockByID(dbc dbctx.Context, id uint) (*types.Certificate, error)
	// NumbersWithPrefix lists certificate numbers starting with prefix, for
	// sequence allocation.
	NumbersWithPrefix(dbc dbctx.Context, prefix string) ([]string, error)
	ListByStudent(dbc dbctx.Context, studentID uint) ([]*types.Certificate, error)
	ListByStudentExaminations(dbc dbctx.Context, ids []uint) ([]*types.Certificate, error)
	Save(dbc dbctx.Context, c *types.Certificate) error
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) Create(dbc dbctx.Context, c *types.Certificate) error {
	return dbc.DB(r.db).Omit("Student", "Grade").Create(c).Error
}

func (r *certificateRepo) GetByID(dbc dbctx.Context, id uint) (*types.Certificate, error) {
	return firstByID[types.Certificate](dbc.DB(r.db), id)
}

func (r *certificateRepo) GetByNumber(dbc dbctx.Context, number string) (*types.Certificate, error) {
	if number == "" {
		return nil, nil
	}
	var rows []types.Certificate
	if err := dbc.DB(r.db).
		Preload("Student").
		Preload("Grade").
		Where("certificate_number = ?", number).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *certificateRepo) LockByID(dbc dbctx.Context, id uint) (*types.Certificate, error) {
	return lockByID[types.Certificate](dbc.DB(r.db), id)
}

func (r *certificateRepo) NumbersWithPrefix(dbc dbctx.Context, prefix string) ([]string, error) {
	var out []string
	if err := dbc.DB(r.db).
		Model(&types.Certificate{}).
		Where("certificate_number LIKE ?", prefix+"%").
		Pluck("certificate_number", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificateRepo) ListByStudent(dbc dbctx.Context, studentID uint) ([]*types.Certificate, error) {
	var out []*types.Certificate
	if err := dbc.DB(r.db).
		Where("student_id = ?", studentID).
		Order("issue_date DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificateRepo) ListByStudentExaminations(dbc dbctx.Context, ids []uint) ([]*types.Certificate, error) {
	var out []*types.Certificate
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("student_examination_id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificateRepo) Save(dbc dbctx.Context, c *types.Certificate) error {
	return dbc.DB(r.db).Omit("Student", "Grade").Save(c).Error
}
