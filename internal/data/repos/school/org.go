package school

import (
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type CompanyRepo interface {
	Create(dbc dbctx.Context, c *types.Company) error
	GetByID(dbc dbctx.Context, id uint) (*types.Company, error)
	ListAll(dbc dbctx.Context) ([]*types.Company, error)
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{db: db, log: baseLog.With("repo", "CompanyRepo")}
}

func (r *companyRepo) Create(dbc dbctx.Context, c *types.Company) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *companyRepo) GetByID(dbc dbctx.Context, id uint) (*types.Company, error) {
	return firstByID[types.Company](dbc.DB(r.db), id)
}

func (r *companyRepo) ListAll(dbc dbctx.Context) ([]*types.Company, error) {
	var out []*types.Company
	if err := dbc.DB(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type SiteRepo interface {
	Create(dbc dbctx.Context, s *types.Site) error
	GetByID(dbc dbctx.Context, id uint) (*types.Site, error)
	ListByCompany(dbc dbctx.Context, companyID uint) ([]*types.Site, error)
}

type siteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSiteRepo(db *gorm.DB, baseLog *logger.Logger) SiteRepo {
	return &siteRepo{db: db, log: baseLog.With("repo", "SiteRepo")}
}

func (r *siteRepo) Create(dbc dbctx.Context, s *types.Site) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *siteRepo) GetByID(dbc dbctx.Context, id uint) (*types.Site, error) {
	return firstByID[types.Site](dbc.DB(r.db), id)
}

func (r *siteRepo) ListByCompany(dbc dbctx.Context, companyID uint) ([]*types.Site, error) {
	var out []*types.Site
	if err := dbc.DB(r.db).
		Where("company_id = ?", companyID).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
