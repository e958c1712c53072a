package school

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type BookRequisitionRepo interface {
	// Create inserts the header and its lines.
	Create(dbc dbctx.Context, r *types.BookRequisition) error
	GetByID(dbc dbctx.Context, id uint) (*types.BookRequisition, error)
	LockByID(dbc dbctx.Context, id uint) (*types.BookRequisition, error)
	// CountForDay counts requisitions at a site dated on day, for numbering.
	CountForDay(dbc dbctx.Context, siteID uint, day time.Time) (int64, error)
	ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.BookRequisition, error)
	SaveDetail(dbc dbctx.Context, d *types.BookRequisitionDetail) error
}

type bookRequisitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRequisitionRepo(db *gorm.DB, baseLog *logger.Logger) BookRequisitionRepo {
	return &bookRequisitionRepo{db: db, log: baseLog.With("repo", "BookRequisitionRepo")}
}

func (r *bookRequisitionRepo) Create(dbc dbctx.Context, req *types.BookRequisition) error {
	return dbc.DB(r.db).Omit("Details.Book").Create(req).Error
}

func (r *bookRequisitionRepo) GetByID(dbc dbctx.Context, id uint) (*types.BookRequisition, error) {
	return r.load(dbc.DB(r.db), id)
}

func (r *bookRequisitionRepo) LockByID(dbc dbctx.Context, id uint) (*types.BookRequisition, error) {
	req, err := lockByID[types.BookRequisition](dbc.DB(r.db), id)
	if err != nil || req == nil {
		return req, err
	}
	return req, r.loadDetails(dbc.DB(r.db), req)
}

func (r *bookRequisitionRepo) load(db *gorm.DB, id uint) (*types.BookRequisition, error) {
	req, err := firstByID[types.BookRequisition](db, id)
	if err != nil || req == nil {
		return req, err
	}
	return req, r.loadDetails(db, req)
}

func (r *bookRequisitionRepo) loadDetails(db *gorm.DB, req *types.BookRequisition) error {
	details := []types.BookRequisitionDetail{}
	if err := db.
		Preload("Book").
		Where("book_requisition_id = ?", req.ID).
		Order("id ASC").
		Find(&details).Error; err != nil {
		return fmt.Errorf("load requisition %d lines: %w", req.ID, err)
	}
	req.Details = details
	return nil
}

func (r *bookRequisitionRepo) CountForDay(dbc dbctx.Context, siteID uint, day time.Time) (int64, error) {
	start, end := dayBounds(day, day)
	var n int64
	err := dbc.DB(r.db).
		Model(&types.BookRequisition{}).
		Where("site_id = ? AND request_date >= ? AND request_date < ?", siteID, start, end).
		Count(&n).Error
	return n, err
}

func (r *bookRequisitionRepo) ListBySite(dbc dbctx.Context, siteID uint, from, to time.Time) ([]*types.BookRequisition, error) {
	start, end := dayBounds(from, to)
	var out []*types.BookRequisition
	if err := dbc.DB(r.db).
		Preload("Details").
		Where("site_id = ? AND request_date >= ? AND request_date < ?", siteID, start, end).
		Order("request_date ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bookRequisitionRepo) SaveDetail(dbc dbctx.Context, d *types.BookRequisitionDetail) error {
	return dbc.DB(r.db).Omit("Book").Save(d).Error
}
