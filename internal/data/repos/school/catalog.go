package school

import (
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type GradeRepo interface {
	Create(dbc dbctx.Context, g *types.Grade) error
	GetByID(dbc dbctx.Context, id uint) (*types.Grade, error)
	// NextLevel returns the active grade one level above, for the same
	// company and instrument, or nil.
	NextLevel(dbc dbctx.Context, g *types.Grade) (*types.Grade, error)
	ListByCompany(dbc dbctx.Context, companyID uint) ([]*types.Grade, error)
}

type gradeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradeRepo(db *gorm.DB, baseLog *logger.Logger) GradeRepo {
	return &gradeRepo{db: db, log: baseLog.With("repo", "GradeRepo")}
}

func (r *gradeRepo) Create(dbc dbctx.Context, g *types.Grade) error {
	return dbc.DB(r.db).Create(g).Error
}

func (r *gradeRepo) GetByID(dbc dbctx.Context, id uint) (*types.Grade, error) {
	return firstByID[types.Grade](dbc.DB(r.db), id)
}

func (r *gradeRepo) NextLevel(dbc dbctx.Context, g *types.Grade) (*types.Grade, error) {
	if g == nil {
		return nil, nil
	}
	var rows []types.Grade
	if err := dbc.DB(r.db).
		Where("company_id = ? AND instrument = ? AND level = ? AND is_active = ?", g.CompanyID, g.Instrument, g.Level+1, true).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *gradeRepo) ListByCompany(dbc dbctx.Context, companyID uint) ([]*types.Grade, error) {
	var out []*types.Grade
	if err := dbc.DB(r.db).
		Where("company_id = ?", companyID).
		Order("instrument ASC, level ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type BookRepo interface {
	Create(dbc dbctx.Context, b *types.Book) error
	GetByID(dbc dbctx.Context, id uint) (*types.Book, error)
	GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Book, error)
	// TakeStock decrements stock by qty only when enough is on hand.
	// false means nothing changed.
	TakeStock(dbc dbctx.Context, id uint, qty int) (bool, error)
	Save(dbc dbctx.Context, b *types.Book) error
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) Create(dbc dbctx.Context, b *types.Book) error {
	return dbc.DB(r.db).Create(b).Error
}

func (r *bookRepo) GetByID(dbc dbctx.Context, id uint) (*types.Book, error) {
	return firstByID[types.Book](dbc.DB(r.db), id)
}

func (r *bookRepo) GetByIDs(dbc dbctx.Context, ids []uint) ([]*types.Book, error) {
	return findByIDs[types.Book](dbc.DB(r.db), ids)
}

func (r *bookRepo) TakeStock(dbc dbctx.Context, id uint, qty int) (bool, error) {
	if qty <= 0 {
		return true, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Book{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookRepo) Save(dbc dbctx.Context, b *types.Book) error {
	return dbc.DB(r.db).Save(b).Error
}

type GradeBookRepo interface {
	Create(dbc dbctx.Context, items []*types.GradeBook) error
	// ListByGrade returns the grade's reading list with books loaded, in
	// sort order.
	ListByGrade(dbc dbctx.Context, gradeID uint) ([]types.GradeBook, error)
	Delete(dbc dbctx.Context, gradeID, bookID uint) error
}

type gradeBookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradeBookRepo(db *gorm.DB, baseLog *logger.Logger) GradeBookRepo {
	return &gradeBookRepo{db: db, log: baseLog.With("repo", "GradeBookRepo")}
}

func (r *gradeBookRepo) Create(dbc dbctx.Context, items []*types.GradeBook) error {
	if len(items) == 0 {
		return nil
	}
	return dbc.DB(r.db).Omit("Grade", "Book").Create(&items).Error
}

func (r *gradeBookRepo) ListByGrade(dbc dbctx.Context, gradeID uint) ([]types.GradeBook, error) {
	out := []types.GradeBook{}
	if err := dbc.DB(r.db).
		Preload("Book").
		Where("grade_id = ?", gradeID).
		Order("sort_order ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gradeBookRepo) Delete(dbc dbctx.Context, gradeID, bookID uint) error {
	return dbc.DB(r.db).
		Where("grade_id = ? AND book_id = ?", gradeID, bookID).
		Delete(&types.GradeBook{}).Error
}
