package school

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

// Grade is a curriculum level (Grade 1, Grade 2, ...).
type Grade struct {
	ID                     uint   `gorm:"primaryKey" json:"id"`
	CompanyID              uint   `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	Code                   string `gorm:"column:code;size:20;not null" json:"code" validate:"required,max=20"`
	Name                   string `gorm:"column:name;size:100;not null" json:"name" validate:"required,max=100"`
	Level                  int    `gorm:"column:level;not null" json:"level" validate:"gte=1,lte=20"`
	Instrument             string `gorm:"column:instrument;size:50" json:"instrument,omitempty" validate:"max=50"`
	ExpectedDurationMonths int    `gorm:"column:expected_duration_months;not null" json:"expected_duration_months" validate:"gte=1,lte=60"`
	IsActive               bool   `gorm:"column:is_active;not null" json:"is_active"`
	AuditFields
}

func (Grade) TableName() string { return "grade" }

func (g Grade) Validate() []string {
	return rules.Struct(g)
}

type Book struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CompanyID uint            `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	Title     string          `gorm:"column:title;size:200;not null" json:"title" validate:"required,max=200"`
	Author    string          `gorm:"column:author;size:150" json:"author,omitempty" validate:"max=150"`
	ISBN      string          `gorm:"column:isbn;size:20" json:"isbn,omitempty" validate:"omitempty,isbn"`
	Publisher string          `gorm:"column:publisher;size:150" json:"publisher,omitempty" validate:"max=150"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock     int             `gorm:"column:stock_quantity;not null" json:"stock_quantity" validate:"gte=0"`
	IsActive  bool            `gorm:"column:is_active;not null" json:"is_active"`
	AuditFields
}

func (Book) TableName() string { return "book" }

func (b Book) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(b))
	s.Check(b.Price.IsNegative(), "price must not be negative")
	return s.List()
}

// GradeBook maps a book onto a grade's reading list.
type GradeBook struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	GradeID     uint   `gorm:"column:grade_id;not null;uniqueIndex:idx_grade_book_pair" json:"grade_id" validate:"required"`
	BookID      uint   `gorm:"column:book_id;not null;uniqueIndex:idx_grade_book_pair" json:"book_id" validate:"required"`
	IsMandatory bool   `gorm:"column:is_mandatory;not null" json:"is_mandatory"`
	SortOrder   int    `gorm:"column:sort_order;not null" json:"sort_order" validate:"gte=0"`
	Grade       *Grade `gorm:"foreignKey:GradeID" json:"grade,omitempty" validate:"-"`
	Book        *Book  `gorm:"foreignKey:BookID" json:"book,omitempty" validate:"-"`
	AuditFields
}

func (GradeBook) TableName() string { return "grade_book" }

func (gb GradeBook) Validate() []string {
	return rules.Struct(gb)
}

// ValidateGradeBooks reports every (grade, book) pair mapped more than once.
func ValidateGradeBooks(items []GradeBook) []string {
	type pair struct{ grade, book uint }
	var s rules.Set
	seen := map[pair]int{}
	for _, gb := range items {
		p := pair{gb.GradeID, gb.BookID}
		seen[p]++
		if seen[p] == 2 {
			s.Add(fmt.Sprintf("book %d is mapped to grade %d more than once", gb.BookID, gb.GradeID))
		}
	}
	return s.List()
}
