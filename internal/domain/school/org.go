package school

import (
	"fmt"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

type Company struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Code            string `gorm:"column:code;size:20;not null;uniqueIndex" json:"code" validate:"required,max=20"`
	Name            string `gorm:"column:name;size:150;not null" json:"name" validate:"required,max=150"`
	ParentCompanyID *uint  `gorm:"column:parent_company_id;index" json:"parent_company_id,omitempty"`
	IsActive        bool   `gorm:"column:is_active;not null" json:"is_active"`
	AuditFields
}

func (Company) TableName() string { return "company" }

func (c Company) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(c))
	s.Check(c.ID != 0 && c.ParentCompanyID != nil && *c.ParentCompanyID == c.ID, "company cannot be its own parent")
	return s.List()
}

// CompanyAncestors walks the parent chain of id, nearest parent first.
// A chain that loops back on itself yields ErrInvariant.
func CompanyAncestors(byID map[uint]Company, id uint) ([]uint, error) {
	seen := map[uint]bool{id: true}
	var out []uint
	cur, ok := byID[id]
	for ok && cur.ParentCompanyID != nil {
		parent := *cur.ParentCompanyID
		if seen[parent] {
			return out, fmt.Errorf("%w: company %d has a cyclic parent chain at %d", ErrInvariant, id, parent)
		}
		seen[parent] = true
		out = append(out, parent)
		cur, ok = byID[parent]
	}
	return out, nil
}

type Site struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CompanyID uint     `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	Code      string   `gorm:"column:code;size:20;not null" json:"code" validate:"required,max=20"`
	Name      string   `gorm:"column:name;size:150;not null" json:"name" validate:"required,max=150"`
	Address   string   `gorm:"column:address;size:300" json:"address,omitempty" validate:"max=300"`
	RoomCount int      `gorm:"column:room_count;not null" json:"room_count" validate:"gte=0,lte=500"`
	IsActive  bool     `gorm:"column:is_active;not null" json:"is_active"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty" validate:"-"`
	AuditFields
}

func (Site) TableName() string { return "site" }

func (s Site) Validate() []string {
	return rules.Struct(s)
}
