package school

import (
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	StudentStatusActive    = "Active"
	StudentStatusInactive  = "Inactive"
	StudentStatusGraduated = "Graduated"
)

const (
	AgeCategoryChild   = "Child"
	AgeCategoryTeen    = "Teen"
	AgeCategoryAdult   = "Adult"
	AgeCategoryUnknown = "Unknown"
)

type Student struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CompanyID   uint       `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	SiteID      uint       `gorm:"column:site_id;not null;index" json:"site_id" validate:"required"`
	StudentCode string     `gorm:"column:student_code;size:20;not null;uniqueIndex" json:"student_code" validate:"required,max=20"`
	FullName    string     `gorm:"column:full_name;size:100;not null" json:"full_name" validate:"required,max=100"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth;type:date" json:"date_of_birth,omitempty"`
	Instrument  string     `gorm:"column:instrument;size:50" json:"instrument,omitempty" validate:"max=50"`
	Email       string     `gorm:"column:email;size:150" json:"email,omitempty" validate:"omitempty,email,max=150"`
	Status      string     `gorm:"column:status;size:20;not null;index" json:"status"`
	AuditFields
}

func (Student) TableName() string { return "student" }

func (st Student) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(st))
	statusRule(&s, st.Status, StudentStatusActive, StudentStatusInactive, StudentStatusGraduated)
	return s.List()
}

// Age in whole years on now; -1 when the date of birth is unknown.
func (st Student) Age(now time.Time) int {
	if st.DateOfBirth == nil {
		return -1
	}
	dob := *st.DateOfBirth
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return -1
	}
	return years
}

func (st Student) AgeCategory(now time.Time) string {
	age := st.Age(now)
	switch {
	case age < 0:
		return AgeCategoryUnknown
	case age < 13:
		return AgeCategoryChild
	case age < 18:
		return AgeCategoryTeen
	default:
		return AgeCategoryAdult
	}
}

func (st Student) IsActive() bool { return st.Status == StudentStatusActive }
