package school

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	TeacherStatusActive     = "Active"
	TeacherStatusOnLeave    = "On Leave"
	TeacherStatusInactive   = "Inactive"
	TeacherStatusTerminated = "Terminated"
)

type Teacher struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CompanyID       uint            `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	SiteID          uint            `gorm:"column:site_id;not null;index" json:"site_id" validate:"required"`
	EmployeeCode    string          `gorm:"column:employee_code;size:20;not null;uniqueIndex" json:"employee_code" validate:"required,max=20"`
	FullName        string          `gorm:"column:full_name;size:100;not null" json:"full_name" validate:"required,max=100"`
	Email           string          `gorm:"column:email;size:150" json:"email,omitempty" validate:"omitempty,email,max=150"`
	Phone           string          `gorm:"column:phone;size:30" json:"phone,omitempty" validate:"max=30"`
	Instrument      string          `gorm:"column:instrument;size:50" json:"instrument,omitempty" validate:"max=50"`
	HourlyRate      decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null" json:"hourly_rate"`
	MaxWeeklyHours  int             `gorm:"column:max_weekly_hours;not null" json:"max_weekly_hours" validate:"gte=1,lte=60"`
	HireDate        time.Time       `gorm:"column:hire_date;type:date;not null" json:"hire_date" validate:"required"`
	TerminationDate *time.Time      `gorm:"column:termination_date;type:date" json:"termination_date,omitempty"`
	Status          string          `gorm:"column:status;size:20;not null;index" json:"status"`
	AuditFields
}

func (Teacher) TableName() string { return "teacher" }

func (t Teacher) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(t))
	statusRule(&s, t.Status, TeacherStatusActive, TeacherStatusOnLeave, TeacherStatusInactive, TeacherStatusTerminated)
	s.Check(!t.HourlyRate.IsPositive(), "hourly rate must be greater than zero")
	if t.TerminationDate != nil && !t.HireDate.IsZero() {
		s.Check(rules.DateOnly(*t.TerminationDate).Before(rules.DateOnly(t.HireDate)), "termination date must not be before hire date")
	}
	if t.Status == TeacherStatusTerminated {
		s.Check(t.TerminationDate == nil, "a terminated teacher requires a termination date")
	} else {
		s.Check(t.TerminationDate != nil, "only terminated teachers may have a termination date")
	}
	return s.List()
}

func (t Teacher) DisplayName() string {
	name := strings.TrimSpace(t.FullName)
	if t.EmployeeCode == "" {
		return name
	}
	return fmt.Sprintf("%s - %s", t.EmployeeCode, name)
}

// YearsOfService counts full years from hire date to termination or now.
func (t Teacher) YearsOfService(now time.Time) int {
	if t.HireDate.IsZero() {
		return 0
	}
	end := now
	if t.TerminationDate != nil {
		end = *t.TerminationDate
	}
	years := end.Year() - t.HireDate.Year()
	if end.Month() < t.HireDate.Month() || (end.Month() == t.HireDate.Month() && end.Day() < t.HireDate.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func (t Teacher) IsAvailable() bool { return t.Status == TeacherStatusActive }

const (
	UtilizationUnder   = "Under"
	UtilizationOptimal = "Optimal"
	UtilizationOver    = "Over"
	UtilizationNone    = "None"
)

// UtilizationBands are percentage thresholds: below Under is under-used,
// above Over is over-used.
type UtilizationBands struct {
	Under float64 `yaml:"under" json:"under"`
	Over  float64 `yaml:"over" json:"over"`
}

var DefaultUtilizationBands = UtilizationBands{Under: 50, Over: 90}

type Utilization struct {
	TeacherID      uint      `json:"teacher_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Lessons        int       `json:"lessons"`
	ScheduledHours float64   `json:"scheduled_hours"`
	TaughtHours    float64   `json:"taught_hours"`
	CapacityHours  float64   `json:"capacity_hours"`
	Rate           float64   `json:"rate"`
	Band           string    `json:"band"`
}

// TeacherUtilization compares the hours t actually taught between from and
// to (inclusive dates) with MaxWeeklyHours scaled to the same span.
// Records for other teachers or outside the range are ignored.
func TeacherUtilization(t Teacher, records []Attendance, from, to time.Time, bands UtilizationBands) Utilization {
	out := Utilization{TeacherID: t.ID, From: rules.DateOnly(from), To: rules.DateOnly(to), Band: UtilizationNone}
	days := rules.DaysBetween(from, to) + 1
	if days <= 0 {
		return out
	}
	var scheduled, taught int
	for _, a := range records {
		if a.TeacherID != t.ID || !inDateRange(a.AttendanceDate, from, to) {
			continue
		}
		out.Lessons++
		scheduled += a.ScheduledDurationMinutes()
		if m, ok := a.ActualDurationMinutes(); ok && m > 0 && a.IsAttended() {
			taught += m
		}
	}
	out.ScheduledHours = rules.Round2(float64(scheduled) / 60)
	out.TaughtHours = rules.Round2(float64(taught) / 60)
	out.CapacityHours = rules.Round2(float64(t.MaxWeeklyHours) * float64(days) / 7)
	if out.CapacityHours <= 0 {
		return out
	}
	out.Rate = rules.Round2(rules.Percent(float64(taught)/60, float64(t.MaxWeeklyHours)*float64(days)/7))
	switch {
	case out.Rate < bands.Under:
		out.Band = UtilizationUnder
	case out.Rate > bands.Over:
		out.Band = UtilizationOver
	default:
		out.Band = UtilizationOptimal
	}
	return out
}
