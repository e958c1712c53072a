package school

import (
	"fmt"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
	AttendanceExcused = "Excused"
)

const (
	MinAttendanceMinutes = 5
	MaxAttendanceMinutes = 480
)

const (
	DurationShort    = "Short"
	DurationStandard = "Standard"
	DurationExtended = "Extended"
	DurationLong     = "Long"
	DurationUnknown  = "N/A"
)

var attendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused}

// Attendance is one student's presence at one scheduled lesson.
type Attendance struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CompanyID      uint       `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	SiteID         uint       `gorm:"column:site_id;not null;index" json:"site_id" validate:"required"`
	StudentID      uint       `gorm:"column:student_id;not null;index" json:"student_id" validate:"required"`
	TeacherID      uint       `gorm:"column:teacher_id;not null;index" json:"teacher_id" validate:"required"`
	AttendanceDate time.Time  `gorm:"column:attendance_date;type:date;not null;index" json:"attendance_date" validate:"required"`
	ScheduledStart time.Time  `gorm:"column:scheduled_start;not null" json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time  `gorm:"column:scheduled_end;not null" json:"scheduled_end" validate:"required"`
	ActualStart    *time.Time `gorm:"column:actual_start" json:"actual_start,omitempty"`
	ActualEnd      *time.Time `gorm:"column:actual_end" json:"actual_end,omitempty"`
	Status         string     `gorm:"column:status;size:20;not null;index" json:"status"`
	Notes          *string    `gorm:"column:notes;size:500" json:"notes,omitempty" validate:"omitempty,max=500"`
	Student        *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty" validate:"-"`
	Teacher        *Teacher   `gorm:"foreignKey:TeacherID" json:"teacher,omitempty" validate:"-"`
	AuditFields
}

func (Attendance) TableName() string { return "attendance" }

func (a Attendance) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(a))
	statusRule(&s, a.Status, attendanceStatuses...)

	if !a.ScheduledStart.IsZero() && !a.ScheduledEnd.IsZero() {
		s.Check(!a.ScheduledEnd.After(a.ScheduledStart), "scheduled end time must be after scheduled start time")
	}

	switch a.Status {
	case AttendancePresent, AttendanceLate:
		s.Checkf(a.ActualStart == nil, "actual start time is required when status is %s", a.Status)
		s.Checkf(a.ActualEnd == nil, "actual end time is required when status is %s", a.Status)
		if a.Status == AttendanceLate && a.ActualStart != nil && !a.ScheduledStart.IsZero() {
			s.Check(!a.ActualStart.After(a.ScheduledStart), "a late arrival must start after the scheduled start time")
		}
	case AttendanceAbsent:
		s.Check(a.ActualStart != nil || a.ActualEnd != nil, "an absent record must not have actual times")
	case AttendanceExcused:
		s.Check(rules.Blank(a.Notes), "an excused absence requires a reason in notes")
	}

	if a.ActualStart != nil && a.ActualEnd != nil {
		if !a.ActualEnd.After(*a.ActualStart) {
			s.Add("actual end time must be after actual start time")
		} else if d := a.ActualEnd.Sub(*a.ActualStart); d < MinAttendanceMinutes*time.Minute || d > MaxAttendanceMinutes*time.Minute {
			s.Add(fmt.Sprintf("actual duration must be between %d and %d minutes", MinAttendanceMinutes, MaxAttendanceMinutes))
		}
	}
	return s.List()
}

// ActualDurationMinutes is the attended time; ok is false unless both
// actual times are recorded.
func (a Attendance) ActualDurationMinutes() (minutes int, ok bool) {
	if a.ActualStart == nil || a.ActualEnd == nil {
		return 0, false
	}
	return int(a.ActualEnd.Sub(*a.ActualStart) / time.Minute), true
}

func (a Attendance) ScheduledDurationMinutes() int {
	d := int(a.ScheduledEnd.Sub(a.ScheduledStart) / time.Minute)
	if d < 0 {
		return 0
	}
	return d
}

func (a Attendance) FormattedDuration() string {
	m, ok := a.ActualDurationMinutes()
	if !ok {
		return DurationUnknown
	}
	return rules.FormatMinutes(m)
}

// LateMinutes is how far the actual start trails the scheduled start.
func (a Attendance) LateMinutes() int {
	if a.ActualStart == nil || !a.ActualStart.After(a.ScheduledStart) {
		return 0
	}
	return int(a.ActualStart.Sub(a.ScheduledStart) / time.Minute)
}

func (a Attendance) IsAttended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}

func (a Attendance) DurationCategory() string {
	m, ok := a.ActualDurationMinutes()
	switch {
	case !ok || m <= 0:
		return DurationUnknown
	case m < 30:
		return DurationShort
	case m <= 60:
		return DurationStandard
	case m <= 120:
		return DurationExtended
	default:
		return DurationLong
	}
}

func checkAttendedWindow(start, end time.Time) error {
	if !end.After(start) {
		return rangeErr("actual end time must be after actual start time")
	}
	m := int(end.Sub(start) / time.Minute)
	if m < MinAttendanceMinutes || m > MaxAttendanceMinutes {
		return rangeErr("actual duration %d must be between %d and %d minutes", m, MinAttendanceMinutes, MaxAttendanceMinutes)
	}
	return nil
}

func (a *Attendance) MarkPresent(start, end time.Time) error {
	if err := checkAttendedWindow(start, end); err != nil {
		return err
	}
	a.Status = AttendancePresent
	a.ActualStart, a.ActualEnd = &start, &end
	return nil
}

func (a *Attendance) MarkLate(start, end time.Time) error {
	if !a.ScheduledStart.IsZero() && !start.After(a.ScheduledStart) {
		return preconditionErr("late arrival at %s is not after the scheduled start", start.Format(time.Kitchen))
	}
	if err := checkAttendedWindow(start, end); err != nil {
		return err
	}
	a.Status = AttendanceLate
	a.ActualStart, a.ActualEnd = &start, &end
	return nil
}

func (a *Attendance) MarkAbsent() error {
	a.Status = AttendanceAbsent
	a.ActualStart, a.ActualEnd = nil, nil
	return nil
}

func (a *Attendance) MarkExcused(reason string) error {
	note := trimmed(reason)
	if note == nil {
		return argumentErr("an excused absence requires a reason")
	}
	a.Status = AttendanceExcused
	a.ActualStart, a.ActualEnd = nil, nil
	a.Notes = note
	return nil
}

type AttendanceSummary struct {
	Total           int     `json:"total"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Late            int     `json:"late"`
	Excused         int     `json:"excused"`
	AttendanceRate  float64 `json:"attendance_rate"`
	PunctualityRate float64 `json:"punctuality_rate"`
	TotalMinutes    int     `json:"total_minutes"`
	AverageMinutes  float64 `json:"average_minutes"`
}

// SummarizeAttendance aggregates a batch of records. Rates are percentages
// rounded to two decimals.
func SummarizeAttendance(records []Attendance) AttendanceSummary {
	var out AttendanceSummary
	timed := 0
	for _, a := range records {
		out.Total++
		switch a.Status {
		case AttendancePresent:
			out.Present++
		case AttendanceAbsent:
			out.Absent++
		case AttendanceLate:
			out.Late++
		case AttendanceExcused:
			out.Excused++
		}
		if m, ok := a.ActualDurationMinutes(); ok && m > 0 && a.IsAttended() {
			out.TotalMinutes += m
			timed++
		}
	}
	attended := out.Present + out.Late
	out.AttendanceRate = rules.Round2(rules.Percent(float64(attended), float64(out.Total)))
	out.PunctualityRate = rules.Round2(rules.Percent(float64(out.Present), float64(attended)))
	if timed > 0 {
		out.AverageMinutes = rules.Round2(float64(out.TotalMinutes) / float64(timed))
	}
	return out
}
