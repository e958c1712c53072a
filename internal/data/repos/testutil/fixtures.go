package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var seq atomic.Int64

// code returns a short value unique within the test binary.
func code(prefix string) string {
	return fmt.Sprintf("%s%06d", prefix, seq.Add(1))
}

// SeedSite creates a company and one site under it.
func SeedSite(tb testing.TB, tx *gorm.DB) *types.Site {
	tb.Helper()
	c := &types.Company{Code: code("C"), Name: "Cadenza Music", IsActive: true}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed company: %v", err)
	}
	s := &types.Site{CompanyID: c.ID, Code: code("S"), Name: "Main", IsActive: true}
	if err := tx.Omit("Company").Create(s).Error; err != nil {
		tb.Fatalf("seed site: %v", err)
	}
	return s
}

func SeedStudent(tb testing.TB, tx *gorm.DB, site *types.Site) *types.Student {
	tb.Helper()
	st := &types.Student{
		CompanyID:   site.CompanyID,
		SiteID:      site.ID,
		StudentCode: code("ST"),
		FullName:    "Lena Park",
		Instrument:  "Piano",
		Status:      school.StudentStatusActive,
	}
	if err := tx.Create(st).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return st
}

func SeedTeacher(tb testing.TB, tx *gorm.DB, site *types.Site, rate string) *types.Teacher {
	tb.Helper()
	t := &types.Teacher{
		CompanyID:      site.CompanyID,
		SiteID:         site.ID,
		EmployeeCode:   code("T"),
		FullName:       "Ana Ruiz",
		Instrument:     "Piano",
		HourlyRate:     decimal.RequireFromString(rate),
		MaxWeeklyHours: 30,
		HireDate:       time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:         school.TeacherStatusActive,
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed teacher: %v", err)
	}
	return t
}

func SeedGrade(tb testing.TB, tx *gorm.DB, companyID uint, level int) *types.Grade {
	tb.Helper()
	g := &types.Grade{
		CompanyID:              companyID,
		Code:                   code("G"),
		Name:                   fmt.Sprintf("Piano Grade %d", level),
		Level:                  level,
		Instrument:             "Piano",
		ExpectedDurationMonths: 12,
		IsActive:               true,
	}
	if err := tx.Create(g).Error; err != nil {
		tb.Fatalf("seed grade: %v", err)
	}
	return g
}

func SeedBook(tb testing.TB, tx *gorm.DB, companyID uint, stock int) *types.Book {
	tb.Helper()
	b := &types.Book{
		CompanyID: companyID,
		Title:     "Scales and Arpeggios",
		Price:     decimal.RequireFromString("12.50"),
		Stock:     stock,
		IsActive:  true,
	}
	if err := tx.Create(b).Error; err != nil {
		tb.Fatalf("seed book: %v", err)
	}
	return b
}

// SeedLesson creates an attendance row on day with a 60 minute slot at 15:00.
func SeedLesson(tb testing.TB, tx *gorm.DB, student *types.Student, teacher *types.Teacher, day time.Time, status string) *types.Attendance {
	tb.Helper()
	start := time.Date(day.Year(), day.Month(), day.Day(), 15, 0, 0, 0, time.UTC)
	a := &types.Attendance{
		CompanyID:      student.CompanyID,
		SiteID:         student.SiteID,
		StudentID:      student.ID,
		TeacherID:      teacher.ID,
		AttendanceDate: start,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         status,
	}
	switch status {
	case school.AttendancePresent:
		s, e := start, start.Add(time.Hour)
		a.ActualStart, a.ActualEnd = &s, &e
	case school.AttendanceLate:
		s, e := start.Add(10*time.Minute), start.Add(time.Hour)
		a.ActualStart, a.ActualEnd = &s, &e
	}
	if err := tx.Omit("Student", "Teacher").Create(a).Error; err != nil {
		tb.Fatalf("seed attendance: %v", err)
	}
	return a
}
