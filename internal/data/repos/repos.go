package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/cadenza-backend/internal/data/repos/audit"
	"github.com/yungbote/cadenza-backend/internal/data/repos/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type CompanyRepo = school.CompanyRepo
type SiteRepo = school.SiteRepo

type StudentRepo = school.StudentRepo
type TeacherRepo = school.TeacherRepo

type GradeRepo = school.GradeRepo
type BookRepo = school.BookRepo
type GradeBookRepo = school.GradeBookRepo

type AttendanceRepo = school.AttendanceRepo
type TeacherPayrollRepo = school.TeacherPayrollRepo

type ExaminationRepo = school.ExaminationRepo
type StudentExaminationRepo = school.StudentExaminationRepo
type CertificateRepo = school.CertificateRepo
type StudentGradeHistoryRepo = school.StudentGradeHistoryRepo

type BookRequisitionRepo = school.BookRequisitionRepo

type AuditLogRepo = audit.AuditLogRepo

// Set bundles every repo over one *gorm.DB.
type Set struct {
	Companies           CompanyRepo
	Sites               SiteRepo
	Students            StudentRepo
	Teachers            TeacherRepo
	Grades              GradeRepo
	Books               BookRepo
	GradeBooks          GradeBookRepo
	Attendance          AttendanceRepo
	Payrolls            TeacherPayrollRepo
	Examinations        ExaminationRepo
	StudentExaminations StudentExaminationRepo
	Certificates        CertificateRepo
	GradeHistory        StudentGradeHistoryRepo
	Requisitions        BookRequisitionRepo
	AuditLogs           AuditLogRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Companies:           school.NewCompanyRepo(db, baseLog),
		Sites:               school.NewSiteRepo(db, baseLog),
		Students:            school.NewStudentRepo(db, baseLog),
		Teachers:            school.NewTeacherRepo(db, baseLog),
		Grades:              school.NewGradeRepo(db, baseLog),
		Books:               school.NewBookRepo(db, baseLog),
		GradeBooks:          school.NewGradeBookRepo(db, baseLog),
		Attendance:          school.NewAttendanceRepo(db, baseLog),
		Payrolls:            school.NewTeacherPayrollRepo(db, baseLog),
		Examinations:        school.NewExaminationRepo(db, baseLog),
		StudentExaminations: school.NewStudentExaminationRepo(db, baseLog),
		Certificates:        school.NewCertificateRepo(db, baseLog),
		GradeHistory:        school.NewStudentGradeHistoryRepo(db, baseLog),
		Requisitions:        school.NewBookRequisitionRepo(db, baseLog),
		AuditLogs:           audit.NewAuditLogRepo(db, baseLog),
	}
}
