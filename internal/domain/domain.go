package domain

import (
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

const (
	AttendancePresent = school.AttendancePresent
	AttendanceAbsent  = school.AttendanceAbsent
	AttendanceLate    = school.AttendanceLate
	AttendanceExcused = school.AttendanceExcused

	PayrollDraft    = school.PayrollDraft
	PayrollApproved = school.PayrollApproved
	PayrollPaid     = school.PayrollPaid

	ExamScheduled  = school.ExamScheduled
	ExamInProgress = school.ExamInProgress
	ExamCompleted  = school.ExamCompleted
	ExamCancelled  = school.ExamCancelled

	CertificateIssued   = school.CertificateIssued
	CertificateRevoked  = school.CertificateRevoked
	CertificateReplaced = school.CertificateReplaced

	GradeHistoryActive    = school.GradeHistoryActive
	GradeHistoryCompleted = school.GradeHistoryCompleted
	GradeHistoryExtended  = school.GradeHistoryExtended

	AuditInsert = audit.ActionInsert
	AuditUpdate = audit.ActionUpdate
	AuditDelete = audit.ActionDelete
)

type AuditFields = school.AuditFields

type Company = school.Company
type Site = school.Site
type Student = school.Student
type Grade = school.Grade
type Book = school.Book
type GradeBook = school.GradeBook

type Teacher = school.Teacher
type TeacherPayroll = school.TeacherPayroll
type Attendance = school.Attendance

type Examination = school.Examination
type StudentExamination = school.StudentExamination
type Certificate = school.Certificate
type StudentGradeHistory = school.StudentGradeHistory

type BookRequisition = school.BookRequisition
type BookRequisitionDetail = school.BookRequisitionDetail

type AuditLog = audit.AuditLog

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Company{},
		&Site{},
		&Student{},
		&Teacher{},
		&Grade{},
		&Book{},
		&GradeBook{},
		&Attendance{},
		&TeacherPayroll{},
		&Examination{},
		&StudentExamination{},
		&Certificate{},
		&StudentGradeHistory{},
		&BookRequisition{},
		&BookRequisitionDetail{},
		&AuditLog{},
	}
}
