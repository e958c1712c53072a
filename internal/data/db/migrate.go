package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/cadenza-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

type indexDef struct {
	name string
	sql  string
}

// Indexes that gorm tags cannot express. The (grade_id, book_id) and
// certificate_number unique indexes come from struct tags.
var schoolIndexes = []indexDef{
	{
		// At most one current grade per student.
		name: "idx_student_grade_history_current",
		sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_student_grade_history_current ON student_grade_history (student_id) WHERE is_current_grade = true;`,
	},
	{
		name: "idx_attendance_teacher_date",
		sql:  `CREATE INDEX IF NOT EXISTS idx_attendance_teacher_date ON attendance (teacher_id, attendance_date);`,
	},
	{
		name: "idx_attendance_student_date",
		sql:  `CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance (student_id, attendance_date);`,
	},
	{
		name: "idx_payroll_company_period",
		sql:  `CREATE INDEX IF NOT EXISTS idx_payroll_company_period ON teacher_payroll (company_id, period_start, period_end);`,
	},
	{
		name: "idx_audit_log_occurred",
		sql:  `CREATE INDEX IF NOT EXISTS idx_audit_log_occurred ON audit_log (entity_name, occurred_at);`,
	},
}

func EnsureSchoolIndexes(db *gorm.DB) error {
	for _, idx := range schoolIndexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}
	return nil
}
