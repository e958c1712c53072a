package school

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

// firstByID loads one row. A missing row is (nil, nil); callers decide
// whether that is an error.
func firstByID[T any](db *gorm.DB, id uint) (*T, error) {
	if id == 0 {
		return nil, nil
	}
	var rows []T
	if err := db.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// lockByID is firstByID with SELECT ... FOR UPDATE. sqlite ignores the
// locking clause.
func lockByID[T any](db *gorm.DB, id uint) (*T, error) {
	return firstByID[T](db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func findByIDs[T any](db *gorm.DB, ids []uint) ([]*T, error) {
	var out []*T
	if len(ids) == 0 {
		return out, nil
	}
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// dayBounds turns an inclusive date range into [from, to+1d).
func dayBounds(from, to time.Time) (time.Time, time.Time) {
	return rules.DateOnly(from), rules.DateOnly(to).AddDate(0, 0, 1)
}
