package database

import (
	"gorm.io/gorm"
)

// Paginate applies skip/limit to a GORM query. A non-positive limit leaves
// the result uncapped.
func Paginate(skip, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if skip > 0 {
			db = db.Offset(skip)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	}
}
