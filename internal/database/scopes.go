package database

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a task query to rows authored by authorID.
func OwnedBy(authorID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID)
	}
}

// OwnedTask restricts a query to the single task taskID authored by authorID.
func OwnedTask(taskID, authorID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(OwnedBy(authorID)).Where("id = ?", taskID)
	}
}

// InsertionOrder sorts rows oldest first.
func InsertionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
