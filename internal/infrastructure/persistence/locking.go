package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds an exclusive row lock (SELECT ... FOR UPDATE) held until the
// surrounding transaction ends. Dialects without row locks ignore the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// insertIfAbsent inserts value unless a row with the same unique key exists
func insertIfAbsent(db *gorm.DB, value any, keyColumns ...string) error {
	columns := make([]clause.Column, len(keyColumns))
	for i, c := range keyColumns {
		columns[i] = clause.Column{Name: c}
	}
	return db.Clauses(clause.OnConflict{Columns: columns, DoNothing: true}).Create(value).Error
}
