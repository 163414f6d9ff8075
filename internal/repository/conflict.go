package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createOnConflictDoNothing 条件插入：命中唯一约束时不报错，返回是否真正插入
func createOnConflictDoNothing(db *gorm.DB, value interface{}, columns ...string) (bool, error) {
	conflictColumns := make([]clause.Column, 0, len(columns))
	for _, name := range columns {
		conflictColumns = append(conflictColumns, clause.Column{Name: name})
	}
	result := db.Clauses(clause.OnConflict{Columns: conflictColumns, DoNothing: true}).Create(value)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsUniqueViolation 判断是否唯一约束冲突（兼容 sqlite 与 postgres）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
