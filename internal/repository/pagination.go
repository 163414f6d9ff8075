package repository

import "gorm.io/gorm"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage 归一化分页参数：页码从 1 开始，每页条数限制在 [1, 100]
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// applyPagination 应用分页参数，pageSize<=0 表示不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	page, pageSize = NormalizePage(page, pageSize)
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
