package repository

import (
	"fmt"
	"time"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// StatsRepository 商户订单聚合查询接口
// 说明：只读聚合，不承载业务规则。
type StatsRepository interface {
	OrderStats(merchantID uint, from, to time.Time) (OrderStatsRow, error)
	OrderTrends(merchantID uint, from, to time.Time) ([]OrderTrendRow, error)
}

// GormStatsRepository GORM 聚合实现
type GormStatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建聚合仓库
func NewStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

const (
	statsCommissionExpr = "COALESCE(SUM(CASE WHEN affiliate_id IS NOT NULL THEN commission_owed ELSE 0 END), 0)"
	statsRevenueExpr    = "COALESCE(SUM(subtotal), 0)"
)

func (r *GormStatsRepository) rangeBase(merchantID uint, from, to time.Time) *gorm.DB {
	return r.db.Model(&models.Order{}).
		Where("merchant_id = ? AND created_at >= ? AND created_at <= ?", merchantID, from, to)
}

// OrderStats 统计区间内订单数、应付佣金（仅归因订单）与营收
func (r *GormStatsRepository) OrderStats(merchantID uint, from, to time.Time) (OrderStatsRow, error) {
	var row OrderStatsRow
	err := r.rangeBase(merchantID, from, to).
		Select(fmt.Sprintf("COUNT(*) AS order_count, %s AS commission_owed, %s AS revenue", statsCommissionExpr, statsRevenueExpr)).
		Scan(&row).Error
	if err != nil {
		return OrderStatsRow{}, err
	}
	return row, nil
}

// OrderTrends 按日统计区间内订单
func (r *GormStatsRepository) OrderTrends(merchantID uint, from, to time.Time) ([]OrderTrendRow, error) {
	dayExpr := dayExprByDialect(dbDialectName(r.db), "created_at")
	var rows []OrderTrendRow
	err := r.rangeBase(merchantID, from, to).
		Select(fmt.Sprintf("%s AS day, COUNT(*) AS order_count, %s AS commission_owed, %s AS revenue", dayExpr, statsCommissionExpr, statsRevenueExpr)).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
