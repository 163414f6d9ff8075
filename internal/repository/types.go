package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateListFilter 查询推广者列表的过滤条件
type AffiliateListFilter struct {
	Page       int
	PageSize   int
	MerchantID uint
	Keyword    string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	MerchantID   uint
	AffiliateID  uint
	PayoutStatus string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// OrderStatsRow 商户订单区间聚合结果
type OrderStatsRow struct {
	OrderCount     int64
	CommissionOwed decimal.Decimal
	Revenue        decimal.Decimal
}

// OrderTrendRow 商户订单按日趋势
type OrderTrendRow struct {
	Day            string          `json:"day"`
	OrderCount     int64           `json:"order_count"`
	CommissionOwed decimal.Decimal `json:"commission_owed"`
	Revenue        decimal.Decimal `json:"revenue"`
}
