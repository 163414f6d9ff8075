package models

import (
	"time"
)

// PayoutRecord 佣金打款流水（每笔订单至多一条）
type PayoutRecord struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID        uint      `gorm:"not null;uniqueIndex" json:"order_id"`                    // 订单ID
	AffiliateID    uint      `gorm:"not null;index" json:"affiliate_id"`                      // 推广者ID
	Amount         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`     // 打款金额
	Reference      string    `gorm:"type:varchar(128);not null;default:''" json:"reference"`  // 网关流水号
	IdempotencyKey string    `gorm:"type:varchar(128);not null;index" json:"idempotency_key"` // 幂等键
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (PayoutRecord) TableName() string {
	return "payout_records"
}
