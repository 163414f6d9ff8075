package models

import (
	"time"
)

// Order 订单表（外部订单号为幂等键）
type Order struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                         // 主键
	ExternalID        string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"order_id"`       // 外部订单号
	MerchantID        uint       `gorm:"not null;index" json:"merchant_id"`                            // 商户ID
	AffiliateID       *uint      `gorm:"index" json:"affiliate_id"`                                    // 推广者ID（未归因为空）
	CustomerEmail     string     `gorm:"type:varchar(255);not null;default:''" json:"customer_email"`  // 顾客邮箱
	Subtotal          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 订单小计
	CommissionOwed    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"commission_owed"` // 应付佣金（入库后冻结）
	PayoutStatus      string     `gorm:"type:varchar(20);not null;index" json:"payout_status"`         // 结算状态
	PayoutScheduledAt *time.Time `gorm:"index" json:"payout_scheduled_at,omitempty"`                   // 结算任务派发时间（在途标记）
	PaidAt            *time.Time `json:"paid_at,omitempty"`                                            // 结算完成时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间

	Affiliate *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 推广者
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Attributed 是否已归因到推广者
func (o *Order) Attributed() bool {
	return o != nil && o.AffiliateID != nil && *o.AffiliateID != 0
}
