package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Affiliate 推广者（用户与商户的推广关系，每对唯一）
type Affiliate struct {
	ID             uint            `gorm:"primarykey" json:"id"`                                                                 // 主键
	UserID         uint            `gorm:"not null;uniqueIndex:idx_affiliate_user_merchant,priority:1" json:"user_id"`           // 用户ID
	MerchantID     uint            `gorm:"not null;uniqueIndex:idx_affiliate_user_merchant,priority:2;index" json:"merchant_id"` // 商户ID
	CommissionRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_rate"`                         // 佣金比例
	DiscountCode   string          `gorm:"type:varchar(64);not null;default:''" json:"discount_code"`                            // 折扣码
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`                                                              // 创建时间
	UpdatedAt      time.Time       `gorm:"index" json:"updated_at"`                                                              // 更新时间

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`         // 用户信息（预加载时返回）
	Merchant *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"` // 商户信息
}

// TableName 指定表名
func (Affiliate) TableName() string {
	return "affiliates"
}
