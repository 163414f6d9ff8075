package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Merchant 商户表
type Merchant struct {
	ID                          uint            `gorm:"primarykey" json:"id"`                                                 // 主键
	UserID                      uint            `gorm:"not null;uniqueIndex" json:"user_id"`                                  // 所属用户ID
	Domain                      string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"domain"`                 // 店铺域名
	DisplayName                 string          `gorm:"type:varchar(255);not null;default:''" json:"display_name"`            // 显示名称
	DefaultCommissionRate       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"default_commission_rate"` // 默认佣金比例
	TurnCustomersIntoAffiliates bool            `gorm:"not null;default:false" json:"turn_customers_into_affiliates"`         // 顾客自动成为推广者
	CreatedAt                   time.Time       `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt                   time.Time       `gorm:"index" json:"updated_at"`                                              // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 所属用户
}

// TableName 指定表名
func (Merchant) TableName() string {
	return "merchants"
}
