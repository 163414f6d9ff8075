package models

import (
	"time"
)

// User 身份表（商户与推广者共用，邮箱全局唯一）
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                // 主键
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"` // 邮箱
	DisplayName  string    `gorm:"default:''" json:"display_name"`                      // 显示名称
	Role         string    `gorm:"type:varchar(20);not null;index" json:"role"`         // 角色（创建后不可变）
	PasswordHash string    `gorm:"not null;default:''" json:"-"`                        // 凭证哈希（不返回给前端）
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
