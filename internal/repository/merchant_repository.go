package repository

import (
	"errors"
	"strings"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// MerchantRepository 商户数据访问接口
type MerchantRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) MerchantRepository
	Create(merchant *models.Merchant) error
	GetByID(id uint) (*models.Merchant, error)
	GetByDomain(domain string) (*models.Merchant, error)
	GetByUserID(userID uint) (*models.Merchant, error)
	Update(merchant *models.Merchant) error
}

// GormMerchantRepository GORM 实现
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository 创建商户仓库
func NewMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// Transaction 执行事务
func (r *GormMerchantRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormMerchantRepository) WithTx(tx *gorm.DB) MerchantRepository {
	if tx == nil {
		return r
	}
	return &GormMerchantRepository{db: tx}
}

// Create 创建商户
func (r *GormMerchantRepository) Create(merchant *models.Merchant) error {
	if merchant != nil {
		merchant.Domain = NormalizeDomain(merchant.Domain)
	}
	return r.db.Create(merchant).Error
}

// GetByID 根据 ID 获取商户
func (r *GormMerchantRepository) GetByID(id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.Preload("User").First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// GetByDomain 根据域名获取商户
func (r *GormMerchantRepository) GetByDomain(domain string) (*models.Merchant, error) {
	normalized := NormalizeDomain(domain)
	if normalized == "" {
		return nil, nil
	}
	var merchant models.Merchant
	if err := r.db.Where("domain = ?", normalized).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// GetByUserID 根据所属用户获取商户
func (r *GormMerchantRepository) GetByUserID(userID uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &merchant, nil
}

// Update 更新商户（不级联更新用户）
func (r *GormMerchantRepository) Update(merchant *models.Merchant) error {
	if merchant != nil {
		merchant.Domain = NormalizeDomain(merchant.Domain)
	}
	return r.db.Omit("User").Save(merchant).Error
}

// NormalizeDomain 统一域名格式：去协议、去路径、小写
func NormalizeDomain(domain string) string {
	value := strings.ToLower(strings.TrimSpace(domain))
	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")
	if idx := strings.IndexAny(value, "/?#"); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSuffix(value, ".")
}
