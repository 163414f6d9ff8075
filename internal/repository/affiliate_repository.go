package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AffiliateRepository 推广者数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetByID(id uint) (*models.Affiliate, error)
	GetByIDAndMerchant(id, merchantID uint) (*models.Affiliate, error)
	GetByUserAndMerchant(userID, merchantID uint) (*models.Affiliate, error)
	FindByEmailAndMerchant(email string, merchantID uint) (*models.Affiliate, error)
	CreateIfAbsent(affiliate *models.Affiliate) (*models.Affiliate, bool, error)
	UpdateCommissionRate(id uint, rate decimal.Decimal, updatedAt time.Time) error
	List(filter AffiliateListFilter) ([]models.Affiliate, int64, error)
}

// GormAffiliateRepository GORM 推广者仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建推广者仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// GetByID 根据 ID 获取推广者
func (r *GormAffiliateRepository) GetByID(id uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.Preload("User").First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByIDAndMerchant 获取指定商户下的推广者
func (r *GormAffiliateRepository) GetByIDAndMerchant(id, merchantID uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.Preload("User").Where("id = ? AND merchant_id = ?", id, merchantID).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByUserAndMerchant 根据用户与商户获取推广者
func (r *GormAffiliateRepository) GetByUserAndMerchant(userID, merchantID uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.Where("user_id = ? AND merchant_id = ?", userID, merchantID).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// FindByEmailAndMerchant 根据用户邮箱与商户获取推广者
func (r *GormAffiliateRepository) FindByEmailAndMerchant(email string, merchantID uint) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.Model(&models.Affiliate{}).
		Joins("JOIN users ON users.id = affiliates.user_id").
		Where("users.email = ? AND affiliates.merchant_id = ?", normalizeEmail(email), merchantID).
		First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// CreateIfAbsent 按 (user_id, merchant_id) 条件插入，已存在时原样返回已有记录
func (r *GormAffiliateRepository) CreateIfAbsent(affiliate *models.Affiliate) (*models.Affiliate, bool, error) {
	if affiliate == nil {
		return nil, false, errors.New("affiliate is nil")
	}
	created, err := createOnConflictDoNothing(r.db.Omit("User", "Merchant"), affiliate, "user_id", "merchant_id")
	if err != nil {
		return nil, false, err
	}
	if created {
		return affiliate, true, nil
	}
	existing, err := r.GetByUserAndMerchant(affiliate.UserID, affiliate.MerchantID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("affiliate conflict detected but row not found")
	}
	return existing, false, nil
}

// UpdateCommissionRate 更新佣金比例（仅影响后续订单）
func (r *GormAffiliateRepository) UpdateCommissionRate(id uint, rate decimal.Decimal, updatedAt time.Time) error {
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"commission_rate": rate,
			"updated_at":      updatedAt,
		}).Error
}

// List 分页查询推广者
func (r *GormAffiliateRepository) List(filter AffiliateListFilter) ([]models.Affiliate, int64, error) {
	query := r.db.Model(&models.Affiliate{}).Joins("JOIN users ON users.id = affiliates.user_id")
	if filter.MerchantID != 0 {
		query = query.Where("affiliates.merchant_id = ?", filter.MerchantID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"users.email", "users.display_name", "affiliates.discount_code"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var rows []models.Affiliate
	if err := query.Preload("User").Order("affiliates.id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
