package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	GetByID(id uint) (*models.Order, error)
	GetByExternalID(externalID string) (*models.Order, error)
	CreateIfAbsent(order *models.Order) (*models.Order, bool, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)

	ListPayoutCandidates(affiliateID uint) ([]models.Order, error)
	ClaimPayoutSchedule(id uint, scheduledAt time.Time) (bool, error)
	ReleasePayoutSchedule(id uint) error
	ReleaseStalePayoutSchedules(before time.Time) (int64, error)
	MarkPaid(id uint, paidAt time.Time) (bool, error)
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByExternalID 根据外部订单号获取订单
func (r *GormOrderRepository) GetByExternalID(externalID string) (*models.Order, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("external_id = ?", externalID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CreateIfAbsent 按外部订单号条件插入，冲突时返回已存在的订单且 created=false
func (r *GormOrderRepository) CreateIfAbsent(order *models.Order) (*models.Order, bool, error) {
	if order == nil {
		return nil, false, errors.New("order is nil")
	}
	created, err := createOnConflictDoNothing(r.db.Omit("Affiliate"), order, "external_id")
	if err != nil {
		return nil, false, err
	}
	if created {
		return order, true, nil
	}
	existing, err := r.GetByExternalID(order.ExternalID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("order conflict detected but row not found")
	}
	return existing, false, nil
}

// List 分页查询订单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.MerchantID != 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.PayoutStatus); status != "" {
		query = query.Where("payout_status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var orders []models.Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListPayoutCandidates 获取推广者未结算且未派发任务的订单
func (r *GormOrderRepository) ListPayoutCandidates(affiliateID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("affiliate_id = ? AND payout_status = ? AND payout_scheduled_at IS NULL", affiliateID, constants.PayoutStatusUnpaid).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ClaimPayoutSchedule 条件设置在途标记，返回是否抢占成功
func (r *GormOrderRepository) ClaimPayoutSchedule(id uint, scheduledAt time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payout_status = ? AND payout_scheduled_at IS NULL", id, constants.PayoutStatusUnpaid).
		Updates(map[string]interface{}{
			"payout_scheduled_at": scheduledAt,
			"updated_at":          scheduledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReleasePayoutSchedule 清除未结算订单的在途标记
func (r *GormOrderRepository) ReleasePayoutSchedule(id uint) error {
	return r.db.Model(&models.Order{}).
		Where("id = ? AND payout_status = ?", id, constants.PayoutStatusUnpaid).
		Updates(map[string]interface{}{
			"payout_scheduled_at": nil,
			"updated_at":          time.Now(),
		}).Error
}

// ReleaseStalePayoutSchedules 释放超时仍未结算的在途标记
func (r *GormOrderRepository) ReleaseStalePayoutSchedules(before time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("payout_status = ? AND payout_scheduled_at IS NOT NULL AND payout_scheduled_at < ?", constants.PayoutStatusUnpaid, before).
		Updates(map[string]interface{}{
			"payout_scheduled_at": nil,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkPaid 条件更新为已结算，返回本次是否发生状态迁移
func (r *GormOrderRepository) MarkPaid(id uint, paidAt time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payout_status = ?", id, constants.PayoutStatusUnpaid).
		Updates(map[string]interface{}{
			"payout_status": constants.PayoutStatusPaid,
			"paid_at":       paidAt,
			"updated_at":    paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
