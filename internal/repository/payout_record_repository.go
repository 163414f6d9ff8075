package repository

import (
	"errors"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// PayoutRecordRepository 打款流水数据访问接口
type PayoutRecordRepository interface {
	WithTx(tx *gorm.DB) PayoutRecordRepository
	GetByOrderID(orderID uint) (*models.PayoutRecord, error)
	CreateIfAbsent(record *models.PayoutRecord) (*models.PayoutRecord, bool, error)
}

// GormPayoutRecordRepository GORM 实现
type GormPayoutRecordRepository struct {
	db *gorm.DB
}

// NewPayoutRecordRepository 创建打款流水仓库
func NewPayoutRecordRepository(db *gorm.DB) *GormPayoutRecordRepository {
	return &GormPayoutRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRecordRepository) WithTx(tx *gorm.DB) PayoutRecordRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRecordRepository{db: tx}
}

// GetByOrderID 根据订单获取打款流水
func (r *GormPayoutRecordRepository) GetByOrderID(orderID uint) (*models.PayoutRecord, error) {
	var record models.PayoutRecord
	if err := r.db.Where("order_id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateIfAbsent 每笔订单仅写入一条流水
func (r *GormPayoutRecordRepository) CreateIfAbsent(record *models.PayoutRecord) (*models.PayoutRecord, bool, error) {
	if record == nil {
		return nil, false, errors.New("payout record is nil")
	}
	created, err := createOnConflictDoNothing(r.db, record, "order_id")
	if err != nil {
		return nil, false, err
	}
	if created {
		return record, true, nil
	}
	existing, err := r.GetByOrderID(record.OrderID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("payout record conflict detected but row not found")
	}
	return existing, false, nil
}
