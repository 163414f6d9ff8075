package repository

import (
	"errors"
	"strings"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 身份数据访问接口
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	CreateIfAbsent(user *models.User) (*models.User, bool, error)
	Update(user *models.User) error
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateIfAbsent 按邮箱条件插入，邮箱已存在时返回已有记录且 created=false
func (r *GormUserRepository) CreateIfAbsent(user *models.User) (*models.User, bool, error) {
	if user == nil {
		return nil, false, errors.New("user is nil")
	}
	user.Email = normalizeEmail(user.Email)
	created, err := createOnConflictDoNothing(r.db, user, "email")
	if err != nil {
		return nil, false, err
	}
	if created {
		return user, true, nil
	}
	existing, err := r.GetByEmail(user.Email)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("user conflict detected but row not found")
	}
	return existing, false, nil
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	if user != nil {
		user.Email = normalizeEmail(user.Email)
	}
	return r.db.Save(user).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
