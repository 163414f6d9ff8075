package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"gorm.io/gorm"
)

// MerchantRoleGranter 为商户授予访问角色（由 authz.Service 实现）
type MerchantRoleGranter interface {
	GrantMerchantRole(merchantID uint) error
}

// MerchantService 商户注册、登录与资料管理
type MerchantService struct {
	cfg          *config.AffiliateConfig
	auth         *AuthService
	userRepo     repository.UserRepository
	merchantRepo repository.MerchantRepository
	orderRepo    repository.OrderRepository
	statsRepo    repository.StatsRepository
	roles        MerchantRoleGranter
}

// NewMerchantService 创建商户服务
func NewMerchantService(
	cfg *config.AffiliateConfig,
	auth *AuthService,
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	orderRepo repository.OrderRepository,
	statsRepo repository.StatsRepository,
	roles MerchantRoleGranter,
) *MerchantService {
	if cfg == nil {
		cfg = &config.AffiliateConfig{AutoAffiliate: true}
	}
	return &MerchantService{
		cfg:          cfg,
		auth:         auth,
		userRepo:     userRepo,
		merchantRepo: merchantRepo,
		orderRepo:    orderRepo,
		statsRepo:    statsRepo,
		roles:        roles,
	}
}

// RegisterMerchantInput 商户注册输入
type RegisterMerchantInput struct {
	Domain string
	Name   string
	Email  string
	APIKey string
}

// Register 注册商户：创建商户身份用户与商户记录
func (s *MerchantService) Register(ctx context.Context, input RegisterMerchantInput) (*models.Merchant, error) {
	domain := repository.NormalizeDomain(input.Domain)
	if domain == "" {
		return nil, ErrInvalidDomain
	}
	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := s.auth.ValidateAPIKey(input.APIKey); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, identityConflictError(existingUser.Role)
	}
	existingMerchant, err := s.merchantRepo.GetByDomain(domain)
	if err != nil {
		return nil, err
	}
	if existingMerchant != nil {
		return nil, ErrMerchantDomainExists
	}

	hash, err := s.auth.HashAPIKey(input.APIKey)
	if err != nil {
		return nil, err
	}

	merchant := &models.Merchant{
		Domain:                      domain,
		DisplayName:                 name,
		DefaultCommissionRate:       s.cfg.DefaultRate(),
		TurnCustomersIntoAffiliates: s.cfg.AutoAffiliate,
	}
	err = s.merchantRepo.Transaction(func(tx *gorm.DB) error {
		user, created, err := s.userRepo.WithTx(tx).CreateIfAbsent(&models.User{
			Email:        email,
			DisplayName:  name,
			Role:         constants.UserRoleMerchant,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		if !created {
			return identityConflictError(user.Role)
		}
		merchant.UserID = user.ID
		if err := s.merchantRepo.WithTx(tx).Create(merchant); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrMerchantDomainExists
			}
			return err
		}
		merchant.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.roles != nil {
		if err := s.roles.GrantMerchantRole(merchant.ID); err != nil {
			logger.Errorw("merchant_role_grant_failed", "merchant_id", merchant.ID, "error", err)
		}
	}
	logger.Infow("merchant_registered", "merchant_id", merchant.ID, "domain", merchant.Domain)
	return merchant, nil
}

// MerchantLoginResult 登录结果
type MerchantLoginResult struct {
	Merchant  *models.Merchant `json:"merchant"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Login 使用邮箱与 API Key 登录
func (s *MerchantService) Login(email, apiKey string) (*MerchantLoginResult, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != constants.UserRoleMerchant {
		return nil, ErrInvalidCredentials
	}
	if err := s.auth.VerifyAPIKey(user.PasswordHash, apiKey); err != nil {
		return nil, ErrInvalidCredentials
	}
	merchant, err := s.merchantRepo.GetByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.auth.GenerateMerchantJWT(merchant)
	if err != nil {
		return nil, err
	}
	return &MerchantLoginResult{Merchant: merchant, Token: token, ExpiresAt: expiresAt}, nil
}

// GetByID 获取商户
func (s *MerchantService) GetByID(id uint) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}

// GetByDomain 按域名获取商户（优先读缓存）
func (s *MerchantService) GetByDomain(ctx context.Context, domain string) (*models.Merchant, error) {
	normalized := repository.NormalizeDomain(domain)
	if normalized == "" {
		return nil, ErrMerchantNotFound
	}
	snapshot, hit, err := cache.GetMerchantByDomain(ctx, normalized)
	if err != nil {
		logger.Warnw("merchant_cache_get_failed", "domain", normalized, "error", err)
	}
	if hit && snapshot != nil {
		return snapshot.ToModel(), nil
	}

	merchant, err := s.merchantRepo.GetByDomain(normalized)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	if err := cache.SetMerchant(ctx, cache.BuildMerchantSnapshot(merchant)); err != nil {
		logger.Warnw("merchant_cache_set_failed", "domain", normalized, "error", err)
	}
	return merchant, nil
}

// FindByEmail 按商户身份邮箱查找商户
func (s *MerchantService) FindByEmail(email string) (*models.Merchant, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != constants.UserRoleMerchant {
		return nil, ErrMerchantNotFound
	}
	merchant, err := s.merchantRepo.GetByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}

// UpdateMerchantInput 商户资料更新（空字段不修改）
type UpdateMerchantInput struct {
	Domain      *string
	DisplayName *string
	Email       *string
	APIKey      *string
}

// UpdateProfile 更新商户资料并失效域名缓存
func (s *MerchantService) UpdateProfile(ctx context.Context, merchantID uint, input UpdateMerchantInput) (*models.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	oldDomain := merchant.Domain
	user := merchant.User
	userChanged := false

	if input.Domain != nil {
		domain := repository.NormalizeDomain(*input.Domain)
		if domain == "" {
			return nil, ErrInvalidDomain
		}
		if domain != merchant.Domain {
			other, err := s.merchantRepo.GetByDomain(domain)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != merchant.ID {
				return nil, ErrMerchantDomainExists
			}
			merchant.Domain = domain
		}
	}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, ErrInvalidName
		}
		merchant.DisplayName = name
		user.DisplayName = name
		userChanged = true
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if _, err := mail.ParseAddress(email); err != nil || email == "" {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, identityConflictError(other.Role)
			}
			user.Email = email
			userChanged = true
		}
	}
	if input.APIKey != nil {
		if err := s.auth.ValidateAPIKey(*input.APIKey); err != nil {
			return nil, err
		}
		hash, err := s.auth.HashAPIKey(*input.APIKey)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		userChanged = true
	}

	err = s.merchantRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.merchantRepo.WithTx(tx).Update(merchant); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrMerchantDomainExists
			}
			return err
		}
		if userChanged && user.ID != 0 {
			if err := s.userRepo.WithTx(tx).Update(&user); err != nil {
				if repository.IsUniqueViolation(err) {
					return ErrEmailAlreadyAffiliate
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	merchant.User = user

	for _, domain := range []string{oldDomain, merchant.Domain} {
		if err := cache.DelMerchantDomain(ctx, domain); err != nil {
			logger.Warnw("merchant_cache_del_failed", "domain", domain, "error", err)
		}
	}
	return merchant, nil
}

// OrderStats 商户区间订单统计
func (s *MerchantService) OrderStats(merchantID uint, from, to time.Time) (repository.OrderStatsRow, error) {
	if from.After(to) {
		return repository.OrderStatsRow{}, ErrInvalidStatsRange
	}
	return s.statsRepo.OrderStats(merchantID, from, to)
}

// OrderTrends 商户区间按日趋势
func (s *MerchantService) OrderTrends(merchantID uint, from, to time.Time) ([]repository.OrderTrendRow, error) {
	if from.After(to) {
		return nil, ErrInvalidStatsRange
	}
	return s.statsRepo.OrderTrends(merchantID, from, to)
}

// ListOrders 分页查询商户订单
func (s *MerchantService) ListOrders(merchantID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.MerchantID = merchantID
	return s.orderRepo.List(filter)
}
