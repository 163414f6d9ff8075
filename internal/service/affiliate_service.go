package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaskEnqueuer 异步任务投递（由 queue.Client 实现）
type TaskEnqueuer interface {
	Enabled() bool
	EnqueueOrderPayout(payload queue.OrderPayoutPayload, maxRetry int) error
	EnqueueAffiliateWelcomeEmail(payload queue.AffiliateWelcomeEmailPayload) error
}

// WelcomeEmailSender 欢迎邮件发送方
type WelcomeEmailSender interface {
	Enabled() bool
	SendAffiliateWelcomeEmail(toEmail string, input AffiliateWelcomeEmailInput) error
}

// AffiliateService 推广者注册与归因
type AffiliateService struct {
	cfg           *config.AffiliateConfig
	userRepo      repository.UserRepository
	merchantRepo  repository.MerchantRepository
	affiliateRepo repository.AffiliateRepository
	issuer        DiscountCodeIssuer
	queueClient   TaskEnqueuer
	emailSender   WelcomeEmailSender
}

// NewAffiliateService 创建推广者服务
func NewAffiliateService(
	cfg *config.AffiliateConfig,
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	affiliateRepo repository.AffiliateRepository,
	issuer DiscountCodeIssuer,
	queueClient TaskEnqueuer,
	emailSender WelcomeEmailSender,
) *AffiliateService {
	if cfg == nil {
		cfg = &config.AffiliateConfig{}
	}
	return &AffiliateService{
		cfg:           cfg,
		userRepo:      userRepo,
		merchantRepo:  merchantRepo,
		affiliateRepo: affiliateRepo,
		issuer:        issuer,
		queueClient:   queueClient,
		emailSender:   emailSender,
	}
}

// ResolveAffiliateInput 归因解析输入
type ResolveAffiliateInput struct {
	MerchantID     uint
	Email          string
	Name           string
	DiscountCode   string
	CommissionRate decimal.Decimal
}

// ResolveOrCreate 在独立事务中解析或创建推广者，已有记录原样返回
func (s *AffiliateService) ResolveOrCreate(ctx context.Context, input ResolveAffiliateInput) (*models.Affiliate, bool, error) {
	var affiliate *models.Affiliate
	created := false
	err := s.affiliateRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		affiliate, created, err = s.ResolveOrCreateTx(tx, input)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if created && s.cfg.NotifyOnReferral {
		s.enqueueWelcome(ctx, affiliate)
	}
	return affiliate, created, nil
}

// ResolveOrCreateTx 在调用方事务中解析或创建推广者
// 用户按邮箱、推广关系按 (user_id, merchant_id) 冲突即读取，并发下收敛到同一行
func (s *AffiliateService) ResolveOrCreateTx(tx *gorm.DB, input ResolveAffiliateInput) (*models.Affiliate, bool, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, false, ErrInvalidEmail
	}
	if input.MerchantID == 0 {
		return nil, false, ErrMerchantNotFound
	}

	users := s.userRepo.WithTx(tx)
	user, err := users.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		user, _, err = users.CreateIfAbsent(&models.User{
			Email:       email,
			DisplayName: strings.TrimSpace(input.Name),
			Role:        constants.UserRoleAffiliate,
		})
		if err != nil {
			return nil, false, err
		}
	}
	if user.Role == constants.UserRoleMerchant {
		return nil, false, ErrEmailAlreadyMerchant
	}

	affiliates := s.affiliateRepo.WithTx(tx)
	existing, err := affiliates.GetByUserAndMerchant(user.ID, input.MerchantID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return affiliates.CreateIfAbsent(&models.Affiliate{
		UserID:         user.ID,
		MerchantID:     input.MerchantID,
		CommissionRate: input.CommissionRate,
		DiscountCode:   strings.TrimSpace(input.DiscountCode),
	})
}

// FindByEmail 查询商户下指定邮箱的推广者
func (s *AffiliateService) FindByEmail(merchantID uint, email string) (*models.Affiliate, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.affiliateRepo.FindByEmailAndMerchant(email, merchantID)
}

// RegisterAffiliateInput 显式注册推广者输入
type RegisterAffiliateInput struct {
	Email          string
	Name           string
	CommissionRate *decimal.Decimal
}

// RegisterAffiliateResult 显式注册结果
type RegisterAffiliateResult struct {
	Affiliate          *models.Affiliate `json:"affiliate"`
	NotificationQueued bool              `json:"notification_queued"`
}

// RegisterExplicit 商户显式注册推广者：签发折扣码并在提交后投递欢迎通知
func (s *AffiliateService) RegisterExplicit(ctx context.Context, merchant *models.Merchant, input RegisterAffiliateInput) (*RegisterAffiliateResult, error) {
	if merchant == nil || merchant.ID == 0 {
		return nil, ErrMerchantNotFound
	}
	email := normalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	rate := merchant.DefaultCommissionRate
	if input.CommissionRate != nil {
		rate = *input.CommissionRate
	}
	if !validCommissionRate(rate) {
		return nil, ErrInvalidCommissionRate
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, identityConflictError(existing.Role)
	}

	code, err := s.issuer.Issue(ctx, DiscountCodeRequest{
		MerchantDomain: merchant.Domain,
		Email:          email,
		Name:           name,
	})
	if err != nil {
		return nil, err
	}

	var affiliate *models.Affiliate
	err = s.affiliateRepo.Transaction(func(tx *gorm.DB) error {
		user, created, err := s.userRepo.WithTx(tx).CreateIfAbsent(&models.User{
			Email:       email,
			DisplayName: name,
			Role:        constants.UserRoleAffiliate,
		})
		if err != nil {
			return err
		}
		if !created {
			return identityConflictError(user.Role)
		}
		affiliate, _, err = s.affiliateRepo.WithTx(tx).CreateIfAbsent(&models.Affiliate{
			UserID:         user.ID,
			MerchantID:     merchant.ID,
			CommissionRate: rate,
			DiscountCode:   code,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("affiliate_registered",
		"merchant_id", merchant.ID,
		"affiliate_id", affiliate.ID,
		"commission_rate", rate.String(),
	)
	return &RegisterAffiliateResult{
		Affiliate:          affiliate,
		NotificationQueued: s.enqueueWelcome(ctx, affiliate),
	}, nil
}

// UpdateCommissionRate 修改推广者佣金比例，已入库订单不受影响
func (s *AffiliateService) UpdateCommissionRate(merchantID, affiliateID uint, rate decimal.Decimal) (*models.Affiliate, error) {
	if !validCommissionRate(rate) {
		return nil, ErrInvalidCommissionRate
	}
	affiliate, err := s.affiliateRepo.GetByIDAndMerchant(affiliateID, merchantID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	now := time.Now()
	if err := s.affiliateRepo.UpdateCommissionRate(affiliate.ID, rate, now); err != nil {
		return nil, err
	}
	affiliate.CommissionRate = rate
	affiliate.UpdatedAt = now
	return affiliate, nil
}

// ListByMerchant 分页列出商户的推广者
func (s *AffiliateService) ListByMerchant(merchantID uint, page, pageSize int, keyword string) ([]models.Affiliate, int64, error) {
	return s.affiliateRepo.List(repository.AffiliateListFilter{
		Page:       page,
		PageSize:   pageSize,
		MerchantID: merchantID,
		Keyword:    strings.TrimSpace(keyword),
	})
}

// SendWelcomeEmail 发送欢迎邮件（队列任务处理）
func (s *AffiliateService) SendWelcomeEmail(_ context.Context, affiliateID uint) error {
	if s.emailSender == nil || !s.emailSender.Enabled() {
		logger.Debugw("affiliate_welcome_email_skip_disabled", "affiliate_id", affiliateID)
		return nil
	}
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return err
	}
	if affiliate == nil {
		logger.Warnw("affiliate_welcome_email_affiliate_missing", "affiliate_id", affiliateID)
		return nil
	}
	user, err := s.userRepo.GetByID(affiliate.UserID)
	if err != nil {
		return err
	}
	merchant, err := s.merchantRepo.GetByID(affiliate.MerchantID)
	if err != nil {
		return err
	}
	if user == nil || merchant == nil {
		logger.Warnw("affiliate_welcome_email_owner_missing",
			"affiliate_id", affiliateID,
			"user_found", user != nil,
			"merchant_found", merchant != nil,
		)
		return nil
	}

	err = s.emailSender.SendAffiliateWelcomeEmail(user.Email, AffiliateWelcomeEmailInput{
		AffiliateName:  user.DisplayName,
		MerchantName:   merchant.DisplayName,
		MerchantDomain: merchant.Domain,
		DiscountCode:   affiliate.DiscountCode,
		CommissionRate: formatRatePercent(affiliate.CommissionRate),
	})
	if errors.Is(err, ErrEmailRecipientRejected) || errors.Is(err, ErrInvalidEmail) {
		logger.Warnw("affiliate_welcome_email_rejected", "affiliate_id", affiliateID, "error", err)
		return nil
	}
	return err
}

// enqueueWelcome 提交后投递欢迎通知，失败仅记录日志
func (s *AffiliateService) enqueueWelcome(_ context.Context, affiliate *models.Affiliate) bool {
	if affiliate == nil {
		return false
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		logger.Warnw("affiliate_welcome_enqueue_skipped", "affiliate_id", affiliate.ID, "reason", "queue_disabled")
		return false
	}
	if err := s.queueClient.EnqueueAffiliateWelcomeEmail(queue.AffiliateWelcomeEmailPayload{AffiliateID: affiliate.ID}); err != nil {
		logger.Errorw("affiliate_welcome_enqueue_failed", "affiliate_id", affiliate.ID, "error", err)
		return false
	}
	return true
}

func identityConflictError(role string) error {
	if role == constants.UserRoleMerchant {
		return ErrEmailAlreadyMerchant
	}
	return ErrEmailAlreadyAffiliate
}

func validCommissionRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}

func formatRatePercent(rate decimal.Decimal) string {
	return fmt.Sprintf("%s%%", rate.Mul(decimal.NewFromInt(100)).Round(2).String())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseCommissionRate 解析佣金比例字符串（0 到 1 之间）
func ParseCommissionRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !validCommissionRate(rate) {
		return decimal.Zero, ErrInvalidCommissionRate
	}
	return rate, nil
}
