package service

import (
	"context"
	"errors"
	"strings"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errOrderAlreadyIngested 事务内发现并发投递已写入同一订单，用于回滚本次写入
var errOrderAlreadyIngested = errors.New("order already ingested")

// MerchantResolver 按域名解析商户
type MerchantResolver interface {
	GetByDomain(ctx context.Context, domain string) (*models.Merchant, error)
}

// OrderService 订单入库与归因
type OrderService struct {
	cfg              *config.AffiliateConfig
	orderRepo        repository.OrderRepository
	merchants        MerchantResolver
	affiliateService *AffiliateService
	issuer           DiscountCodeIssuer
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.AffiliateConfig,
	orderRepo repository.OrderRepository,
	merchants MerchantResolver,
	affiliateService *AffiliateService,
	issuer DiscountCodeIssuer,
) *OrderService {
	if cfg == nil {
		cfg = &config.AffiliateConfig{}
	}
	return &OrderService{
		cfg:              cfg,
		orderRepo:        orderRepo,
		merchants:        merchants,
		affiliateService: affiliateService,
		issuer:           issuer,
	}
}

// IngestOrderInput 外部订单事件
type IngestOrderInput struct {
	OrderID       string
	Domain        string
	Subtotal      decimal.Decimal
	CustomerEmail string
	CustomerName  string
	DiscountCode  string
}

// Ingest 订单入库：按外部订单号幂等，重复投递返回已有订单且 created=false
func (s *OrderService) Ingest(ctx context.Context, input IngestOrderInput) (*models.Order, bool, error) {
	externalID := strings.TrimSpace(input.OrderID)
	if externalID == "" {
		return nil, false, ErrInvalidOrderID
	}
	if input.Subtotal.IsNegative() {
		return nil, false, ErrInvalidOrderAmount
	}

	merchant, err := s.merchants.GetByDomain(ctx, input.Domain)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.orderRepo.GetByExternalID(externalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		logger.Debugw("order_ingest_duplicate", "order_id", externalID, "merchant_id", existing.MerchantID)
		return existing, false, nil
	}

	customerEmail := normalizeEmail(input.CustomerEmail)
	attribute := merchant.TurnCustomersIntoAffiliates && customerEmail != ""
	discountCode := strings.TrimSpace(input.DiscountCode)
	if attribute && discountCode == "" {
		known, err := s.affiliateService.FindByEmail(merchant.ID, customerEmail)
		if err != nil {
			return nil, false, err
		}
		if known == nil {
			discountCode, err = s.issuer.Issue(ctx, DiscountCodeRequest{
				MerchantDomain: merchant.Domain,
				Email:          customerEmail,
				Name:           strings.TrimSpace(input.CustomerName),
			})
			if err != nil {
				return nil, false, err
			}
		}
	}

	subtotal := models.NewMoneyFromDecimal(input.Subtotal)
	var (
		order        *models.Order
		newAffiliate *models.Affiliate
	)
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		row := &models.Order{
			ExternalID:     externalID,
			MerchantID:     merchant.ID,
			CustomerEmail:  customerEmail,
			Subtotal:       subtotal,
			CommissionOwed: models.ZeroMoney(),
			PayoutStatus:   constants.PayoutStatusUnpaid,
		}
		if attribute {
			affiliate, created, err := s.affiliateService.ResolveOrCreateTx(tx, ResolveAffiliateInput{
				MerchantID:     merchant.ID,
				Email:          customerEmail,
				Name:           input.CustomerName,
				DiscountCode:   discountCode,
				CommissionRate: merchant.DefaultCommissionRate,
			})
			if err != nil {
				return err
			}
			if created {
				newAffiliate = affiliate
			}
			affiliateID := affiliate.ID
			row.AffiliateID = &affiliateID
			row.CommissionOwed = subtotal.MulRate(affiliate.CommissionRate)
		}

		saved, inserted, err := s.orderRepo.WithTx(tx).CreateIfAbsent(row)
		if err != nil {
			return err
		}
		order = saved
		if !inserted {
			return errOrderAlreadyIngested
		}
		return nil
	})
	if errors.Is(err, errOrderAlreadyIngested) {
		logger.Infow("order_ingest_lost_race", "order_id", externalID, "merchant_id", merchant.ID)
		return order, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	logger.Infow("order_ingested",
		"order_id", externalID,
		"merchant_id", merchant.ID,
		"attributed", order.Attributed(),
		"commission_owed", order.CommissionOwed.String(),
	)
	if newAffiliate != nil && s.cfg.NotifyOnReferral {
		s.affiliateService.enqueueWelcome(ctx, newAffiliate)
	}
	return order, true, nil
}
