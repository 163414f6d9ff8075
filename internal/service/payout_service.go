package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"

	"gorm.io/gorm"
)

const defaultPayoutScheduleTimeout = 30 * time.Minute

// PayoutService 佣金结算调度与执行
type PayoutService struct {
	cfg           *config.PayoutConfig
	userRepo      repository.UserRepository
	affiliateRepo repository.AffiliateRepository
	orderRepo     repository.OrderRepository
	payoutRepo    repository.PayoutRecordRepository
	gateway       PayoutGateway
	queueClient   TaskEnqueuer
}

// NewPayoutService 创建结算服务
func NewPayoutService(
	cfg *config.PayoutConfig,
	userRepo repository.UserRepository,
	affiliateRepo repository.AffiliateRepository,
	orderRepo repository.OrderRepository,
	payoutRepo repository.PayoutRecordRepository,
	gateway PayoutGateway,
	queueClient TaskEnqueuer,
) *PayoutService {
	if cfg == nil {
		cfg = &config.PayoutConfig{}
	}
	return &PayoutService{
		cfg:           cfg,
		userRepo:      userRepo,
		affiliateRepo: affiliateRepo,
		orderRepo:     orderRepo,
		payoutRepo:    payoutRepo,
		gateway:       gateway,
		queueClient:   queueClient,
	}
}

// PayoutScheduleResult 派发结果统计
type PayoutScheduleResult struct {
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Schedule 为推广者的未结算订单逐笔派发打款任务，立即返回
func (s *PayoutService) Schedule(ctx context.Context, merchantID, affiliateID uint) (*PayoutScheduleResult, error) {
	affiliate, err := s.affiliateRepo.GetByIDAndMerchant(affiliateID, merchantID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return nil, ErrQueueUnavailable
	}

	orders, err := s.orderRepo.ListPayoutCandidates(affiliate.ID)
	if err != nil {
		return nil, err
	}

	result := &PayoutScheduleResult{}
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		scheduledAt := time.Now()
		claimed, err := s.orderRepo.ClaimPayoutSchedule(order.ID, scheduledAt)
		if err != nil {
			logger.Errorw("payout_schedule_claim_failed", "order_id", order.ExternalID, "error", err)
			result.Failed++
			continue
		}
		if !claimed {
			result.Skipped++
			continue
		}

		err = s.queueClient.EnqueueOrderPayout(queue.OrderPayoutPayload{
			OrderID:        order.ID,
			ExternalID:     order.ExternalID,
			AffiliateID:    affiliate.ID,
			CommissionOwed: order.CommissionOwed.String(),
			ScheduledAt:    scheduledAt.UnixNano(),
		}, s.cfg.MaxRetry)
		switch {
		case errors.Is(err, queue.ErrTaskInFlight):
			result.Skipped++
		case err != nil:
			if releaseErr := s.orderRepo.ReleasePayoutSchedule(order.ID); releaseErr != nil {
				logger.Errorw("payout_schedule_release_failed", "order_id", order.ExternalID, "error", releaseErr)
			}
			logger.Errorw("payout_schedule_enqueue_failed", "order_id", order.ExternalID, "error", err)
			result.Failed++
		default:
			result.Scheduled++
		}
	}

	logger.Infow("payout_scheduled",
		"merchant_id", merchantID,
		"affiliate_id", affiliate.ID,
		"scheduled", result.Scheduled,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// PayoutIdempotencyKey 订单打款幂等键
func PayoutIdempotencyKey(externalID string) string {
	return "order-payout-" + externalID
}

// ProcessOrderPayout 执行单笔订单打款（至少一次投递，重复执行不会重复扣款）
func (s *PayoutService) ProcessOrderPayout(ctx context.Context, payload queue.OrderPayoutPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("payout_order_missing", "order_id", payload.OrderID)
		return nil
	}
	if order.PayoutStatus == constants.PayoutStatusPaid {
		return nil
	}
	if !order.Attributed() {
		logger.Warnw("payout_order_unattributed", "order_id", order.ExternalID)
		return s.orderRepo.ReleasePayoutSchedule(order.ID)
	}

	record, err := s.payoutRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}
	if record != nil {
		_, err := s.orderRepo.MarkPaid(order.ID, time.Now())
		return err
	}

	if payload.CommissionOwed != "" && payload.CommissionOwed != order.CommissionOwed.String() {
		logger.Warnw("payout_payload_amount_mismatch",
			"order_id", order.ExternalID,
			"payload_amount", payload.CommissionOwed,
			"order_amount", order.CommissionOwed.String(),
		)
	}

	key := PayoutIdempotencyKey(order.ExternalID)
	reference := ""
	if order.CommissionOwed.IsPositive() {
		email, err := s.affiliateEmail(*order.AffiliateID)
		if err != nil {
			return err
		}
		reference, err = s.gateway.Disburse(ctx, PayoutRequest{
			IdempotencyKey: key,
			AffiliateEmail: email,
			MerchantID:     order.MerchantID,
			OrderID:        order.ExternalID,
			Amount:         order.CommissionOwed,
		})
		if err != nil {
			if !errors.Is(err, ErrPayoutTaskFailed) {
				err = fmt.Errorf("%w: %v", ErrPayoutTaskFailed, err)
			}
			logger.Warnw("payout_disburse_failed", "order_id", order.ExternalID, "error", err)
			return err
		}
	}

	paidAt := time.Now()
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if _, _, err := s.payoutRepo.WithTx(tx).CreateIfAbsent(&models.PayoutRecord{
			OrderID:        order.ID,
			AffiliateID:    *order.AffiliateID,
			Amount:         order.CommissionOwed,
			Reference:      reference,
			IdempotencyKey: key,
		}); err != nil {
			return err
		}
		_, err := s.orderRepo.WithTx(tx).MarkPaid(order.ID, paidAt)
		return err
	})
	if err != nil {
		return err
	}
	logger.Infow("payout_completed",
		"order_id", order.ExternalID,
		"affiliate_id", *order.AffiliateID,
		"amount", order.CommissionOwed.String(),
		"reference", reference,
	)
	return nil
}

// ReleaseStaleSchedules 释放超时仍未结算的在途标记
func (s *PayoutService) ReleaseStaleSchedules(_ context.Context) (int64, error) {
	timeout := time.Duration(s.cfg.ScheduleTimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = defaultPayoutScheduleTimeout
	}
	released, err := s.orderRepo.ReleaseStalePayoutSchedules(time.Now().Add(-timeout))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		logger.Warnw("payout_stale_schedules_released", "count", released)
	}
	return released, nil
}

func (s *PayoutService) affiliateEmail(affiliateID uint) (string, error) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return "", err
	}
	if affiliate == nil {
		return "", fmt.Errorf("%w: affiliate %d missing", ErrPayoutTaskFailed, affiliateID)
	}
	user, err := s.userRepo.GetByID(affiliate.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("%w: user %d missing", ErrPayoutTaskFailed, affiliate.UserID)
	}
	return user.Email, nil
}
