package worker

import (
	"context"
	"fmt"

	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/provider"
	"github.com/affiliate-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAffiliateOrderPayout, c.handleOrderPayout)
	mux.HandleFunc(queue.TaskAffiliateWelcomeEmail, c.handleAffiliateWelcomeEmail)
}

func (c *Consumer) handleOrderPayout(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.PayoutService == nil {
		logger.Debugw("worker_order_payout_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderPayoutPayload(task)
	if err != nil {
		logger.Warnw("worker_order_payout_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_payout_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if err := c.PayoutService.ProcessOrderPayout(ctx, payload); err != nil {
		logger.Warnw("worker_order_payout_failed",
			"order_id", payload.OrderID,
			"external_id", payload.ExternalID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleAffiliateWelcomeEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.AffiliateService == nil {
		logger.Debugw("worker_affiliate_welcome_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseAffiliateWelcomeEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_affiliate_welcome_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.AffiliateID == 0 {
		logger.Debugw("worker_affiliate_welcome_skip_invalid_payload", "affiliate_id", payload.AffiliateID)
		return nil
	}
	if err := c.AffiliateService.SendWelcomeEmail(ctx, payload.AffiliateID); err != nil {
		logger.Warnw("worker_affiliate_welcome_send_failed", "affiliate_id", payload.AffiliateID, "error", err)
		return err
	}
	return nil
}
