package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/payment/paypal"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// PayoutRequest 单笔佣金打款请求
type PayoutRequest struct {
	IdempotencyKey string
	AffiliateEmail string
	MerchantID     uint
	OrderID        string
	Amount         models.Money
}

// PayoutGateway 打款网关（外部协作者），同一幂等键只扣款一次
type PayoutGateway interface {
	Disburse(ctx context.Context, req PayoutRequest) (string, error)
}

// NewPayoutGateway 按配置选择网关实现
func NewPayoutGateway(cfg *config.PayoutConfig) PayoutGateway {
	if cfg == nil {
		return NewLocalPayoutGateway()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case constants.ProviderHTTP:
		if strings.TrimSpace(cfg.BaseURL) != "" {
			return NewHTTPPayoutGateway(cfg)
		}
		logger.Warnw("payout_gateway_fallback_local", "reason", "base_url_empty")
	case constants.ProviderPayPal:
		gateway := NewPayPalPayoutGateway(cfg)
		err := paypal.ValidateConfig(gateway.cfg)
		if err == nil {
			return gateway
		}
		logger.Warnw("payout_gateway_fallback_local", "reason", "paypal_config_invalid", "error", err)
	}
	return NewLocalPayoutGateway()
}

// LocalPayoutGateway 仅记账的本地网关，引用号由幂等键确定
type LocalPayoutGateway struct{}

// NewLocalPayoutGateway 创建本地网关
func NewLocalPayoutGateway() *LocalPayoutGateway {
	return &LocalPayoutGateway{}
}

// Disburse 返回确定性引用号
func (g *LocalPayoutGateway) Disburse(_ context.Context, req PayoutRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return "", fmt.Errorf("%w: idempotency key required", ErrPayoutTaskFailed)
	}
	ref := uuid.NewSHA1(uuid.NameSpaceURL, []byte("payout:"+req.IdempotencyKey))
	return "local-" + ref.String(), nil
}

type payoutResponse struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// HTTPPayoutGateway 外部打款 API
type HTTPPayoutGateway struct {
	client *resty.Client
}

// NewHTTPPayoutGateway 创建 HTTP 打款网关
func NewHTTPPayoutGateway(cfg *config.PayoutConfig) *HTTPPayoutGateway {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		client.SetAuthToken(key)
	}
	return &HTTPPayoutGateway{client: client}
}

// Disburse 调用外部打款接口，重试交给任务队列
func (g *HTTPPayoutGateway) Disburse(ctx context.Context, req PayoutRequest) (string, error) {
	var result payoutResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.IdempotencyKey).
		SetBody(map[string]interface{}{
			"email":       req.AffiliateEmail,
			"amount":      req.Amount.String(),
			"merchant_id": req.MerchantID,
			"order_id":    req.OrderID,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/payouts")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPayoutTaskFailed, err)
	}
	if resp.IsError() {
		logger.Warnw("payout_gateway_http_error",
			"status_code", resp.StatusCode(),
			"idempotency_key", req.IdempotencyKey,
			"message", result.Message,
		)
		return "", fmt.Errorf("%w: status %d", ErrPayoutTaskFailed, resp.StatusCode())
	}
	return strings.TrimSpace(result.Reference), nil
}

// PayPalPayoutGateway 通过 PayPal Payouts 打款到推广者邮箱
type PayPalPayoutGateway struct {
	cfg *paypal.Config
}

// NewPayPalPayoutGateway 创建 PayPal 打款网关
func NewPayPalPayoutGateway(cfg *config.PayoutConfig) *PayPalPayoutGateway {
	return &PayPalPayoutGateway{
		cfg: paypal.NewConfig(cfg.ClientID, cfg.ClientSecret, cfg.BaseURL, cfg.Currency),
	}
}

// Disburse 创建单笔打款批次，幂等键即 sender_batch_id
func (g *PayPalPayoutGateway) Disburse(ctx context.Context, req PayoutRequest) (string, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return "", fmt.Errorf("%w: idempotency key required", ErrPayoutTaskFailed)
	}
	result, err := paypal.CreatePayout(ctx, g.cfg, paypal.PayoutInput{
		SenderBatchID: req.IdempotencyKey,
		ReceiverEmail: req.AffiliateEmail,
		Amount:        req.Amount.StringFixed(2),
		Note:          fmt.Sprintf("Commission for order %s", req.OrderID),
	})
	if err != nil {
		logger.Warnw("payout_gateway_paypal_error",
			"idempotency_key", req.IdempotencyKey,
			"error", err,
		)
		return "", fmt.Errorf("%w: %v", ErrPayoutTaskFailed, err)
	}
	return result.BatchID, nil
}
