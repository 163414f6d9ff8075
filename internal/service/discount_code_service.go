package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"

	"github.com/go-resty/resty/v2"
)

const (
	discountCodeAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	defaultDiscountCodeLength = 8
	maxDiscountCodeLength     = 32
)

// DiscountCodeRequest 折扣码签发请求
type DiscountCodeRequest struct {
	MerchantDomain string `json:"merchant_domain"`
	Email          string `json:"email"`
	Name           string `json:"name"`
}

// DiscountCodeIssuer 折扣码签发方（外部协作者）
type DiscountCodeIssuer interface {
	Issue(ctx context.Context, req DiscountCodeRequest) (string, error)
}

// NewDiscountCodeIssuer 按配置选择签发实现
func NewDiscountCodeIssuer(cfg *config.DiscountConfig) DiscountCodeIssuer {
	if cfg == nil {
		return NewLocalDiscountCodeIssuer(defaultDiscountCodeLength)
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == constants.ProviderHTTP && strings.TrimSpace(cfg.BaseURL) != "" {
		return NewHTTPDiscountCodeIssuer(cfg)
	}
	if provider == constants.ProviderHTTP {
		logger.Warnw("discount_issuer_fallback_local", "reason", "base_url_empty")
	}
	return NewLocalDiscountCodeIssuer(cfg.CodeLength)
}

// LocalDiscountCodeIssuer 本地随机生成折扣码
type LocalDiscountCodeIssuer struct {
	length int
}

// NewLocalDiscountCodeIssuer 创建本地签发器
func NewLocalDiscountCodeIssuer(length int) *LocalDiscountCodeIssuer {
	if length <= 0 {
		length = defaultDiscountCodeLength
	}
	if length > maxDiscountCodeLength {
		length = maxDiscountCodeLength
	}
	return &LocalDiscountCodeIssuer{length: length}
}

// Issue 生成折扣码
func (i *LocalDiscountCodeIssuer) Issue(_ context.Context, _ DiscountCodeRequest) (string, error) {
	return generateDiscountCode(i.length)
}

func generateDiscountCode(length int) (string, error) {
	limit := big.NewInt(int64(len(discountCodeAlphabet)))
	buf := make([]byte, length)
	for idx := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[idx] = discountCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

type discountCodeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPDiscountCodeIssuer 通过外部 API 签发折扣码
type HTTPDiscountCodeIssuer struct {
	client *resty.Client
	length int
}

// NewHTTPDiscountCodeIssuer 创建 HTTP 签发器
func NewHTTPDiscountCodeIssuer(cfg *config.DiscountConfig) *HTTPDiscountCodeIssuer {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		client.SetAuthToken(key)
	}
	return &HTTPDiscountCodeIssuer{client: client, length: cfg.CodeLength}
}

// Issue 请求外部服务签发折扣码
func (i *HTTPDiscountCodeIssuer) Issue(ctx context.Context, req DiscountCodeRequest) (string, error) {
	var result discountCodeResponse
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"merchant_domain": req.MerchantDomain,
			"email":           req.Email,
			"name":            req.Name,
			"length":          i.length,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/discount-codes")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiscountCodeIssue, err)
	}
	if resp.IsError() {
		logger.Warnw("discount_issuer_http_error",
			"status_code", resp.StatusCode(),
			"merchant_domain", req.MerchantDomain,
			"message", result.Message,
		)
		return "", fmt.Errorf("%w: status %d", ErrDiscountCodeIssue, resp.StatusCode())
	}
	code := strings.TrimSpace(result.Code)
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrDiscountCodeIssue)
	}
	return code, nil
}
