package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("paypal config invalid")
	ErrAuthFailed      = errors.New("paypal auth failed")
	ErrRequestFailed   = errors.New("paypal request failed")
	ErrResponseInvalid = errors.New("paypal response invalid")
)

const (
	defaultSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	defaultCurrency       = "USD"
	defaultTimeout        = 12 * time.Second
)

// Config PayPal Payouts 配置。
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Currency     string
	EmailSubject string
}

// PayoutInput 单笔打款输入。
type PayoutInput struct {
	SenderBatchID string
	ReceiverEmail string
	Amount        string
	Currency      string
	Note          string
}

// PayoutResult 批次创建返回。
type PayoutResult struct {
	BatchID string
	Status  string
	Raw     map[string]interface{}
}

// NewConfig 构造并规范化配置。
func NewConfig(clientID, clientSecret, baseURL, currency string) *Config {
	cfg := &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      baseURL,
		Currency:     currency,
	}
	cfg.normalize()
	return cfg
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return fmt.Errorf("%w: client_secret is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// CreatePayout 创建单收款人的打款批次，SenderBatchID 同时作为 PayPal-Request-Id 保证幂等。
func CreatePayout(ctx context.Context, cfg *Config, input PayoutInput) (*PayoutResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	batchID := strings.TrimSpace(input.SenderBatchID)
	if batchID == "" {
		return nil, fmt.Errorf("%w: sender_batch_id is required", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = cfg.Currency
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	header := map[string]interface{}{
		"sender_batch_id": batchID,
	}
	if cfg.EmailSubject != "" {
		header["email_subject"] = cfg.EmailSubject
	}
	payload := map[string]interface{}{
		"sender_batch_header": header,
		"items": []map[string]interface{}{
			{
				"recipient_type": "EMAIL",
				"receiver":       strings.TrimSpace(input.ReceiverEmail),
				"sender_item_id": batchID,
				"note":           strings.TrimSpace(input.Note),
				"amount": map[string]string{
					"value":    strings.TrimSpace(input.Amount),
					"currency": currency,
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payout body failed", ErrRequestFailed)
	}

	respBody, status, err := doJSONRequest(ctx, cfg, http.MethodPost, "/v1/payments/payouts", token, batchID, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: payout status %d", ErrRequestFailed, status)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode payout response failed", ErrResponseInvalid)
	}
	result := &PayoutResult{
		BatchID: strings.TrimSpace(readString(parsed, "batch_header", "payout_batch_id")),
		Status:  strings.ToUpper(strings.TrimSpace(readString(parsed, "batch_header", "batch_status"))),
		Raw:     parsed,
	}
	if result.BatchID == "" {
		return nil, fmt.Errorf("%w: payout_batch_id is empty", ErrResponseInvalid)
	}
	return result, nil
}

func (c *Config) normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultSandboxBaseURL
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	c.EmailSubject = strings.TrimSpace(c.EmailSubject)
}

func getAccessToken(ctx context.Context, cfg *Config) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/v1/oauth2/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token failed", ErrAuthFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, resp.StatusCode)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	token := strings.TrimSpace(readString(parsed, "access_token"))
	if token == "" {
		return "", fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	return token, nil
}

func doJSONRequest(ctx context.Context, cfg *Config, method, endpoint, token, requestID string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cfg.BaseURL, "/")+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

func readString(raw map[string]interface{}, path ...string) string {
	if raw == nil {
		return ""
	}
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return ""
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	if str, ok := current.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", current)
}
