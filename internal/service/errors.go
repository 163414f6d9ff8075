package service

import "errors"

var (
	// 通用
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidName       = errors.New("invalid display name")
	ErrQueueUnavailable  = errors.New("task queue unavailable")
	ErrInvalidStatsRange = errors.New("invalid stats range")

	// 商户
	ErrMerchantNotFound     = errors.New("merchant not found")
	ErrMerchantDomainExists = errors.New("merchant domain already exists")
	ErrInvalidDomain        = errors.New("invalid merchant domain")
	ErrInvalidAPIKey        = errors.New("invalid api key")
	ErrInvalidCredentials   = errors.New("invalid credentials")

	// 身份互斥
	ErrEmailAlreadyMerchant  = errors.New("email already used by a merchant")
	ErrEmailAlreadyAffiliate = errors.New("email already used by an affiliate")

	// 推广者
	ErrAffiliateNotFound     = errors.New("affiliate not found")
	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 1")
	ErrDiscountCodeIssue     = errors.New("discount code issue failed")

	// 订单
	ErrInvalidOrderID     = errors.New("order id is required")
	ErrInvalidOrderAmount = errors.New("order subtotal must be non-negative")

	// 打款
	ErrPayoutTaskFailed = errors.New("payout task failed")

	// 邮件
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
