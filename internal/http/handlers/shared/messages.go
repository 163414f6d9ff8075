package shared

var messages = map[string]string{
	"error.bad_request":                "invalid request",
	"error.unauthorized":               "unauthorized",
	"error.forbidden":                  "forbidden",
	"error.too_many_requests":          "too many requests",
	"error.merchant_id_invalid":        "invalid merchant id",
	"error.merchant_id_type_invalid":   "invalid merchant id type",
	"error.merchant_not_found":         "merchant not found",
	"error.merchant_domain_exists":     "merchant domain already registered",
	"error.domain_invalid":             "invalid domain",
	"error.api_key_invalid":            "api key must be at least 8 characters",
	"error.credentials_invalid":        "invalid email or api key",
	"error.email_invalid":              "invalid email",
	"error.name_invalid":               "invalid name",
	"error.email_already_merchant":     "email already belongs to a merchant",
	"error.email_already_affiliate":    "email already belongs to an affiliate",
	"error.affiliate_not_found":        "affiliate not found",
	"error.commission_rate_invalid":    "commission rate must be between 0 and 1",
	"error.discount_code_issue_failed": "discount code could not be issued",
	"error.order_id_invalid":           "order id is required",
	"error.order_amount_invalid":       "order subtotal must not be negative",
	"error.stats_range_invalid":        "from must not be after to",
	"error.queue_unavailable":          "task queue unavailable",
	"error.order_ingest_failed":        "order ingestion failed",
	"error.merchant_register_failed":   "merchant registration failed",
	"error.login_failed":               "login failed",
	"error.merchant_fetch_failed":      "merchant fetch failed",
	"error.save_failed":                "save failed",
	"error.affiliate_fetch_failed":     "affiliate fetch failed",
	"error.order_fetch_failed":         "order fetch failed",
	"error.stats_fetch_failed":         "stats fetch failed",
	"error.payout_schedule_failed":     "payout scheduling failed",
	"error.authz_failed":               "authorization check failed",
}

// Message 返回消息键对应的文本，未定义的键原样返回。
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
