package public

import (
	handlershared "github.com/affiliate-next/internal/http/handlers/shared"
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedHandlerError

var identityConflictErrorRules = []mappedHandlerError{
	{Target: service.ErrEmailAlreadyMerchant, Code: response.CodeConflict, Key: "error.email_already_merchant"},
	{Target: service.ErrEmailAlreadyAffiliate, Code: response.CodeConflict, Key: "error.email_already_affiliate"},
}

var orderIngestErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidOrderID, Code: response.CodeBadRequest, Key: "error.order_id_invalid"},
	{Target: service.ErrInvalidOrderAmount, Code: response.CodeBadRequest, Key: "error.order_amount_invalid"},
	{Target: service.ErrMerchantNotFound, Code: response.CodeNotFound, Key: "error.merchant_not_found"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrDiscountCodeIssue, Code: response.CodeServiceUnavailable, Key: "error.discount_code_issue_failed"},
}

var merchantRegisterErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidDomain, Code: response.CodeBadRequest, Key: "error.domain_invalid"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrInvalidName, Code: response.CodeBadRequest, Key: "error.name_invalid"},
	{Target: service.ErrInvalidAPIKey, Code: response.CodeBadRequest, Key: "error.api_key_invalid"},
	{Target: service.ErrInvalidCommissionRate, Code: response.CodeBadRequest, Key: "error.commission_rate_invalid"},
	{Target: service.ErrMerchantDomainExists, Code: response.CodeConflict, Key: "error.merchant_domain_exists"},
}

var merchantLoginErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.credentials_invalid"},
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondOrderIngestError 服务端错误带 HTTP 状态码返回，便于上游按状态码重投
func respondOrderIngestError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedHandlerErrors(orderIngestErrorRules, identityConflictErrorRules)
	code, key, mapped := handlershared.MatchMappedError(err, rules)
	if !mapped {
		code, key = response.CodeInternal, "error.order_ingest_failed"
	}
	appErr := response.WrapError(code, handlershared.Message(key), err)
	if appErr.Retryable() {
		handlershared.RequestLog(c).Errorw("order_webhook_ingest_failed", "code", appErr.Code, "error", err)
	}
	response.FailRetryable(c, appErr)
}

func respondMerchantRegisterError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedHandlerErrors(merchantRegisterErrorRules, identityConflictErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, "error.merchant_register_failed")
}

func respondMerchantLoginError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, merchantLoginErrorRules, response.CodeInternal, "error.login_failed")
}
