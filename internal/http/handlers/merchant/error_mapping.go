package merchant

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

var profileUpdateErrorRules = []mappedHandlerError{
	{Target: service.ErrMerchantNotFound, Code: response.CodeNotFound, Key: "error.merchant_not_found"},
	{Target: service.ErrMerchantDomainExists, Code: response.CodeConflict, Key: "error.merchant_domain_exists"},
	{Target: service.ErrInvalidDomain, Code: response.CodeBadRequest, Key: "error.domain_invalid"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrInvalidName, Code: response.CodeBadRequest, Key: "error.name_invalid"},
	{Target: service.ErrInvalidAPIKey, Code: response.CodeBadRequest, Key: "error.api_key_invalid"},
}

var affiliateWriteErrorRules = []mappedHandlerError{
	{Target: service.ErrMerchantNotFound, Code: response.CodeNotFound, Key: "error.merchant_not_found"},
	{Target: service.ErrAffiliateNotFound, Code: response.CodeNotFound, Key: "error.affiliate_not_found"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrInvalidName, Code: response.CodeBadRequest, Key: "error.name_invalid"},
	{Target: service.ErrInvalidCommissionRate, Code: response.CodeBadRequest, Key: "error.commission_rate_invalid"},
	{Target: service.ErrDiscountCodeIssue, Code: response.CodeServiceUnavailable, Key: "error.discount_code_issue_failed"},
}

var payoutScheduleErrorRules = []mappedHandlerError{
	{Target: service.ErrAffiliateNotFound, Code: response.CodeNotFound, Key: "error.affiliate_not_found"},
	{Target: service.ErrQueueUnavailable, Code: response.CodeServiceUnavailable, Key: "error.queue_unavailable"},
}

var statsErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidStatsRange, Code: response.CodeBadRequest, Key: "error.stats_range_invalid"},
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondProfileUpdateError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedHandlerErrors(profileUpdateErrorRules, identityConflictErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, "error.save_failed")
}

func respondAffiliateWriteError(c *gin.Context, err error) {
	rules := handlershared.ConcatMappedHandlerErrors(affiliateWriteErrorRules, identityConflictErrorRules)
	handlershared.RespondWithMappedError(c, err, rules, response.CodeInternal, "error.save_failed")
}

func respondPayoutScheduleError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, payoutScheduleErrorRules, response.CodeInternal, "error.payout_schedule_failed")
}

func respondStatsError(c *gin.Context, err error) {
	handlershared.RespondWithMappedError(c, err, statsErrorRules, response.CodeInternal, "error.stats_fetch_failed")
}
