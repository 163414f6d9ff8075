package merchant

import (
	"strconv"
	"strings"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateAffiliateRequest 显式注册推广者请求
type CreateAffiliateRequest struct {
	Email          string `json:"email" binding:"required"`
	Name           string `json:"name" binding:"required"`
	CommissionRate string `json:"commission_rate"`
}

// UpdateCommissionRateRequest 修改佣金比例请求
type UpdateCommissionRateRequest struct {
	CommissionRate string `json:"commission_rate" binding:"required"`
}

// ListAffiliates 商户推广者列表
func (h *Handler) ListAffiliates(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = repository.NormalizePage(page, pageSize)

	rows, total, err := h.AffiliateService.ListByMerchant(merchantID, page, pageSize, strings.TrimSpace(c.Query("keyword")))
	if err != nil {
		respondError(c, response.CodeInternal, "error.affiliate_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// CreateAffiliate 显式注册推广者并发送欢迎通知
func (h *Handler) CreateAffiliate(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	var req CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input := service.RegisterAffiliateInput{Email: req.Email, Name: req.Name}
	if raw := strings.TrimSpace(req.CommissionRate); raw != "" {
		rate, err := service.ParseCommissionRate(raw)
		if err != nil {
			respondAffiliateWriteError(c, err)
			return
		}
		input.CommissionRate = &rate
	}

	merchant, err := h.MerchantService.GetByID(merchantID)
	if err != nil {
		respondAffiliateWriteError(c, err)
		return
	}
	result, err := h.AffiliateService.RegisterExplicit(c.Request.Context(), merchant, input)
	if err != nil {
		respondAffiliateWriteError(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateCommissionRate 修改推广者佣金比例（仅影响之后入库的订单）
func (h *Handler) UpdateCommissionRate(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	affiliateID, ok := parseAffiliateID(c)
	if !ok {
		return
	}
	var req UpdateCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.CommissionRate))
	if err != nil {
		respondAffiliateWriteError(c, service.ErrInvalidCommissionRate)
		return
	}
	affiliate, err := h.AffiliateService.UpdateCommissionRate(merchantID, affiliateID, rate)
	if err != nil {
		respondAffiliateWriteError(c, err)
		return
	}
	response.Success(c, affiliate)
}

// SchedulePayout 为推广者的未结算订单派发打款任务
func (h *Handler) SchedulePayout(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	affiliateID, ok := parseAffiliateID(c)
	if !ok {
		return
	}
	result, err := h.PayoutService.Schedule(c.Request.Context(), merchantID, affiliateID)
	if err != nil {
		respondPayoutScheduleError(c, err)
		return
	}
	response.Success(c, result)
}

func parseAffiliateID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
