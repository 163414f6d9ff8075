package merchant

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/affiliate-next/internal/http/handlers/shared"
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/repository"

	"github.com/gin-gonic/gin"
)

const defaultStatsWindow = 30 * 24 * time.Hour

// ListOrders 商户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = repository.NormalizePage(page, pageSize)
	affiliateID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("affiliate_id")), 10, 64)

	from, to, err := parseRangeQuery(c, false)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rows, total, err := h.MerchantService.ListOrders(merchantID, repository.OrderListFilter{
		Page:         page,
		PageSize:     pageSize,
		AffiliateID:  uint(affiliateID),
		PayoutStatus: strings.TrimSpace(c.Query("payout_status")),
		CreatedFrom:  from,
		CreatedTo:    to,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetStats 商户区间订单统计
func (h *Handler) GetStats(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	from, to, err := parseRangeQuery(c, true)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	stats, err := h.MerchantService.OrderStats(merchantID, *from, *to)
	if err != nil {
		respondStatsError(c, err)
		return
	}
	response.Success(c, gin.H{
		"from":            from,
		"to":              to,
		"count":           stats.OrderCount,
		"commission_owed": stats.CommissionOwed.StringFixed(2),
		"revenue":         stats.Revenue.StringFixed(2),
	})
}

// GetTrends 商户区间按日趋势
func (h *Handler) GetTrends(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	from, to, err := parseRangeQuery(c, true)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, err := h.MerchantService.OrderTrends(merchantID, *from, *to)
	if err != nil {
		respondStatsError(c, err)
		return
	}
	response.Success(c, rows)
}

// parseRangeQuery 解析 from/to，withDefault 为 true 时缺省取最近 30 天
func parseRangeQuery(c *gin.Context, withDefault bool) (*time.Time, *time.Time, error) {
	from, err := handlershared.ParseTimeQuery(c.Query("from"), false)
	if err != nil {
		return nil, nil, err
	}
	to, err := handlershared.ParseTimeQuery(c.Query("to"), true)
	if err != nil {
		return nil, nil, err
	}
	if !withDefault {
		return from, to, nil
	}
	if to == nil {
		now := time.Now()
		to = &now
	}
	if from == nil {
		start := to.Add(-defaultStatsWindow)
		from = &start
	}
	return from, to, nil
}
