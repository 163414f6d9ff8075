package public

import (
	"strings"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderWebhookRequest 外部店铺推送的订单事件
type OrderWebhookRequest struct {
	OrderID        string          `json:"order_id" binding:"required"`
	SubtotalPrice  decimal.Decimal `json:"subtotal_price"`
	MerchantDomain string          `json:"merchant_domain" binding:"required"`
	DiscountCode   string          `json:"discount_code"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
}

// IngestOrder 接收订单事件（同一 order_id 重复投递返回已有订单）
func (h *Handler) IngestOrder(c *gin.Context) {
	var req OrderWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.OrderService == nil {
		respondError(c, response.CodeInternal, "error.order_ingest_failed", nil)
		return
	}

	order, created, err := h.OrderService.Ingest(c.Request.Context(), service.IngestOrderInput{
		OrderID:       strings.TrimSpace(req.OrderID),
		Domain:        req.MerchantDomain,
		Subtotal:      req.SubtotalPrice,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		DiscountCode:  req.DiscountCode,
	})
	if err != nil {
		respondOrderIngestError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order":   order,
		"created": created,
	})
}
