package merchant

import (
	"errors"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 商户资料更新请求（字段为空表示不修改）
type UpdateProfileRequest struct {
	Domain      *string `json:"domain"`
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	APIKey      *string `json:"api_key"`
}

// GetProfile 获取当前商户资料
func (h *Handler) GetProfile(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	merchant, err := h.MerchantService.GetByID(merchantID)
	if err != nil {
		if errors.Is(err, service.ErrMerchantNotFound) {
			respondError(c, response.CodeNotFound, "error.merchant_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.merchant_fetch_failed", err)
		return
	}
	response.Success(c, merchant)
}

// UpdateProfile 更新当前商户资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	merchantID, ok := getMerchantID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	merchant, err := h.MerchantService.UpdateProfile(c.Request.Context(), merchantID, service.UpdateMerchantInput{
		Domain:      req.Domain,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		APIKey:      req.APIKey,
	})
	if err != nil {
		respondProfileUpdateError(c, err)
		return
	}
	response.Success(c, merchant)
}
