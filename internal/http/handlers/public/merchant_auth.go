package public

import (
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MerchantRegisterRequest 商户注册请求
type MerchantRegisterRequest struct {
	Domain string `json:"domain" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required"`
	APIKey string `json:"api_key" binding:"required"`
}

// MerchantLoginRequest 商户登录请求
type MerchantLoginRequest struct {
	Email  string `json:"email" binding:"required"`
	APIKey string `json:"api_key" binding:"required"`
}

// RegisterMerchant 商户注册
func (h *Handler) RegisterMerchant(c *gin.Context) {
	var req MerchantRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	merchant, err := h.MerchantService.Register(c.Request.Context(), service.RegisterMerchantInput{
		Domain: req.Domain,
		Name:   req.Name,
		Email:  req.Email,
		APIKey: req.APIKey,
	})
	if err != nil {
		respondMerchantRegisterError(c, err)
		return
	}
	response.Success(c, merchant)
}

// LoginMerchant 商户登录并签发 JWT
func (h *Handler) LoginMerchant(c *gin.Context) {
	var req MerchantLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.MerchantService.Login(req.Email, req.APIKey)
	if err != nil {
		respondMerchantLoginError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"merchant":   result.Merchant,
	})
}
