package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/affiliate-next/internal/authz"
	"github.com/affiliate-next/internal/config"
	handlershared "github.com/affiliate-next/internal/http/handlers/shared"
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	healthPath      = "/health"
)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			requestIDHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件：5xx 记 error，4xx 记 warn，健康检查仅 debug
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if merchantID, ok := c.Get("merchant_id"); ok {
			fields = append(fields, "merchant_id", merchantID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500 || len(c.Errors) > 0:
			sugar.Errorw("http_request", fields...)
		case status >= 400:
			sugar.Warnw("http_request", fields...)
		case c.FullPath() == healthPath:
			sugar.Debugw("http_request", fields...)
		default:
			sugar.Infow("http_request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, handlershared.Message(key))
	c.Abort()
}

// MerchantJWTAuthMiddleware 商户 JWT 鉴权中间件
func MerchantJWTAuthMiddleware(authService *service.AuthService, merchantRepo repository.MerchantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService == nil || merchantRepo == nil {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		claims, err := authService.ParseMerchantJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		merchant, err := merchantRepo.GetByID(claims.MerchantID)
		if err != nil || merchant == nil || merchant.UserID != claims.UserID {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		c.Set("merchant_id", merchant.ID)
		c.Set("user_id", merchant.UserID)
		c.Set("merchant_domain", merchant.Domain)
		c.Next()
	}
}

// MerchantRBACMiddleware 商户接口 RBAC 鉴权中间件
func MerchantRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("merchant_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		merchantIDRaw, exists := c.Get("merchant_id")
		if !exists {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		merchantID, _ := merchantIDRaw.(uint)
		if merchantID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceMerchant(merchantID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("merchant_rbac_enforce_failed",
				"merchant_id", merchantID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("merchant_rbac_permission_denied",
				"merchant_id", merchantID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, handlershared.Message("error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}
