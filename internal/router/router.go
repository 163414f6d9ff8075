package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	merchanthandlers "github.com/affiliate-next/internal/http/handlers/merchant"
	publichandlers "github.com/affiliate-next/internal/http/handlers/public"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/商户分组）
	publicHandler := publichandlers.New(c)
	merchantHandler := merchanthandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "aff"
	}
	redisClient := cache.Client()
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.WebhookRateLimit.BlockSeconds,
		HTTPStatus:    true,
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 订单事件（外部店铺推送）
		apiV1.POST("/webhooks/orders", RateLimitMiddleware(redisClient, webhookRule, KeyByIP), publicHandler.IngestOrder)

		// 商户注册与登录
		merchants := apiV1.Group("/merchants")
		{
			merchants.POST("/register", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.RegisterMerchant)
			merchants.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.LoginMerchant)
		}

		// 商户后台（需鉴权）
		merchant := apiV1.Group("/merchant")
		merchant.Use(MerchantJWTAuthMiddleware(c.AuthService, c.MerchantRepo), MerchantRBACMiddleware(c.AuthzService))
		{
			merchant.GET("/profile", merchantHandler.GetProfile)
			merchant.PUT("/profile", merchantHandler.UpdateProfile)

			merchant.GET("/affiliates", merchantHandler.ListAffiliates)
			merchant.POST("/affiliates", merchantHandler.CreateAffiliate)
			merchant.PUT("/affiliates/:id/commission-rate", merchantHandler.UpdateCommissionRate)
			merchant.POST("/affiliates/:id/payout", merchantHandler.SchedulePayout)

			merchant.GET("/orders", merchantHandler.ListOrders)
			merchant.GET("/stats", merchantHandler.GetStats)
			merchant.GET("/stats/trends", merchantHandler.GetTrends)
		}
	}

	// 健康检查
	r.GET(healthPath, healthCheck)

	return r
}

// healthCheck 数据库不可用时返回 503，供负载均衡摘除实例
func healthCheck(c *gin.Context) {
	status := gin.H{"status": "ok", "redis": cache.Enabled()}
	if models.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_uninitialized"})
		return
	}
	sqlDB, err := models.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.Warnw("health_check_db_unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
		return
	}
	c.JSON(http.StatusOK, status)
}
