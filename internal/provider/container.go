package provider

import (
	"github.com/affiliate-next/internal/authz"
	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	MerchantRepo     repository.MerchantRepository
	AffiliateRepo    repository.AffiliateRepository
	OrderRepo        repository.OrderRepository
	PayoutRecordRepo repository.PayoutRecordRepository
	StatsRepo        repository.StatsRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	EmailService       *service.EmailService
	DiscountCodeIssuer service.DiscountCodeIssuer
	PayoutGateway      service.PayoutGateway
	MerchantService    *service.MerchantService
	AffiliateService   *service.AffiliateService
	OrderService       *service.OrderService
	PayoutService      *service.PayoutService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时为禁用态客户端）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	// 3. 补齐启动初始化商户的访问角色
	c.ensureBootstrapMerchantRole()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PayoutRecordRepo = repository.NewPayoutRecordRepository(db)
	c.StatsRepo = repository.NewStatsRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(&c.Config.MerchantJWT)
	c.DiscountCodeIssuer = service.NewDiscountCodeIssuer(&c.Config.Discount)
	c.PayoutGateway = service.NewPayoutGateway(&c.Config.Payout)

	c.MerchantService = service.NewMerchantService(&c.Config.Affiliate, c.AuthService, c.UserRepo, c.MerchantRepo, c.OrderRepo, c.StatsRepo, c.AuthzService)
	c.AffiliateService = service.NewAffiliateService(&c.Config.Affiliate, c.UserRepo, c.MerchantRepo, c.AffiliateRepo, c.DiscountCodeIssuer, c.QueueClient, c.EmailService)
	c.OrderService = service.NewOrderService(&c.Config.Affiliate, c.OrderRepo, c.MerchantService, c.AffiliateService, c.DiscountCodeIssuer)
	c.PayoutService = service.NewPayoutService(&c.Config.Payout, c.UserRepo, c.AffiliateRepo, c.OrderRepo, c.PayoutRecordRepo, c.PayoutGateway, c.QueueClient)
}

func (c *Container) ensureBootstrapMerchantRole() {
	if !c.Config.Bootstrap.Enabled() {
		return
	}
	merchant, err := c.MerchantRepo.GetByDomain(c.Config.Bootstrap.MerchantDomain)
	if err != nil || merchant == nil {
		logger.Warnw("provider_bootstrap_merchant_lookup_failed", "domain", c.Config.Bootstrap.MerchantDomain, "error", err)
		return
	}
	if err := c.AuthzService.GrantMerchantRole(merchant.ID); err != nil {
		logger.Warnw("provider_bootstrap_merchant_grant_failed", "merchant_id", merchant.ID, "error", err)
	}
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
