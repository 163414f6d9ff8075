package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/affiliate-next/internal/app"
	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiBlue      = "\033[34m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.MerchantJWT.SecretKey) {
			stdLog.Fatalf("商户 JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
	} else if isWeakSecret(cfg.MerchantJWT.SecretKey) {
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化商户（仅在库为空且配置完整时生效）
	if cfg.Bootstrap.Enabled() {
		if err := models.InitBootstrapMerchant(models.BootstrapMerchant{
			Domain:         cfg.Bootstrap.MerchantDomain,
			Name:           cfg.Bootstrap.MerchantName,
			Email:          cfg.Bootstrap.MerchantEmail,
			APIKey:         cfg.Bootstrap.MerchantAPIKey,
			CommissionRate: cfg.Affiliate.DefaultRate(),
			AutoAffiliate:  cfg.Affiliate.AutoAffiliate,
		}); err != nil {
			stdLog.Printf("警告: 初始化商户失败: %v", err)
		}
	} else if cfg.Server.Mode == "release" {
		stdLog.Printf("提示: 未配置 bootstrap 商户，请通过 /api/v1/merchants/register 注册")
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║                 Affiliate-Next API 启动中                    ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "  orders in -> attribution -> commission -> payout" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Endpoints" + ansiReset)
	fmt.Println(ansiBlue + "• Webhook:  POST /api/v1/webhooks/orders" + ansiReset)
	fmt.Println(ansiBlue + "• Merchant: /api/v1/merchant/*" + ansiReset)
	fmt.Println(ansiBlue + "• Health:   GET /health" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
