package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/provider"
	"github.com/affiliate-next/internal/service"

	"github.com/shopspring/decimal"
)

const (
	demoDomain = "demo-shop.example.com"
	demoEmail  = "owner@demo-shop.example.com"
	demoAPIKey = "demo-shop-api-key-change-me"
)

type demoAffiliate struct {
	email string
	name  string
	rate  string
}

var demoAffiliates = []demoAffiliate{
	{email: "alice@partners.example.com", name: "Alice", rate: "0.15"},
	{email: "bob@partners.example.com", name: "Bob"},
	{email: "carol@partners.example.com", name: "Carol", rate: "0.2"},
}

// registerInput 演示推广者注册参数，未设置比例时使用商户默认值
func (item demoAffiliate) registerInput() service.RegisterAffiliateInput {
	input := service.RegisterAffiliateInput{Email: item.email, Name: item.name}
	if item.rate != "" {
		rate := decimal.RequireFromString(item.rate)
		input.CommissionRate = &rate
	}
	return input
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示数据不发送邮件
	cfg.Email.Enabled = false
	container := provider.NewContainer(cfg)
	defer container.Close()
	ctx := context.Background()

	// 商户
	merchant, err := container.MerchantService.Register(ctx, service.RegisterMerchantInput{
		Domain: demoDomain,
		Name:   "Demo Shop",
		Email:  demoEmail,
		APIKey: demoAPIKey,
	})
	switch {
	case err == nil:
		stdLog.Printf("Created merchant: %s (login %s / %s)", merchant.Domain, demoEmail, demoAPIKey)
	case errors.Is(err, service.ErrMerchantDomainExists):
		merchant, err = container.MerchantService.GetByDomain(ctx, demoDomain)
		if err != nil {
			stdLog.Fatalf("Failed to load merchant %s: %v", demoDomain, err)
		}
		stdLog.Printf("Merchant already exists: %s", merchant.Domain)
	default:
		stdLog.Fatalf("Failed to create merchant: %v", err)
	}

	// 推广者
	codes := make([]string, 0, len(demoAffiliates))
	for _, item := range demoAffiliates {
		result, err := container.AffiliateService.RegisterExplicit(ctx, merchant, item.registerInput())
		if err != nil {
			stdLog.Printf("Failed to create affiliate %s: %v", item.email, err)
			continue
		}
		stdLog.Printf("Affiliate %s discount code: %s", item.email, result.Affiliate.DiscountCode)
		codes = append(codes, result.Affiliate.DiscountCode)
	}

	// 订单：一部分通过折扣码归因，其余为直购
	subtotals := []string{"49.90", "120.00", "15.50", "300.00", "89.00", "42.00"}
	for idx, subtotal := range subtotals {
		input := service.IngestOrderInput{
			OrderID:       fmt.Sprintf("DEMO-%04d", idx+1),
			Domain:        demoDomain,
			Subtotal:      decimal.RequireFromString(subtotal),
			CustomerEmail: fmt.Sprintf("customer%d@buyers.example.com", idx+1),
			CustomerName:  fmt.Sprintf("Customer %d", idx+1),
		}
		if idx < len(codes) {
			input.DiscountCode = codes[idx]
		}
		order, created, err := container.OrderService.Ingest(ctx, input)
		if err != nil {
			stdLog.Printf("Failed to ingest order %s: %v", input.OrderID, err)
			continue
		}
		if !created {
			stdLog.Printf("Order already exists: %s", order.ExternalID)
			continue
		}
		stdLog.Printf("Created order %s commission=%s", order.ExternalID, order.CommissionOwed.String())
	}

	stdLog.Printf("Seed completed")
}
