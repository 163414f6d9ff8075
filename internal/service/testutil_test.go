package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubQueue struct {
	mu         sync.Mutex
	disabled   bool
	payoutErr  error
	welcomeErr error
	payouts    []queue.OrderPayoutPayload
	welcomes   []queue.AffiliateWelcomeEmailPayload
	taskIDs    map[string]bool
}

func (q *stubQueue) Enabled() bool {
	return !q.disabled
}

func (q *stubQueue) EnqueueOrderPayout(payload queue.OrderPayoutPayload, _ int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.payoutErr != nil {
		return q.payoutErr
	}
	// asynq 会保留已归档任务的 ID，重复 ID 视为在途
	id := queue.OrderPayoutTaskID(payload.OrderID, payload.ScheduledAt)
	if q.taskIDs == nil {
		q.taskIDs = make(map[string]bool)
	}
	if q.taskIDs[id] {
		return queue.ErrTaskInFlight
	}
	q.taskIDs[id] = true
	q.payouts = append(q.payouts, payload)
	return nil
}

func (q *stubQueue) EnqueueAffiliateWelcomeEmail(payload queue.AffiliateWelcomeEmailPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.welcomeErr != nil {
		return q.welcomeErr
	}
	q.welcomes = append(q.welcomes, payload)
	return nil
}

func (q *stubQueue) welcomeCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.welcomes)
}

type stubIssuer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (i *stubIssuer) Issue(_ context.Context, req DiscountCodeRequest) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return "", i.err
	}
	return fmt.Sprintf("CODE-%d", i.calls), nil
}

func (i *stubIssuer) callCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

type stubGateway struct {
	mu       sync.Mutex
	failures int
	calls    int
	keys     []string
}

func (g *stubGateway) Disburse(_ context.Context, req PayoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failures > 0 {
		g.failures--
		return "", errors.New("gateway unavailable")
	}
	g.keys = append(g.keys, req.IdempotencyKey)
	return "ref-" + req.IdempotencyKey, nil
}

type stubRoleGranter struct {
	granted []uint
}

func (g *stubRoleGranter) GrantMerchantRole(merchantID uint) error {
	g.granted = append(g.granted, merchantID)
	return nil
}

type serviceTestEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	queue     *stubQueue
	issuer    *stubIssuer
	gateway   *stubGateway
	roles     *stubRoleGranter
	merchants *MerchantService
	affiliate *AffiliateService
	orders    *OrderService
	payouts   *PayoutService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		MerchantJWT: config.JWTConfig{SecretKey: "test-merchant-secret", ExpireHours: 1},
		Affiliate:   config.AffiliateConfig{DefaultCommissionRate: "0.1", AutoAffiliate: true},
		Payout:      config.PayoutConfig{MaxRetry: 3, ScheduleTimeoutMinutes: 30},
	}
	env := &serviceTestEnv{
		db:      db,
		cfg:     cfg,
		queue:   &stubQueue{},
		issuer:  &stubIssuer{},
		gateway: &stubGateway{},
		roles:   &stubRoleGranter{},
	}

	userRepo := repository.NewUserRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	payoutRepo := repository.NewPayoutRecordRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	env.merchants = NewMerchantService(&cfg.Affiliate, NewAuthService(&cfg.MerchantJWT), userRepo, merchantRepo, orderRepo, statsRepo, env.roles)
	env.affiliate = NewAffiliateService(&cfg.Affiliate, userRepo, merchantRepo, affiliateRepo, env.issuer, env.queue, nil)
	env.orders = NewOrderService(&cfg.Affiliate, orderRepo, env.merchants, env.affiliate, env.issuer)
	env.payouts = NewPayoutService(&cfg.Payout, userRepo, affiliateRepo, orderRepo, payoutRepo, env.gateway, env.queue)
	return env
}

func seedServiceMerchant(t *testing.T, env *serviceTestEnv, domain, rate string, autoAffiliate bool) *models.Merchant {
	t.Helper()
	user := &models.User{
		Email:        "owner@" + domain,
		DisplayName:  "Owner",
		Role:         constants.UserRoleMerchant,
		PasswordHash: "hash",
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create merchant user failed: %v", err)
	}
	merchant := &models.Merchant{
		UserID:                      user.ID,
		Domain:                      domain,
		DisplayName:                 "Shop " + domain,
		DefaultCommissionRate:       decimal.RequireFromString(rate),
		TurnCustomersIntoAffiliates: autoAffiliate,
	}
	if err := env.db.Create(merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return merchant
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

func orderInput(orderID, domain, subtotal, email string) IngestOrderInput {
	return IngestOrderInput{
		OrderID:       orderID,
		Domain:        domain,
		Subtotal:      decimal.RequireFromString(subtotal),
		CustomerEmail: email,
		CustomerName:  "Customer",
	}
}
