package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func TestIngestCreatesAttributedOrder(t *testing.T) {
	env := setupServiceTest(t)
	merchant := seedServiceMerchant(t, env, "shop.example.com", "0.1", true)

	order, created, err := env.orders.Ingest(context.Background(), orderInput("EXT-1", "https://Shop.Example.com/", "200.00", "Buyer@Example.com"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !created {
		t.Fatalf("first ingest should create")
	}
	if order.MerchantID != merchant.ID {
		t.Fatalf("merchant id want %d got %d", merchant.ID, order.MerchantID)
	}
	if !order.Attributed() {
		t.Fatalf("order should be attributed")
	}
	if order.CommissionOwed.String() != "20.00" {
		t.Fatalf("commission want 20.00 got %s", order.CommissionOwed)
	}
	if order.PayoutStatus != constants.PayoutStatusUnpaid {
		t.Fatalf("payout status want unpaid got %s", order.PayoutStatus)
	}

	var affiliate models.Affiliate
	if err := env.db.First(&affiliate, *order.AffiliateID).Error; err != nil {
		t.Fatalf("load affiliate failed: %v", err)
	}
	if !affiliate.CommissionRate.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("affiliate rate want 0.1 got %s", affiliate.CommissionRate)
	}
	if affiliate.DiscountCode != "CODE-1" {
		t.Fatalf("discount code want CODE-1 got %s", affiliate.DiscountCode)
	}
	var user models.User
	if err := env.db.First(&user, affiliate.UserID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Email != "buyer@example.com" || user.Role != constants.UserRoleAffiliate {
		t.Fatalf("unexpected user: %+v", user)
	}
	if env.queue.welcomeCount() != 0 {
		t.Fatalf("organic referral should not notify by default")
	}
}

func TestIngestDuplicateDeliveryIsNoop(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "dup.example.com", "0.1", true)
	ctx := context.Background()

	first, created, err := env.orders.Ingest(ctx, orderInput("EXT-DUP", "dup.example.com", "200.00", "dup@example.com"))
	if err != nil || !created {
		t.Fatalf("first ingest failed: created=%v err=%v", created, err)
	}
	second, created, err := env.orders.Ingest(ctx, orderInput("EXT-DUP", "dup.example.com", "999.00", "other@example.com"))
	if err != nil {
		t.Fatalf("duplicate ingest should not error: %v", err)
	}
	if created {
		t.Fatalf("duplicate ingest should not create")
	}
	if second.ID != first.ID || second.CommissionOwed.String() != "20.00" {
		t.Fatalf("duplicate should return original order, got id=%d commission=%s", second.ID, second.CommissionOwed)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 1 {
		t.Fatalf("orders want 1 got %d", got)
	}
	if got := countRows(t, env.db, &models.Affiliate{}); got != 1 {
		t.Fatalf("affiliates want 1 got %d", got)
	}
	if env.issuer.callCount() != 1 {
		t.Fatalf("issuer want 1 call got %d", env.issuer.callCount())
	}
}

func TestIngestConcurrentDeliveriesConverge(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "race.example.com", "0.1", true)

	var createdCount int32
	var group errgroup.Group
	for i := 0; i < 8; i++ {
		group.Go(func() error {
			_, created, err := env.orders.Ingest(context.Background(), orderInput("EXT-RACE", "race.example.com", "100.00", "racer@example.com"))
			if err != nil {
				return err
			}
			if created {
				atomic.AddInt32(&createdCount, 1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent ingest failed: %v", err)
	}
	if createdCount != 1 {
		t.Fatalf("exactly one delivery should create, got %d", createdCount)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 1 {
		t.Fatalf("orders want 1 got %d", got)
	}
	if got := countRows(t, env.db, &models.User{}); got != 2 {
		t.Fatalf("users want 2 (merchant + affiliate) got %d", got)
	}
	if got := countRows(t, env.db, &models.Affiliate{}); got != 1 {
		t.Fatalf("affiliates want 1 got %d", got)
	}
}

func TestIngestConcurrentReferralsShareAffiliate(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "referral.example.com", "0.2", true)

	var group errgroup.Group
	for i := 0; i < 6; i++ {
		orderID := fmt.Sprintf("EXT-REF-%d", i)
		group.Go(func() error {
			_, _, err := env.orders.Ingest(context.Background(), orderInput(orderID, "referral.example.com", "50.00", "same@example.com"))
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent referrals failed: %v", err)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 6 {
		t.Fatalf("orders want 6 got %d", got)
	}
	if got := countRows(t, env.db, &models.Affiliate{}); got != 1 {
		t.Fatalf("affiliates want 1 got %d", got)
	}

	var orders []models.Order
	if err := env.db.Find(&orders).Error; err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	for _, order := range orders {
		if order.AffiliateID == nil || *order.AffiliateID != *orders[0].AffiliateID {
			t.Fatalf("all orders should share one affiliate")
		}
		if order.CommissionOwed.String() != "10.00" {
			t.Fatalf("commission want 10.00 got %s", order.CommissionOwed)
		}
	}
}

func TestIngestKnownAffiliateKeepsRateAndCode(t *testing.T) {
	env := setupServiceTest(t)
	merchant := seedServiceMerchant(t, env, "known.example.com", "0.1", true)
	rate := decimal.RequireFromString("0.25")
	registered, err := env.affiliate.RegisterExplicit(context.Background(), merchant, RegisterAffiliateInput{
		Email:          "known@example.com",
		Name:           "Known",
		CommissionRate: &rate,
	})
	if err != nil {
		t.Fatalf("register affiliate failed: %v", err)
	}
	issued := env.issuer.callCount()

	order, _, err := env.orders.Ingest(context.Background(), orderInput("EXT-KNOWN", "known.example.com", "80.00", "known@example.com"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if order.AffiliateID == nil || *order.AffiliateID != registered.Affiliate.ID {
		t.Fatalf("order should attribute to registered affiliate")
	}
	if order.CommissionOwed.String() != "20.00" {
		t.Fatalf("commission want 20.00 got %s", order.CommissionOwed)
	}
	if env.issuer.callCount() != issued {
		t.Fatalf("known affiliate should not get a new code")
	}

	var affiliate models.Affiliate
	if err := env.db.First(&affiliate, registered.Affiliate.ID).Error; err != nil {
		t.Fatalf("load affiliate failed: %v", err)
	}
	if !affiliate.CommissionRate.Equal(rate) || affiliate.DiscountCode != registered.Affiliate.DiscountCode {
		t.Fatalf("known affiliate should stay unchanged, got rate=%s code=%s", affiliate.CommissionRate, affiliate.DiscountCode)
	}
}

func TestIngestRateChangeDoesNotTouchExistingOrders(t *testing.T) {
	env := setupServiceTest(t)
	merchant := seedServiceMerchant(t, env, "rate.example.com", "0.1", true)
	ctx := context.Background()

	first, _, err := env.orders.Ingest(ctx, orderInput("EXT-R1", "rate.example.com", "100.00", "rate@example.com"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := env.affiliate.UpdateCommissionRate(merchant.ID, *first.AffiliateID, decimal.RequireFromString("0.5")); err != nil {
		t.Fatalf("update rate failed: %v", err)
	}
	second, _, err := env.orders.Ingest(ctx, orderInput("EXT-R2", "rate.example.com", "100.00", "rate@example.com"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.CommissionOwed.String() != "10.00" {
		t.Fatalf("existing commission should stay 10.00, got %s", reloaded.CommissionOwed)
	}
	if second.CommissionOwed.String() != "50.00" {
		t.Fatalf("new commission want 50.00 got %s", second.CommissionOwed)
	}
}

func TestIngestUnattributedWhenAutoAffiliateDisabled(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "off.example.com", "0.1", false)

	order, created, err := env.orders.Ingest(context.Background(), orderInput("EXT-OFF", "off.example.com", "120.00", "customer@example.com"))
	if err != nil || !created {
		t.Fatalf("ingest failed: created=%v err=%v", created, err)
	}
	if order.Attributed() {
		t.Fatalf("order should be unattributed")
	}
	if !order.CommissionOwed.IsZero() {
		t.Fatalf("commission should be zero, got %s", order.CommissionOwed)
	}
	if got := countRows(t, env.db, &models.User{}); got != 1 {
		t.Fatalf("no customer user should be created, users=%d", got)
	}
	if env.issuer.callCount() != 0 {
		t.Fatalf("issuer should not be called")
	}
}

func TestIngestEmptyEmailIsUnattributed(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "anon.example.com", "0.1", true)

	order, _, err := env.orders.Ingest(context.Background(), orderInput("EXT-ANON", "anon.example.com", "30.00", "  "))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if order.Attributed() || !order.CommissionOwed.IsZero() {
		t.Fatalf("order without email should be unattributed")
	}
}

func TestIngestZeroSubtotal(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "zero.example.com", "0.1", true)

	order, _, err := env.orders.Ingest(context.Background(), orderInput("EXT-ZERO", "zero.example.com", "0", "zero@example.com"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !order.Attributed() || order.CommissionOwed.String() != "0.00" {
		t.Fatalf("zero subtotal should attribute with zero commission, got %s", order.CommissionOwed)
	}
}

func TestIngestMerchantEmailRejectedWithoutSideEffects(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "self.example.com", "0.1", true)

	_, _, err := env.orders.Ingest(context.Background(), orderInput("EXT-SELF", "self.example.com", "10.00", "owner@self.example.com"))
	if !errors.Is(err, ErrEmailAlreadyMerchant) {
		t.Fatalf("expected ErrEmailAlreadyMerchant, got %v", err)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 0 {
		t.Fatalf("no order should be written, got %d", got)
	}
	if got := countRows(t, env.db, &models.Affiliate{}); got != 0 {
		t.Fatalf("no affiliate should be written, got %d", got)
	}
	if env.queue.welcomeCount() != 0 {
		t.Fatalf("no notification should be sent")
	}
}

func TestIngestValidation(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "valid.example.com", "0.1", true)
	ctx := context.Background()

	if _, _, err := env.orders.Ingest(ctx, orderInput("  ", "valid.example.com", "10.00", "")); !errors.Is(err, ErrInvalidOrderID) {
		t.Fatalf("expected ErrInvalidOrderID, got %v", err)
	}
	if _, _, err := env.orders.Ingest(ctx, orderInput("EXT-NEG", "valid.example.com", "-1.00", "")); !errors.Is(err, ErrInvalidOrderAmount) {
		t.Fatalf("expected ErrInvalidOrderAmount, got %v", err)
	}
	if _, _, err := env.orders.Ingest(ctx, orderInput("EXT-NOSHOP", "missing.example.com", "10.00", "")); !errors.Is(err, ErrMerchantNotFound) {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 0 {
		t.Fatalf("no order should be written, got %d", got)
	}
}

func TestIngestIssuerFailureAborts(t *testing.T) {
	env := setupServiceTest(t)
	seedServiceMerchant(t, env, "issuer.example.com", "0.1", true)
	env.issuer.err = ErrDiscountCodeIssue

	_, _, err := env.orders.Ingest(context.Background(), orderInput("EXT-ISSUE", "issuer.example.com", "10.00", "new@example.com"))
	if !errors.Is(err, ErrDiscountCodeIssue) {
		t.Fatalf("expected ErrDiscountCodeIssue, got %v", err)
	}
	if got := countRows(t, env.db, &models.Order{}); got != 0 {
		t.Fatalf("no order should be written, got %d", got)
	}
	if got := countRows(t, env.db, &models.User{}); got != 1 {
		t.Fatalf("no customer user should be written, got %d", got)
	}
}

func TestIngestNotifiesOrganicAffiliateWhenEnabled(t *testing.T) {
	env := setupServiceTest(t)
	env.cfg.Affiliate.NotifyOnReferral = true
	seedServiceMerchant(t, env, "notify.example.com", "0.1", true)
	ctx := context.Background()

	if _, _, err := env.orders.Ingest(ctx, orderInput("EXT-N1", "notify.example.com", "10.00", "notify@example.com")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, _, err := env.orders.Ingest(ctx, orderInput("EXT-N2", "notify.example.com", "10.00", "notify@example.com")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if env.queue.welcomeCount() != 1 {
		t.Fatalf("welcome should be queued once, got %d", env.queue.welcomeCount())
	}
}
