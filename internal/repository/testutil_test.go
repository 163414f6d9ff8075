package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedMerchant(t *testing.T, db *gorm.DB, domain string) *models.Merchant {
	t.Helper()
	user := &models.User{
		Email:        "owner@" + domain,
		DisplayName:  "Owner",
		Role:         constants.UserRoleMerchant,
		PasswordHash: "hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create merchant user failed: %v", err)
	}
	merchant := &models.Merchant{
		UserID:                      user.ID,
		Domain:                      domain,
		DisplayName:                 "Shop",
		DefaultCommissionRate:       decimal.RequireFromString("0.1"),
		TurnCustomersIntoAffiliates: true,
	}
	if err := db.Create(merchant).Error; err != nil {
		t.Fatalf("create merchant failed: %v", err)
	}
	return merchant
}

func seedAffiliate(t *testing.T, db *gorm.DB, merchantID uint, email string) *models.Affiliate {
	t.Helper()
	user := &models.User{Email: email, DisplayName: "Aff", Role: constants.UserRoleAffiliate}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create affiliate user failed: %v", err)
	}
	affiliate := &models.Affiliate{
		UserID:         user.ID,
		MerchantID:     merchantID,
		CommissionRate: decimal.RequireFromString("0.1"),
		DiscountCode:   "CODE-" + email,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	return affiliate
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}
