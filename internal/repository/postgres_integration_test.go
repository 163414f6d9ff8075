//go:build integration
// +build integration

package repository

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	_ = db.Migrator().DropTable(models.AllModels()...)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(models.AllModels()...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresConcurrentConflictAsFetch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	merchant := seedMerchant(t, db, "pg.example.com")

	const workers = 8
	var wg sync.WaitGroup
	userIDs := make([]uint, workers)
	orderIDs := make([]uint, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			errs[idx] = db.Transaction(func(tx *gorm.DB) error {
				user, _, err := NewUserRepository(tx).CreateIfAbsent(&models.User{
					Email:       "race@example.com",
					DisplayName: fmt.Sprintf("worker-%d", idx),
					Role:        constants.UserRoleAffiliate,
				})
				if err != nil {
					return err
				}
				userIDs[idx] = user.ID
				order, _, err := NewOrderRepository(tx).CreateIfAbsent(&models.Order{
					ExternalID:   "PG-RACE-1",
					MerchantID:   merchant.ID,
					Subtotal:     money("12.50"),
					PayoutStatus: constants.PayoutStatusUnpaid,
					CreatedAt:    time.Now(),
				})
				if err != nil {
					return err
				}
				orderIDs[idx] = order.ID
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if userIDs[i] != userIDs[0] || orderIDs[i] != orderIDs[0] {
			t.Fatalf("workers must converge on one row, got users=%v orders=%v", userIDs, orderIDs)
		}
	}
}
