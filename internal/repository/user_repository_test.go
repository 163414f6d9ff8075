package repository

import (
	"testing"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
)

func TestUserRepositoryCreateIfAbsentReturnsExisting(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewUserRepository(db)

	first, created, err := repo.CreateIfAbsent(&models.User{
		Email:       "  Buyer@Example.com ",
		DisplayName: "Buyer",
		Role:        constants.UserRoleAffiliate,
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if !created {
		t.Fatalf("first insert should create")
	}
	if first.Email != "buyer@example.com" {
		t.Fatalf("email should be normalized, got %s", first.Email)
	}

	second, created, err := repo.CreateIfAbsent(&models.User{
		Email:       "buyer@example.com",
		DisplayName: "Someone Else",
		Role:        constants.UserRoleMerchant,
	})
	if err != nil {
		t.Fatalf("conflict insert should not error: %v", err)
	}
	if created {
		t.Fatalf("conflict insert should not create")
	}
	if second.ID != first.ID || second.DisplayName != "Buyer" || second.Role != constants.UserRoleAffiliate {
		t.Fatalf("conflict should return existing row unchanged, got %+v", second)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("users want 1 got %d", count)
	}
}

func TestUserRepositoryGetByEmailMissing(t *testing.T) {
	repo := NewUserRepository(openRepositoryTestDB(t))
	user, err := repo.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}
