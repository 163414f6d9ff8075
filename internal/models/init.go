package models

import (
	"errors"
	"strings"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BootstrapMerchant 启动时初始化的商户参数
type BootstrapMerchant struct {
	Domain         string
	Name           string
	Email          string
	APIKey         string
	CommissionRate decimal.Decimal
	AutoAffiliate  bool
}

// InitBootstrapMerchant 当库中没有任何商户时创建初始商户
func InitBootstrapMerchant(input BootstrapMerchant) error {
	domain := strings.ToLower(strings.TrimSpace(input.Domain))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if domain == "" || email == "" || input.APIKey == "" {
		return errors.New("bootstrap merchant requires domain, email and api key")
	}

	var count int64
	if err := DB.Model(&Merchant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debugw("bootstrap_merchant_skip_existing", "merchant_count", count)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.APIKey), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		user := User{
			Email:        email,
			DisplayName:  strings.TrimSpace(input.Name),
			Role:         constants.UserRoleMerchant,
			PasswordHash: string(hash),
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		merchant := Merchant{
			UserID:                      user.ID,
			Domain:                      domain,
			DisplayName:                 strings.TrimSpace(input.Name),
			DefaultCommissionRate:       input.CommissionRate,
			TurnCustomersIntoAffiliates: input.AutoAffiliate,
		}
		if err := tx.Create(&merchant).Error; err != nil {
			return err
		}
		logger.Warnw("bootstrap_merchant_created", "merchant_id", merchant.ID, "domain", domain, "api_key_hidden", true)
		return nil
	})
}
