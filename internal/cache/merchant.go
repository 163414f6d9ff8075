package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
)

const merchantCacheTTL = 5 * time.Minute

// MerchantSnapshot 商户归因配置快照
type MerchantSnapshot struct {
	ID                          uint            `json:"id"`
	UserID                      uint            `json:"user_id"`
	Domain                      string          `json:"domain"`
	DisplayName                 string          `json:"display_name"`
	DefaultCommissionRate       decimal.Decimal `json:"default_commission_rate"`
	TurnCustomersIntoAffiliates bool            `json:"turn_customers_into_affiliates"`
}

func merchantDomainKey(domain string) string {
	return fmt.Sprintf("merchant:domain:%s", strings.ToLower(strings.TrimSpace(domain)))
}

// BuildMerchantSnapshot 由商户模型构建快照
func BuildMerchantSnapshot(merchant *models.Merchant) *MerchantSnapshot {
	if merchant == nil {
		return nil
	}
	return &MerchantSnapshot{
		ID:                          merchant.ID,
		UserID:                      merchant.UserID,
		Domain:                      merchant.Domain,
		DisplayName:                 merchant.DisplayName,
		DefaultCommissionRate:       merchant.DefaultCommissionRate,
		TurnCustomersIntoAffiliates: merchant.TurnCustomersIntoAffiliates,
	}
}

// ToModel 还原为商户模型
func (s *MerchantSnapshot) ToModel() *models.Merchant {
	if s == nil {
		return nil
	}
	return &models.Merchant{
		ID:                          s.ID,
		UserID:                      s.UserID,
		Domain:                      s.Domain,
		DisplayName:                 s.DisplayName,
		DefaultCommissionRate:       s.DefaultCommissionRate,
		TurnCustomersIntoAffiliates: s.TurnCustomersIntoAffiliates,
	}
}

// GetMerchantByDomain 读取商户快照
func GetMerchantByDomain(ctx context.Context, domain string) (*MerchantSnapshot, bool, error) {
	var snapshot MerchantSnapshot
	hit, err := GetJSON(ctx, merchantDomainKey(domain), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetMerchant 写入商户快照
func SetMerchant(ctx context.Context, snapshot *MerchantSnapshot) error {
	if snapshot == nil || strings.TrimSpace(snapshot.Domain) == "" {
		return nil
	}
	return SetJSON(ctx, merchantDomainKey(snapshot.Domain), snapshot, merchantCacheTTL)
}

// DelMerchantDomain 删除商户快照
func DelMerchantDomain(ctx context.Context, domain string) error {
	if strings.TrimSpace(domain) == "" {
		return nil
	}
	return Del(ctx, merchantDomainKey(domain))
}
