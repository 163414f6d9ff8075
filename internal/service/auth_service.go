package service

import (
	"errors"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minAPIKeyLength = 8

// AuthService 商户凭证与会话令牌
type AuthService struct {
	cfg *config.JWTConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// HashAPIKey 使用 bcrypt 加密 API Key
func (s *AuthService) HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey 验证 API Key
func (s *AuthService) VerifyAPIKey(hashedKey, apiKey string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(apiKey))
}

// ValidateAPIKey 校验 API Key 强度
func (s *AuthService) ValidateAPIKey(apiKey string) error {
	if len(apiKey) < minAPIKeyLength {
		return ErrInvalidAPIKey
	}
	return nil
}

// MerchantClaims 商户 JWT 声明
type MerchantClaims struct {
	MerchantID uint   `json:"merchant_id"`
	UserID     uint   `json:"user_id"`
	Domain     string `json:"domain"`
	jwt.RegisteredClaims
}

// GenerateMerchantJWT 生成商户 JWT Token
func (s *AuthService) GenerateMerchantJWT(merchant *models.Merchant) (string, time.Time, error) {
	expireHours := s.cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := MerchantClaims{
		MerchantID: merchant.ID,
		UserID:     merchant.UserID,
		Domain:     merchant.Domain,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseMerchantJWT 解析商户 JWT Token
func (s *AuthService) ParseMerchantJWT(tokenString string) (*MerchantClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &MerchantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*MerchantClaims); ok && token.Valid && claims.MerchantID != 0 {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}
