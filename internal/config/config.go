package config

import (
	"fmt"
	"strings"

	"github.com/affiliate-next/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Database    DatabaseConfig  `mapstructure:"database"`
	MerchantJWT JWTConfig       `mapstructure:"merchant_jwt"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Queue       QueueConfig     `mapstructure:"queue"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Security    SecurityConfig  `mapstructure:"security"`
	Email       EmailConfig     `mapstructure:"email"`
	Affiliate   AffiliateConfig `mapstructure:"affiliate"`
	Discount    DiscountConfig  `mapstructure:"discount"`
	Payout      PayoutConfig    `mapstructure:"payout"`
	Bootstrap   BootstrapConfig `mapstructure:"bootstrap"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadHeaderTimeoutSeconds int `mapstructure:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds      int `mapstructure:"write_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	WebhookRateLimit RateLimitConfig `mapstructure:"webhook_rate_limit"`
	LoginRateLimit   RateLimitConfig `mapstructure:"login_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// AffiliateConfig 推广归因配置
type AffiliateConfig struct {
	DefaultCommissionRate string `mapstructure:"default_commission_rate"`
	AutoAffiliate         bool   `mapstructure:"auto_affiliate"`
	NotifyOnReferral      bool   `mapstructure:"notify_on_referral"`
}

// DefaultRate 解析默认佣金比例，非法值回退为 0.1
func (c AffiliateConfig) DefaultRate() decimal.Decimal {
	fallback := decimal.RequireFromString("0.1")
	raw := strings.TrimSpace(c.DefaultCommissionRate)
	if raw == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fallback
	}
	return rate
}

// DiscountConfig 折扣码签发服务配置
type DiscountConfig struct {
	Provider   string `mapstructure:"provider"` // local / http
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
	RetryCount int    `mapstructure:"retry_count"`
	CodeLength int    `mapstructure:"code_length"`
}

// PayoutConfig 佣金打款配置
type PayoutConfig struct {
	Provider               string `mapstructure:"provider"` // local / http / paypal
	BaseURL                string `mapstructure:"base_url"`
	APIKey                 string `mapstructure:"api_key"`
	ClientID               string `mapstructure:"client_id"`
	ClientSecret           string `mapstructure:"client_secret"`
	Currency               string `mapstructure:"currency"`
	TimeoutMS              int    `mapstructure:"timeout_ms"`
	MaxRetry               int    `mapstructure:"max_retry"`
	ScheduleTimeoutMinutes int    `mapstructure:"schedule_timeout_minutes"`
}

// BootstrapConfig 启动初始化商户（库为空时生效）
type BootstrapConfig struct {
	MerchantDomain string `mapstructure:"merchant_domain"`
	MerchantName   string `mapstructure:"merchant_name"`
	MerchantEmail  string `mapstructure:"merchant_email"`
	MerchantAPIKey string `mapstructure:"merchant_api_key"`
}

// Enabled 是否配置了初始化商户
func (c BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(c.MerchantDomain) != "" &&
		strings.TrimSpace(c.MerchantEmail) != "" &&
		c.MerchantAPIKey != ""
}

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/affiliate.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("merchant_jwt.secret", "merchant-change-me-in-production")
	v.SetDefault("merchant_jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "aff")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.webhook_rate_limit.window_seconds", 60)
	v.SetDefault("security.webhook_rate_limit.max_requests", 600)
	v.SetDefault("security.webhook_rate_limit.block_seconds", 60)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_requests", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("affiliate.default_commission_rate", "0.1")
	v.SetDefault("affiliate.auto_affiliate", true)
	v.SetDefault("affiliate.notify_on_referral", false)
	v.SetDefault("discount.provider", "local")
	v.SetDefault("discount.base_url", "")
	v.SetDefault("discount.api_key", "")
	v.SetDefault("discount.timeout_ms", 3000)
	v.SetDefault("discount.retry_count", 2)
	v.SetDefault("discount.code_length", 8)
	v.SetDefault("payout.provider", "local")
	v.SetDefault("payout.base_url", "")
	v.SetDefault("payout.api_key", "")
	v.SetDefault("payout.client_id", "")
	v.SetDefault("payout.client_secret", "")
	v.SetDefault("payout.currency", "USD")
	v.SetDefault("payout.timeout_ms", 5000)
	v.SetDefault("payout.max_retry", 10)
	v.SetDefault("payout.schedule_timeout_minutes", 60)
	v.SetDefault("bootstrap.merchant_domain", "")
	v.SetDefault("bootstrap.merchant_name", "")
	v.SetDefault("bootstrap.merchant_email", "")
	v.SetDefault("bootstrap.merchant_api_key", "")
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	SetDefaults(v)

	// 环境变量支持（例如 database.dsn -> DATABASE_DSN）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(err)
	}
	return cfg
}

// Decode 将 viper 实例解析为配置结构
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("配置解析失败: %w", err)
	}
	return &cfg, nil
}
