package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Security     SecurityConfig     `mapstructure:"security"`
	Email        EmailConfig        `mapstructure:"email"`
	Notification NotificationConfig `mapstructure:"notification"`
	Shiprocket   ShiprocketConfig   `mapstructure:"shiprocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
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
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 运营接口 JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
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
	SiteName string `mapstructure:"site_name"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	StatusEmailEnabled bool     `mapstructure:"status_email_enabled"`
	AlertEmails        []string `mapstructure:"alert_emails"`
	DedupeTTLSeconds   int      `mapstructure:"dedupe_ttl_seconds"`
}

// DedupeTTL 告警去重窗口
func (c NotificationConfig) DedupeTTL() time.Duration {
	if c.DedupeTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}

// ShiprocketConfig Shiprocket 对接配置
type ShiprocketConfig struct {
	WebhookSecret               string `mapstructure:"webhook_secret"`
	AllowUnauthenticatedWebhook bool   `mapstructure:"allow_unauthenticated_webhook"`
	APIBaseURL                  string `mapstructure:"api_base_url"`
	APIEmail                    string `mapstructure:"api_email"`
	APIPassword                 string `mapstructure:"api_password"`
	TokenTTLHours               int    `mapstructure:"token_ttl_hours"`
	RequestTimeoutSeconds       int    `mapstructure:"request_timeout_seconds"`
	TrackingURLBase             string `mapstructure:"tracking_url_base"`
	SyncMaxAttempts             int    `mapstructure:"sync_max_attempts"`
	ResyncIntervalMinutes       int    `mapstructure:"resync_interval_minutes"`
	ResyncStaleMinutes          int    `mapstructure:"resync_stale_minutes"`
	ResyncBatchSize             int    `mapstructure:"resync_batch_size"`
}

// WebhookOpen 未配置密钥且显式放开时返回 true
func (c ShiprocketConfig) WebhookOpen() bool {
	return strings.TrimSpace(c.WebhookSecret) == "" && c.AllowUnauthenticatedWebhook
}

// APIEnabled 是否配置了 Shiprocket API 账号
func (c ShiprocketConfig) APIEnabled() bool {
	return strings.TrimSpace(c.APIEmail) != "" && strings.TrimSpace(c.APIPassword) != ""
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
	SyncRateLimit RateLimitConfig `mapstructure:"sync_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // shiprocket.webhook_secret -> SHIPROCKET_WEBHOOK_SECRET

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	cfg.Shiprocket.normalize()

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "storefront.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/storefront.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "storefront-ops")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "sf")
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
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Authorization",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.sync_rate_limit.window_seconds", 60)
	v.SetDefault("security.sync_rate_limit.max_requests", 10)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.site_name", "Storefront")
	v.SetDefault("notification.status_email_enabled", true)
	v.SetDefault("notification.alert_emails", []string{})
	v.SetDefault("notification.dedupe_ttl_seconds", 300)
	v.SetDefault("shiprocket.webhook_secret", "")
	v.SetDefault("shiprocket.allow_unauthenticated_webhook", false)
	v.SetDefault("shiprocket.api_base_url", "https://apiv2.shiprocket.in")
	v.SetDefault("shiprocket.api_email", "")
	v.SetDefault("shiprocket.api_password", "")
	v.SetDefault("shiprocket.token_ttl_hours", 216)
	v.SetDefault("shiprocket.request_timeout_seconds", 12)
	v.SetDefault("shiprocket.tracking_url_base", "https://shiprocket.co/tracking/")
	v.SetDefault("shiprocket.sync_max_attempts", 3)
	v.SetDefault("shiprocket.resync_interval_minutes", 0)
	v.SetDefault("shiprocket.resync_stale_minutes", 360)
	v.SetDefault("shiprocket.resync_batch_size", 50)
}

func (c *ShiprocketConfig) normalize() {
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 216
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 12
	}
	if c.SyncMaxAttempts <= 0 {
		c.SyncMaxAttempts = 3
	}
	if c.ResyncBatchSize <= 0 {
		c.ResyncBatchSize = 50
	}
}
