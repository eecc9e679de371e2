// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caredraft/draft-sync-service/internal/dao"
	"github.com/caredraft/draft-sync-service/pkg/netwatch"
	"github.com/caredraft/draft-sync-service/pkg/retryqueue"
	"github.com/caredraft/draft-sync-service/pkg/util"
	"github.com/caredraft/draft-sync-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string             `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig       `yaml:"server"`
	Log      LogConfig          `yaml:"log"`
	Database dao.DatabaseConfig `yaml:"database"`
	App      AppSettings        `yaml:"app"`
	User     UserConfig         `yaml:"user"`
	Security SecurityConfig     `yaml:"security"`
	Upstream UpstreamConfig     `yaml:"upstream"`
	Email    EmailConfig        `yaml:"email"`
	Tracer   TracerConfig       `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"draft-sync-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
}

// UserConfig 用户配置
type UserConfig struct {
	// RegisterIsEnable 注册是否启用
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// IsReturnSuccess 操作成功时是否回发确认消息
	IsReturnSuccess bool `yaml:"is-return-success" default:"false"`
	// SoftDeleteRetentionTime 软删除章节保留时间
	SoftDeleteRetentionTime string `yaml:"soft-delete-retention-time" default:"7d"`
	// CommentMaxLength 批注最大字符数，默认 1000
	CommentMaxLength int `yaml:"comment-max-length" default:"1000"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Retry Queue 配置
	RetryMaxRetries int    `yaml:"retry-max-retries" default:"3"`
	RetryBaseDelay  string `yaml:"retry-base-delay" default:"1s"`
	RetryMaxDelay   string `yaml:"retry-max-delay" default:"30s"`
	RetryMaxPending int    `yaml:"retry-max-pending" default:"1000"`
}

// UpstreamConfig 上游镜像配置
type UpstreamConfig struct {
	// MirrorEnabled 是否把变更事件推送到上游
	MirrorEnabled bool `yaml:"mirror-enabled" default:"false"`
	// Endpoint 上游回调地址
	Endpoint string `yaml:"endpoint"`
	// Token 上游认证令牌
	Token string `yaml:"token"`
	// HealthURL 连通性探测地址，留空表示不探测
	HealthURL string `yaml:"health-url"`
	// ProbeInterval 探测间隔
	ProbeInterval string `yaml:"probe-interval" default:"30s"`
	// ProbeTimeout 单次探测超时
	ProbeTimeout string `yaml:"probe-timeout" default:"5s"`
	// RecoverDebounce 恢复连通后重放队列前的防抖时间
	RecoverDebounce string `yaml:"recover-debounce" default:"1s"`
}

// EmailConfig 邮件通知配置
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled" default:"false"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port" default:"465"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetRetryQueueConfig 获取重试队列配置
func (c *AppConfig) GetRetryQueueConfig() retryqueue.Config {
	cfg := retryqueue.DefaultConfig()

	if c.App.RetryMaxRetries > 0 {
		cfg.MaxRetries = c.App.RetryMaxRetries
	}
	if d, err := util.ParseDuration(c.App.RetryBaseDelay); err == nil && d > 0 {
		cfg.BaseDelay = d
	}
	if d, err := util.ParseDuration(c.App.RetryMaxDelay); err == nil && d > 0 {
		cfg.MaxDelay = d
	}
	if c.App.RetryMaxPending > 0 {
		cfg.MaxPending = c.App.RetryMaxPending
	}

	return cfg
}

// GetNetwatchConfig 获取网络监视器配置
func (c *AppConfig) GetNetwatchConfig() netwatch.Config {
	cfg := netwatch.DefaultConfig()

	cfg.ProbeURL = c.Upstream.HealthURL
	if d, err := util.ParseDuration(c.Upstream.ProbeInterval); err == nil && d > 0 {
		cfg.ProbeInterval = d
	}
	if d, err := util.ParseDuration(c.Upstream.ProbeTimeout); err == nil && d > 0 {
		cfg.ProbeTimeout = d
	}
	if d, err := util.ParseDuration(c.Upstream.RecoverDebounce); err == nil && d > 0 {
		cfg.RecoverDebounce = d
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetSoftDeleteRetention 获取软删除保留时间，0 表示不清理
func (c *AppConfig) GetSoftDeleteRetention() time.Duration {
	if d, err := util.ParseDuration(c.App.SoftDeleteRetentionTime); err == nil {
		return d
	}
	return 0
}
