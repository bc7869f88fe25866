package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Notify    NotifyConfig    `mapstructure:"notify"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`

	// Dir is the directory config.yaml was loaded from.
	Dir string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	// Driver is "mysql" or "memory".
	Driver    string `mapstructure:"driver"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
	// LeaderboardTTL bounds how long a rendered leaderboard stays cached.
	LeaderboardTTL time.Duration `mapstructure:"leaderboard_ttl"`
}

// SchedulerConfig drives the expiry sweep.
type SchedulerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"`
	// LateTolerance is how long after end_at a submission is still admitted.
	// Zero means strict wall-clock rejection.
	LateTolerance time.Duration `mapstructure:"late_tolerance"`
}

type Operator struct {
	ID    int64  `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

type AdminConfig struct {
	Operators []Operator `mapstructure:"operators"`
	// UserIDs is the comma separated ADMIN_USER_IDS list, merged into Operators.
	UserIDs string `mapstructure:"user_ids"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type NotifyConfig struct {
	// Driver is "email" or "log".
	Driver      string     `mapstructure:"driver"`
	Concurrency int        `mapstructure:"concurrency"`
	SMTP        SMTPConfig `mapstructure:"smtp"`
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.parsetime", true)
	viper.SetDefault("jwt.expire_hours", 24)
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_path", "./uploads")
	viper.SetDefault("redis.leaderboard_ttl", 5*time.Minute)
	viper.SetDefault("rate_limit.max_requests", 600)
	viper.SetDefault("rate_limit.window_minutes", 1)
	viper.SetDefault("scheduler.sweep_interval", 60*time.Second)
	viper.SetDefault("scheduler.initial_delay", 10*time.Second)
	viper.SetDefault("scheduler.late_tolerance", 0)
	viper.SetDefault("notify.driver", "log")
	viper.SetDefault("notify.concurrency", 4)
	viper.SetDefault("notify.smtp.port", 587)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("BLUEPREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	// Database
	viper.BindEnv("database.driver", "DATABASE_DRIVER")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Admin / notify
	viper.BindEnv("admin.user_ids", "ADMIN_USER_IDS")
	viper.BindEnv("notify.driver", "NOTIFY_DRIVER")
	viper.BindEnv("notify.smtp.host", "SMTP_HOST")
	viper.BindEnv("notify.smtp.port", "SMTP_PORT")
	viper.BindEnv("notify.smtp.username", "SMTP_USERNAME")
	viper.BindEnv("notify.smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("notify.smtp.from", "SMTP_FROM")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Dir = path
	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Admin.Operators = MergeOperatorIDs(cfg.Admin.Operators, cfg.Admin.UserIDs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("scheduler.sweep_interval must be positive, got %s", c.Scheduler.SweepInterval)
	}
	if c.Scheduler.LateTolerance < 0 {
		return fmt.Errorf("scheduler.late_tolerance must not be negative, got %s", c.Scheduler.LateTolerance)
	}
	switch c.Database.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// File returns the path of the loaded config.yaml, defaulting to ./configs.
func (c *Config) File() string {
	dir := c.Dir
	if dir == "" {
		dir = "configs"
	}
	return filepath.Join(dir, "config.yaml")
}

// MergeOperatorIDs parses a comma separated id list and appends the ids not
// already present in ops. Non numeric entries are ignored.
func MergeOperatorIDs(ops []Operator, list string) []Operator {
	seen := make(map[int64]bool, len(ops))
	for _, op := range ops {
		seen[op.ID] = true
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ops = append(ops, Operator{ID: id})
	}
	return ops
}
