package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	pkglogger "github.com/damoang/angple-chat/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	WS        WSConfig        `yaml:"ws"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN returns the MySQL DSN
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // minutes
	RefreshIn int    `yaml:"refresh_in"` // minutes
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"` // comma separated
}

type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type WSConfig struct {
	SendBuffer     int   `yaml:"send_buffer"`
	MaxMessageSize int64 `yaml:"max_message_size"`
}

type RateLimitConfig struct {
	MessagesPerMinute int `yaml:"messages_per_minute"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// IsDevelopment reports whether the server runs in a local/dev environment
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// Load reads the YAML file at path (optional), then applies env overrides and defaults
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only 설정 허용 (컨테이너 배포)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret (JWT_SECRET) is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.ExpiresIn, "JWT_EXPIRES_IN")
	setInt(&cfg.JWT.RefreshIn, "JWT_REFRESH_IN")

	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	setBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	setString(&cfg.Storage.AccessKeyID, "STORAGE_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "STORAGE_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.CDNURL, "STORAGE_CDN_URL")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 50
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.JWT.ExpiresIn == 0 {
		cfg.JWT.ExpiresIn = 15
	}
	if cfg.JWT.RefreshIn == 0 {
		cfg.JWT.RefreshIn = 7 * 24 * 60
	}
	if cfg.CORS.AllowOrigins == "" {
		cfg.CORS.AllowOrigins = "http://localhost:5173"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "avatars/"
	}
	if cfg.WS.SendBuffer == 0 {
		cfg.WS.SendBuffer = 256
	}
	if cfg.WS.MaxMessageSize == 0 {
		cfg.WS.MaxMessageSize = 4096
	}
	if cfg.RateLimit.MessagesPerMinute == 0 {
		cfg.RateLimit.MessagesPerMinute = 60
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 120
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// LogResolved prints the effective configuration with secrets masked
func LogResolved(cfg *Config) {
	pkglogger.GetLogger().Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("db", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)).
		Bool("redis", cfg.Redis.Enabled).
		Str("redis_addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)).
		Str("jwt_secret", mask(cfg.JWT.Secret)).
		Int("jwt_expires_min", cfg.JWT.ExpiresIn).
		Str("cors", cfg.CORS.AllowOrigins).
		Bool("storage", cfg.Storage.Enabled).
		Msg("config resolved")
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
