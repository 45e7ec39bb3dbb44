package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Log      LogConfig
}

type AppConfig struct {
	Port           string
	GinMode        string
	CORSOrigins    []string
	MetricsEnabled bool
	// requests per second per client IP, 0 disables the limiter
	RateLimitRPS   float64
	RateLimitBurst int
	AdminEmail     string
	AdminPassword  string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SQLitePath   string
	LogQueries   bool
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RedisConfig with an empty Addr disables the projection cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]interface{}{
	"PORT":                 "8080",
	"GIN_MODE":             "debug",
	"CORS_ORIGINS":         "http://127.0.0.1:5500",
	"METRICS_ENABLED":      true,
	"RATE_LIMIT_RPS":       50.0,
	"RATE_LIMIT_BURST":     100,
	"ADMIN_EMAIL":          "",
	"ADMIN_PASSWORD":       "",
	"DB_DRIVER":            "mysql",
	"DB_HOST":              "127.0.0.1",
	"DB_PORT":              "3306",
	"DB_USER":              "root",
	"DB_PASSWORD":          "",
	"DB_NAME":              "restaurant",
	"DB_SQLITE_PATH":       "restaurant.db",
	"DB_LOG_QUERIES":       false,
	"DB_MAX_OPEN_CONNS":    20,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_MAX_LIFETIME":      "5m",
	"DB_MAX_IDLE_TIME":     "1m",
	"JWT_SECRET":           "",
	"JWT_TTL":              "24h",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"REDIS_TTL":            "10m",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "text",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
			AdminEmail:     v.GetString("ADMIN_EMAIL"),
			AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SQLitePath:   v.GetString("DB_SQLITE_PATH"),
			LogQueries:   v.GetBool("DB_LOG_QUERIES"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:  v.GetDuration("DB_MAX_LIFETIME"),
			MaxIdleTime:  v.GetDuration("DB_MAX_IDLE_TIME"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
