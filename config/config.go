package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	S3        S3Config
	Analytics AnalyticsConfig
	Report    ReportConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string
	LogFormat   string
}

type DatabaseConfig struct {
	Driver   string // postgres or mysql
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig is optional. An empty Host disables the analytics cache and
// the token blacklist.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration
}

func (c *S3Config) Enabled() bool {
	return c.Bucket != ""
}

type AnalyticsConfig struct {
	CacheTTL   time.Duration
	Projection ProjectionConfig
}

// ProjectionConfig holds the growth projection parameters.
type ProjectionConfig struct {
	GrowthRate    decimal.Decimal // monthly multiplier, e.g. 1.05
	FallbackPrice decimal.Decimal // average sale price used when there is no completed sale
	Confidence    int
	Basis         string
}

type ReportConfig struct {
	ExportCron string // empty disables the scheduled export
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	growth, err := decimal.NewFromString(getEnv("PROJECTION_GROWTH_RATE", "1.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROJECTION_GROWTH_RATE: %w", err)
	}
	fallback, err := decimal.NewFromString(getEnv("PROJECTION_FALLBACK_PRICE", "25000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROJECTION_FALLBACK_PRICE: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "dealer"),
			Password: getEnv("DB_PASSWORD", "dealer"),
			DBName:   getEnv("DB_NAME", "dealership"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpiry:   parseDuration(getEnv("AWS_S3_PRESIGN_EXPIRY", "24h"), 24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			CacheTTL: parseDuration(getEnv("ANALYTICS_CACHE_TTL", "60s"), time.Minute),
			Projection: ProjectionConfig{
				GrowthRate:    growth,
				FallbackPrice: fallback,
				Confidence:    parseInt(getEnv("PROJECTION_CONFIDENCE", "75"), 75),
				Basis: getEnv("PROJECTION_BASIS",
					"Linear growth based on historical monthly average with 5% monthly growth"),
			},
		},
		Report: ReportConfig{
			ExportCron: getEnv("REPORT_EXPORT_CRON", ""),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: parseInt(getEnv("LOGIN_RATE_PER_MINUTE", "10"), 10),
			LoginBurst:     parseInt(getEnv("LOGIN_RATE_BURST", "5"), 5),
		},
	}

	return config, nil
}

// DefaultProjection returns the projection parameters used when no
// environment overrides are present.
func DefaultProjection() ProjectionConfig {
	return ProjectionConfig{
		GrowthRate:    decimal.RequireFromString("1.05"),
		FallbackPrice: decimal.RequireFromString("25000.00"),
		Confidence:    75,
		Basis:         "Linear growth based on historical monthly average with 5% monthly growth",
	}
}

func (c *DatabaseConfig) DSN() string {
	if c.Driver == "mysql" {
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DBName,
		)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
