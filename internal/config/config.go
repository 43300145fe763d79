package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=retail port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	Environment string
	LogLevel    string
	CORSOrigins string

	DatabaseDSN       string
	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	DBLogLevel        string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMSGatewayURL string
	SMSAPIKey     string
	SMSSenderID   string
	SMSTimeout    time.Duration
	SMSQueueSize  int
	AlertPhone    string
	CompanyName   string

	// Seed account created on first login when the user table is empty.
	BootstrapEmail    string
	BootstrapPhone    string
	BootstrapPassword string
}

// Load reads .env (optional) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPPort:    v.GetString("HTTP_PORT"),
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		CORSOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),

		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		DBLogLevel:        v.GetString("DB_LOG_LEVEL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		SMSGatewayURL: v.GetString("SMS_GATEWAY_URL"),
		SMSAPIKey:     v.GetString("SMS_API_KEY"),
		SMSSenderID:   v.GetString("SMS_SENDER_ID"),
		SMSTimeout:    v.GetDuration("SMS_TIMEOUT"),
		SMSQueueSize:  v.GetInt("SMS_QUEUE_SIZE"),
		AlertPhone:    v.GetString("ALERT_PHONE"),
		CompanyName:   v.GetString("COMPANY_NAME"),

		BootstrapEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_EMAIL"))),
		BootstrapPhone:    strings.TrimSpace(v.GetString("BOOTSTRAP_PHONE")),
		BootstrapPassword: v.GetString("BOOTSTRAP_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SMS_TIMEOUT", 10*time.Second)
	v.SetDefault("SMS_QUEUE_SIZE", 256)
	v.SetDefault("COMPANY_NAME", "our store")
	v.SetDefault("BOOTSTRAP_EMAIL", "admin")
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.SMSQueueSize <= 0 {
		return fmt.Errorf("SMS_QUEUE_SIZE must be positive, got %d", c.SMSQueueSize)
	}
	return nil
}

// Warnings lists settings that are still on their development defaults.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.SMSGatewayURL == "" {
		out = append(out, "SMS_GATEWAY_URL is empty, text messages are only logged")
	}
	return out
}
