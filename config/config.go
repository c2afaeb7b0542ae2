package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads .env when GO_ENV is unset or development. A missing file is
// not an error: the process environment is used as-is.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV  string
	PORT    int
	APP_URL string
	// Database
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	// JWT
	JWT_SECRET string
	JWT_ISSUER string
	// Redis
	REDIS_URL string
	// HTTP
	ALLOWED_ORIGINS string
	// Razorpay
	RAZORPAY_KEY_ID     string
	RAZORPAY_KEY_SECRET string
	RAZORPAY_BASE_URL   string
	PAYMENT_CURRENCY    string
	RECEIPT_PREFIX      string
	// Background jobs
	CRON_ENABLED                    bool
	PENDING_PAYMENT_RETENTION_HOURS int
	// Metrics
	METRICS_ENABLED bool
	// DigitalOcean Spaces
	DO_SPACES_ACCESS_KEY   string
	DO_SPACES_SECRET_KEY   string
	DO_SPACES_BUCKET       string
	DO_SPACES_REGION       string
	DO_SPACES_ENDPOINT     string
	DO_SPACES_CDN_ENDPOINT string
	// SMTP
	SMTP_HOST     string
	SMTP_PORT     int
	SMTP_USERNAME string
	SMTP_PASSWORD string
	SMTP_FROM     string
}

var (
	ErrMissingJWTSecret       = errors.New("JWT_SECRET environment variable is not set")
	ErrMissingRazorpayKeys    = errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set in production")
	ErrInvalidRetentionWindow = errors.New("PENDING_PAYMENT_RETENTION_HOURS must be positive")
)

func Get() (*EnviornmentVariable, error) {
	envVariables := &EnviornmentVariable{
		GO_ENV:  os.Getenv("GO_ENV"),
		PORT:    getEnvInt("PORT", 8080),
		APP_URL: getEnvOrDefault("APP_URL", "http://localhost:3000"),
		// Database
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "skill-academy-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// HTTP
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		// Razorpay
		RAZORPAY_KEY_ID:     os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET: os.Getenv("RAZORPAY_KEY_SECRET"),
		RAZORPAY_BASE_URL:   getEnvOrDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		PAYMENT_CURRENCY:    getEnvOrDefault("PAYMENT_CURRENCY", "INR"),
		RECEIPT_PREFIX:      getEnvOrDefault("RECEIPT_PREFIX", "SKILLACADEMY"),
		// Background jobs
		CRON_ENABLED:                    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		PENDING_PAYMENT_RETENTION_HOURS: getEnvInt("PENDING_PAYMENT_RETENTION_HOURS", 168),
		// Metrics
		METRICS_ENABLED: os.Getenv("METRICS_ENABLED") != "false",
		// DigitalOcean Spaces
		DO_SPACES_ACCESS_KEY:   os.Getenv("DO_SPACES_ACCESS_KEY"),
		DO_SPACES_SECRET_KEY:   os.Getenv("DO_SPACES_SECRET_KEY"),
		DO_SPACES_BUCKET:       os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:       os.Getenv("DO_SPACES_REGION"),
		DO_SPACES_ENDPOINT:     os.Getenv("DO_SPACES_ENDPOINT"),
		DO_SPACES_CDN_ENDPOINT: os.Getenv("DO_SPACES_CDN_ENDPOINT"),
		// SMTP
		SMTP_HOST:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTP_PORT:     getEnvInt("SMTP_PORT", 587),
		SMTP_USERNAME: os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		SMTP_FROM:     getEnvOrDefault("SMTP_FROM", "noreply@skillacademy.app"),
	}

	if envVariables.JWT_SECRET == "" {
		return nil, ErrMissingJWTSecret
	}

	if envVariables.IsProduction() && (envVariables.RAZORPAY_KEY_ID == "" || envVariables.RAZORPAY_KEY_SECRET == "") {
		return nil, ErrMissingRazorpayKeys
	}

	if envVariables.PENDING_PAYMENT_RETENTION_HOURS <= 0 {
		return nil, ErrInvalidRetentionWindow
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}
