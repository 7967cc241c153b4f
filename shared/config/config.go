package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppURL      string
	AppSecret   string
	FrontendURL string
	Port        string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret         string
	JWTExpireMinutes  string
	RefreshExpireDays string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Email Configuration
	EmailFrom     string
	EmailFromName string
	AdminEmail    string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPUseTLS    bool

	// Rate Limiting (public endpoint fixed window)
	RateLimitMaxRequests  string
	RateLimitWindowSecond string

	// reCAPTCHA
	RecaptchaSecretKey     string
	RecaptchaScoreMinimum  string
	RecaptchaVerifyTimeout string

	// CSRF
	CSRFTokenTTLSeconds string
}

// LoadConfig loads configuration from environment variables. A .env file is
// honored when present so local development matches deployed environments.
func LoadConfig() *Config {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	return &Config{
		// Application
		AppURL:      getEnv("APP_URL", "http://localhost:8080"),
		AppSecret:   getEnv("APP_SECRET", "change-this-application-secret"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Port:        getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "jrgbackend"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireMinutes:  getEnv("JWT_EXPIRE_MINUTES", "30"),
		RefreshExpireDays: getEnv("REFRESH_EXPIRE_DAYS", "7"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Email Configuration
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@jrgweb.com"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "JRG Web"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@jrgweb.com"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:    getEnvAsBool("SMTP_USE_TLS", false),

		// Rate Limiting
		RateLimitMaxRequests:  getEnv("RATE_LIMIT_MAX_REQUESTS", "30"),
		RateLimitWindowSecond: getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"),

		// reCAPTCHA
		RecaptchaSecretKey:     getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaScoreMinimum:  getEnv("RECAPTCHA_SCORE_MINIMUM", "0.5"),
		RecaptchaVerifyTimeout: getEnv("RECAPTCHA_VERIFY_TIMEOUT_SECONDS", "10"),

		// CSRF
		CSRFTokenTTLSeconds: getEnv("CSRF_TOKEN_TTL_SECONDS", "3600"),
	}
}

// GetJWTExpireDuration returns the access token lifetime.
func (c *Config) GetJWTExpireDuration() time.Duration {
	minutes, err := strconv.Atoi(c.JWTExpireMinutes)
	if err != nil || minutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// GetRefreshExpireDuration returns the refresh token lifetime.
func (c *Config) GetRefreshExpireDuration() time.Duration {
	days, err := strconv.Atoi(c.RefreshExpireDays)
	if err != nil || days <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetRateLimitMaxRequests returns the public endpoint request budget per window.
func (c *Config) GetRateLimitMaxRequests() int {
	if value, err := strconv.Atoi(c.RateLimitMaxRequests); err == nil && value > 0 {
		return value
	}
	return 30
}

// GetRateLimitWindow returns the fixed window length.
func (c *Config) GetRateLimitWindow() time.Duration {
	if value, err := strconv.Atoi(c.RateLimitWindowSecond); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return 60 * time.Second
}

// GetRecaptchaScoreMinimum returns the minimum acceptable reCAPTCHA score.
func (c *Config) GetRecaptchaScoreMinimum() float64 {
	if value, err := strconv.ParseFloat(c.RecaptchaScoreMinimum, 64); err == nil && value > 0 {
		return value
	}
	return 0.5
}

// GetRecaptchaVerifyTimeout bounds the outbound siteverify call.
func (c *Config) GetRecaptchaVerifyTimeout() time.Duration {
	if value, err := strconv.Atoi(c.RecaptchaVerifyTimeout); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return 10 * time.Second
}

// GetCSRFTokenTTL returns the CSRF token cache lifetime.
func (c *Config) GetCSRFTokenTTL() time.Duration {
	if value, err := strconv.Atoi(c.CSRFTokenTTLSeconds); err == nil && value > 0 {
		return time.Duration(value) * time.Second
	}
	return time.Hour
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
