package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	Printer   PrinterConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

// IsProduction reports whether APP_ENV is production
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// LedgerConfig bounds voucher transactions and fixes the time zone used for
// voucher month prefixes and daily reports
type LedgerConfig struct {
	TxTimeout  time.Duration
	MaxRetries int
	Timezone   string
}

// Location resolves Timezone, falling back to UTC when it is unknown
func (l LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		log.Printf("Warning: unknown LEDGER_TIMEZONE %q, using UTC: %v", l.Timezone, err)
		return time.UTC
	}
	return loc
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	Timeout   time.Duration
	CharWidth int
}

// SeedConfig holds the optional bootstrap admin and demo data switch
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	DemoData      bool
}

// Load reads .env (if present) and the environment
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	return FromViper(v)
}

// FromViper builds a Config from v after applying defaults
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:             v.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(v.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: listValue(v, "CORS_ALLOWED_ORIGINS"),
			AllowedMethods: listValue(v, "CORS_ALLOWED_METHODS"),
			AllowedHeaders: listValue(v, "CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Ledger: LedgerConfig{
			TxTimeout:  time.Duration(v.GetInt("LEDGER_TX_TIMEOUT_SECONDS")) * time.Second,
			MaxRetries: v.GetInt("LEDGER_MAX_RETRIES"),
			Timezone:   v.GetString("LEDGER_TIMEZONE"),
		},
		Printer: PrinterConfig{
			Type:      v.GetString("PRINTER_TYPE"),
			USBPath:   v.GetString("PRINTER_USB_PATH"),
			Address:   v.GetString("PRINTER_ADDRESS"),
			Timeout:   time.Duration(v.GetInt("PRINTER_TIMEOUT_SECONDS")) * time.Second,
			CharWidth: v.GetInt("PRINTER_CHAR_WIDTH"),
		},
		Seed: SeedConfig{
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminName:     v.GetString("ADMIN_NAME"),
			DemoData:      v.GetBool("SEED_DEMO_DATA"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "clinic-ledger-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "clinic_ledger")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 12)
	v.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,Idempotency-Key,X-Request-ID")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("LEDGER_TX_TIMEOUT_SECONDS", 10)
	v.SetDefault("LEDGER_MAX_RETRIES", 3)
	v.SetDefault("LEDGER_TIMEZONE", "Asia/Ho_Chi_Minh")
	v.SetDefault("PRINTER_TYPE", "none")
	v.SetDefault("PRINTER_TIMEOUT_SECONDS", 5)
	v.SetDefault("PRINTER_CHAR_WIDTH", 32)
	v.SetDefault("SEED_DEMO_DATA", false)
}

// listValue accepts either a real list or a comma separated string
func listValue(v *viper.Viper, key string) []string {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice(key)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
