package config

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Financial FinancialConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
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

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
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

// FinancialConfig seeds the company settings row on first start and sizes the
// settings cache.
type FinancialConfig struct {
	SellerName            string
	VATNumber             string
	VATEnabled            bool
	VATRatePercent        float64
	TaxInclusive          bool
	CreditRequireApproval bool
	AllowNegativeStock    bool
	AllowSellingBelowCost bool
	CashSafeID            *uuid.UUID
	BankAccountID         *uuid.UUID
	SettingsCacheTTL      time.Duration
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "registerd")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "registerd")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Riyadh")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("SELLER_NAME", "My Store")
	viper.SetDefault("SELLER_VAT_NUMBER", "")
	viper.SetDefault("VAT_ENABLED", true)
	viper.SetDefault("VAT_RATE_PERCENT", 15.0)
	viper.SetDefault("TAX_INCLUSIVE", false)
	viper.SetDefault("CREDIT_REQUIRE_APPROVAL", false)
	viper.SetDefault("ALLOW_NEGATIVE_STOCK", false)
	viper.SetDefault("ALLOW_SELLING_BELOW_COST", false)
	viper.SetDefault("SETTINGS_CACHE_TTL_SECONDS", 60)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Enabled:  viper.GetBool("REDIS_ENABLED"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Financial: FinancialConfig{
			SellerName:            viper.GetString("SELLER_NAME"),
			VATNumber:             viper.GetString("SELLER_VAT_NUMBER"),
			VATEnabled:            viper.GetBool("VAT_ENABLED"),
			VATRatePercent:        viper.GetFloat64("VAT_RATE_PERCENT"),
			TaxInclusive:          viper.GetBool("TAX_INCLUSIVE"),
			CreditRequireApproval: viper.GetBool("CREDIT_REQUIRE_APPROVAL"),
			AllowNegativeStock:    viper.GetBool("ALLOW_NEGATIVE_STOCK"),
			AllowSellingBelowCost: viper.GetBool("ALLOW_SELLING_BELOW_COST"),
			CashSafeID:            parseOptionalUUID("CASH_SAFE_ID"),
			BankAccountID:         parseOptionalUUID("BANK_ACCOUNT_ID"),
			SettingsCacheTTL:      time.Duration(viper.GetInt("SETTINGS_CACHE_TTL_SECONDS")) * time.Second,
		},
	}
}

func parseOptionalUUID(key string) *uuid.UUID {
	raw := viper.GetString(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("Warning: %s is not a valid UUID, ignoring: %v", key, err)
		return nil
	}
	return &id
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
