package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Fee schedule
	PlatformFeePercent float64

	// Scheduled payout batch
	PayoutGracePeriodDays int
	SchedulerEnabled      bool
	SchedulerCronSpec     string
	CronSharedSecret      string

	// Payment gateway
	PaymentGatewayURL    string
	PaymentGatewayAPIKey string

	// Analytics
	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "escrow-backend")
	viper.SetDefault("PLATFORM_FEE_PERCENT", 5.0)
	viper.SetDefault("PAYOUT_GRACE_PERIOD_DAYS", 7)
	viper.SetDefault("SCHEDULER_ENABLED", false)
	viper.SetDefault("SCHEDULER_CRON_SPEC", "0 3 * * *")
	viper.SetDefault("CRON_SHARED_SECRET", "")
	viper.SetDefault("PAYMENT_GATEWAY_URL", "")
	viper.SetDefault("PAYMENT_GATEWAY_API_KEY", "")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.PlatformFeePercent = viper.GetFloat64("PLATFORM_FEE_PERCENT")
	if cfg.PlatformFeePercent < 0 || cfg.PlatformFeePercent >= 100 {
		log.Printf("Warning: PLATFORM_FEE_PERCENT %v out of range. Defaulting to 5.\n", cfg.PlatformFeePercent)
		cfg.PlatformFeePercent = 5.0
	}

	cfg.PayoutGracePeriodDays = viper.GetInt("PAYOUT_GRACE_PERIOD_DAYS")
	if cfg.PayoutGracePeriodDays < 0 {
		log.Printf("Warning: PAYOUT_GRACE_PERIOD_DAYS %d is negative. Defaulting to 7.\n", cfg.PayoutGracePeriodDays)
		cfg.PayoutGracePeriodDays = 7
	}
	cfg.SchedulerEnabled = viper.GetBool("SCHEDULER_ENABLED")
	cfg.SchedulerCronSpec = viper.GetString("SCHEDULER_CRON_SPEC")
	cfg.CronSharedSecret = viper.GetString("CRON_SHARED_SECRET")

	cfg.PaymentGatewayURL = viper.GetString("PAYMENT_GATEWAY_URL")
	cfg.PaymentGatewayAPIKey = viper.GetString("PAYMENT_GATEWAY_API_KEY")
	if cfg.PaymentGatewayURL == "" {
		log.Println("Warning: PAYMENT_GATEWAY_URL not set. Using the in-process stub gateway.")
	}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}
