package config

import (
	"strings"
	"time"

	"github.com/sewakita/service-rental/internal/platform/database"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	Database database.PostgresConfig

	JWTSecret      string
	AccessTokenTTL time.Duration

	KafkaBrokers []string
	KafkaGroupID string

	MarketplaceTTL   time.Duration
	MarketplaceSweep time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "service_rental")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 60)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-rental")

	v.SetDefault("MARKETPLACE_TTL_MINUTES", 60)
	v.SetDefault("MARKETPLACE_SWEEP_MINUTES", 5)

	cfg := &Config{
		AppEnv: v.GetString("APP_ENV"),
		Port:   v.GetString("PORT"),
		Database: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   time.Duration(v.GetInt("ACCESS_TOKEN_TTL_MINUTES")) * time.Minute,
		KafkaBrokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		KafkaGroupID:     v.GetString("KAFKA_GROUP_ID"),
		MarketplaceTTL:   time.Duration(v.GetInt("MARKETPLACE_TTL_MINUTES")) * time.Minute,
		MarketplaceSweep: time.Duration(v.GetInt("MARKETPLACE_SWEEP_MINUTES")) * time.Minute,
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
