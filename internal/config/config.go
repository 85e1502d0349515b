package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported values of DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DevSecret is the default HASH_SECRET_KEY. It is public, so it is only
// accepted with the memory driver.
const DevSecret = "dev-secret-change-in-production"

// Config holds the settings read once at startup.
type Config struct {
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	HashAlgorithm     string
	HashSecretKey     string
	AccessTokenExpiry time.Duration
	BcryptCost        int
	MediaPath         string
	RabbitMQURL       string
	CORSAllowOrigins  string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_CONNECTION_URL", "market_app.db")
	v.SetDefault("HASH_ALGORITHM", "HS256")
	v.SetDefault("HASH_SECRET_KEY", DevSecret)
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 15)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("MEDIA_PATH", "media")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
}

// Load reads an optional .env file, then the environment, into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:           v.GetString("APP_PORT"),
		DatabaseDriver:    v.GetString("DATABASE_DRIVER"),
		DatabaseURL:       v.GetString("DATABASE_CONNECTION_URL"),
		HashAlgorithm:     v.GetString("HASH_ALGORITHM"),
		HashSecretKey:     v.GetString("HASH_SECRET_KEY"),
		AccessTokenExpiry: time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		BcryptCost:        v.GetInt("BCRYPT_COST"),
		MediaPath:         v.GetString("MEDIA_PATH"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		CORSAllowOrigins:  v.GetString("CORS_ALLOW_ORIGINS"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.HashSecretKey == DevSecret {
		log.Println("Warning: HASH_SECRET_KEY is not set, using the development secret")
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.HashAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported HASH_ALGORITHM %q", c.HashAlgorithm)
	}
	if c.HashSecretKey == "" {
		return errors.New("HASH_SECRET_KEY must not be empty")
	}
	if c.HashSecretKey == DevSecret && c.DatabaseDriver != DriverMemory {
		return fmt.Errorf("HASH_SECRET_KEY must be set when DATABASE_DRIVER is %q", c.DatabaseDriver)
	}
	if c.AccessTokenExpiry <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.DatabaseDriver != DriverMemory && c.DatabaseURL == "" {
		return errors.New("DATABASE_CONNECTION_URL must not be empty")
	}
	return nil
}
