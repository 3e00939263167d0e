package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values of STORE_DRIVER.
const (
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	SQLiteDSN     string `mapstructure:"SQLITE_DSN"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseSignInRequired           bool   `mapstructure:"FIREBASE_SIGNIN_REQUIRED"`

	AccessTokenSecret string        `mapstructure:"ACCESS_TOKEN_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `mapstructure:"PAYMENT_CURRENCY"`

	ClientURL string `mapstructure:"CLIENT_URL"` // empty allows every origin

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RoleCacheTTL  time.Duration `mapstructure:"ROLE_CACHE_TTL"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	PolicyRules string `mapstructure:"POLICY_RULES"`
	StaticDir   string `mapstructure:"STATIC_DIR"`
}

var keys = []string{
	"PORT", "GIN_MODE",
	"STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "SQLITE_DSN",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "FIREBASE_SIGNIN_REQUIRED",
	"ACCESS_TOKEN_SECRET", "TOKEN_TTL",
	"STRIPE_SECRET_KEY", "PAYMENT_CURRENCY",
	"CLIENT_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "ROLE_CACHE_TTL",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"POLICY_RULES", "STATIC_DIR",
}

// LoadConfig reads an optional .env file (ENV_FILE, default ".env"), then
// loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "5000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_DATABASE", "gadgetsDestination")
	v.SetDefault("SQLITE_DSN", "file:gadgets.db")
	v.SetDefault("FIREBASE_SIGNIN_REQUIRED", false)
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ROLE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("EVENTS_QUEUE", "gadgets.events")
	v.SetDefault("STATIC_DIR", "web")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting the selected components need is present.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER is mongo")
		}
		if c.MongoDatabase == "" {
			return errors.New("MONGO_DATABASE cannot be empty")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when STORE_DRIVER is firestore")
		}
	case StoreSQLite:
		if c.SQLiteDSN == "" {
			return errors.New("SQLITE_DSN is required when STORE_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want mongo, firestore or sqlite)", c.StoreDriver)
	}

	if c.FirebaseSignInRequired && c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required when FIREBASE_SIGNIN_REQUIRED is set")
	}
	return nil
}

// UsesFirebase reports whether any component needs the Firebase Admin SDK.
func (c *Config) UsesFirebase() bool {
	return c.StoreDriver == StoreFirestore || c.FirebaseSignInRequired
}
