package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevJWTSecret is only suitable for local development
const DevJWTSecret = "dev_jwt_secret"

// Config holds all configuration for the wallet api
type Config struct {
	Port           string        `mapstructure:"PORT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost     int           `mapstructure:"BCRYPT_COST"`
	HashWorkers    int           `mapstructure:"HASH_WORKERS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`

	PGHost     string `mapstructure:"PG_HOST"`
	PGPort     int    `mapstructure:"PG_PORT"`
	PGUser     string `mapstructure:"PG_USER"`
	PGPassword string `mapstructure:"PG_PASSWORD"`
	PGDatabase string `mapstructure:"PG_DATABASE"`
	PGPoolMax  int32  `mapstructure:"PG_POOL_MAX"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	ImageStore  string `mapstructure:"IMAGE_STORE"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3PublicURL string `mapstructure:"S3_PUBLIC_URL"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	DashboardURL    string `mapstructure:"DASHBOARD_URL"`
	GopsAddr        string `mapstructure:"GOPS_ADDR"`
	HealthCheckSpec string `mapstructure:"HEALTH_CHECK_SPEC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]interface{}{
	"PORT":              "8080",
	"JWT_SECRET":        DevJWTSecret,
	"TOKEN_TTL":         "720h",
	"BCRYPT_COST":       10,
	"HASH_WORKERS":      runtime.NumCPU(),
	"REQUEST_TIMEOUT":   "15s",
	"STORE_DRIVER":      "postgres",
	"PG_HOST":           "localhost",
	"PG_PORT":           5432,
	"PG_USER":           "postgres",
	"PG_PASSWORD":       "postgres",
	"PG_DATABASE":       "wallet",
	"PG_POOL_MAX":       10,
	"MONGO_URI":         "mongodb://127.0.0.1:27017",
	"MONGO_DATABASE":    "wallet",
	"REDIS_ADDR":        "127.0.0.1:6379",
	"REDIS_PASSWORD":    "",
	"IMAGE_STORE":       "inline",
	"S3_BUCKET":         "",
	"S3_REGION":         "us-east-1",
	"S3_ENDPOINT":       "",
	"S3_ACCESS_KEY":     "",
	"S3_SECRET_KEY":     "",
	"S3_PUBLIC_URL":     "",
	"RABBITMQ_URL":      "",
	"EVENTS_EXCHANGE":   "accounts",
	"DASHBOARD_URL":     "",
	"GOPS_ADDR":         "",
	"HEALTH_CHECK_SPEC": "@every 1m",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "text",
}

var (
	storeDrivers = []string{"postgres", "mongo", "redis", "memory"}
	imageStores  = []string{"inline", "s3"}
)

// Load reads configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		// SetDefault alone does not make a key visible to Unmarshal's env lookup
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.ImageStore = strings.ToLower(strings.TrimSpace(cfg.ImageStore))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !contains(storeDrivers, c.StoreDriver) {
		return fmt.Errorf("STORE_DRIVER must be one of %s, got %q", strings.Join(storeDrivers, ", "), c.StoreDriver)
	}
	if !contains(imageStores, c.ImageStore) {
		return fmt.Errorf("IMAGE_STORE must be one of %s, got %q", strings.Join(imageStores, ", "), c.ImageStore)
	}
	if c.ImageStore == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when IMAGE_STORE=s3")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// InsecureSecret reports whether the development signing secret is in use
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// PostgresDSN builds a pgx connection string
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?pool_max_conns=%d",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase, c.PGPoolMax)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
