package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envPrefix = "STOREFRONT"

// Storage backends accepted in STOREFRONT_STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPPort   string `envconfig:"HTTP_PORT" default:"8080"`
	DataDir    string `envconfig:"DATA_DIR" default:"data"`
	CatalogURL string `envconfig:"CATALOG_URL"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	// StoragePath is the cart directory for the file backend and the
	// database file for sqlite.
	StoragePath   string `envconfig:"STORAGE_PATH" default:".storefront"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB       string `envconfig:"MONGO_DB" default:"storefront"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"checkout-outbox"`

	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// SessionIdleTimeout is how long an unused cart session stays in memory.
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
}

// Load reads an optional .env file from envFile (skipped when empty or
// missing) and then the STOREFRONT_* environment. Variables already set in
// the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %s", envFile)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendMemory, BackendFile, BackendRedis, BackendMongo, BackendSQLite:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("STOREFRONT_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.SessionIdleTimeout <= 0 {
		return errors.New("STOREFRONT_SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.HTTPPort == "" {
		return errors.New("STOREFRONT_HTTP_PORT must not be empty")
	}
	return nil
}

// CatalogBaseURL is CatalogURL, or the server's own /data route when unset.
func (c *Config) CatalogBaseURL() string {
	if c.CatalogURL != "" {
		return c.CatalogURL
	}
	return "http://localhost:" + c.HTTPPort + "/data"
}
