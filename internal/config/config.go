package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Keystone KeystoneConfig
	CacheDB  CacheDBConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"partshub-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKey      string `envconfig:"API_KEY" default:""` // Staff dashboard API key
}

// KeystoneConfig holds settings for the Keystone distributor proxy.
type KeystoneConfig struct {
	ProxyURL        string        `envconfig:"KEYSTONE_PROXY_URL" default:""`
	DevToken        string        `envconfig:"KEYSTONE_DEV_TOKEN" default:""`
	ProdToken       string        `envconfig:"KEYSTONE_PROD_TOKEN" default:""`
	RequestTimeout  time.Duration `envconfig:"KEYSTONE_REQUEST_TIMEOUT" default:"30s"`
	MaxBulkItems    int           `envconfig:"KEYSTONE_MAX_BULK_ITEMS" default:"5000"`
}

// Token returns the bearer token for the given environment.
func (k *KeystoneConfig) Token(production bool) string {
	if production {
		return k.ProdToken
	}
	return k.DevToken
}

// CacheDBConfig holds inventory cache database settings.
type CacheDBConfig struct {
	Type string `envconfig:"CACHE_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"CACHE_DB_PATH" default:"./data/inventory.db"`
	// PostgreSQL settings
	Host     string `envconfig:"CACHE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"CACHE_DB_PORT" default:"5432"`
	Name     string `envconfig:"CACHE_DB_NAME" default:"partshub"`
	User     string `envconfig:"CACHE_DB_USER" default:"postgres"`
	Password string `envconfig:"CACHE_DB_PASS" default:""`
	SSLMode  string `envconfig:"CACHE_DB_SSLMODE" default:"disable"`
	// MySQL settings (reuses host/port/name/user/password above)
	MySQLPort int `envconfig:"CACHE_DB_MYSQL_PORT" default:"3306"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *CacheDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (c *CacheDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.MySQLPort, c.Name)
}

// RedisConfig holds settings for the durable key-value store used by the
// rate limiters and check/order history.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SyncConfig holds inventory synchronization settings.
type SyncConfig struct {
	BatchSize           int           `envconfig:"SYNC_BATCH_SIZE" default:"100"`
	BatchDelay          time.Duration `envconfig:"SYNC_BATCH_DELAY" default:"100ms"`
	MaxRetries          int           `envconfig:"SYNC_MAX_RETRIES" default:"3"`
	IncrementalInterval time.Duration `envconfig:"SYNC_INCREMENTAL_INTERVAL" default:"1h"`
	FullInterval        time.Duration `envconfig:"SYNC_FULL_INTERVAL" default:"24h"`
	IncrementalLimit    int           `envconfig:"SYNC_INCREMENTAL_LIMIT" default:"500"`
	SchedulerTick       time.Duration `envconfig:"SYNC_SCHEDULER_TICK" default:"5m"`
}

// ImportConfig holds CSV bulk import settings.
type ImportConfig struct {
	ChunkSize  int           `envconfig:"IMPORT_CHUNK_SIZE" default:"1000"`
	ChunkDelay time.Duration `envconfig:"IMPORT_CHUNK_DELAY" default:"50ms"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
