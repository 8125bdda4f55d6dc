package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/database"
)

const (
	RegistryBackendDynamoDB = "dynamodb"
	RegistryBackendRedis    = "redis"
	RegistryBackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database database.PostgresConfig
	Redis    database.RedisConfig
	AWS      database.AWSConfig
	Registry RegistryConfig
	Dispatch DispatchConfig
	JWT      JWTConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"notify-relay"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"db/migrations"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

// ServerConfig holds server configuration for the self-hosted gateway
type ServerConfig struct {
	Port           string `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:4200"`
	// NodeID names this instance in the connection ids it mints. Empty picks
	// a random id per process.
	NodeID string `envconfig:"NODE_ID"`
}

// RegistryConfig selects and configures the connection registry backend
type RegistryConfig struct {
	Backend          string `envconfig:"REGISTRY_BACKEND" default:"dynamodb"`
	ConnectionsTable string `envconfig:"CONNECTIONS_TABLE"`
	UserIndex        string `envconfig:"CONNECTIONS_USER_INDEX" default:"userId-index"`
	RedisPrefix      string `envconfig:"REGISTRY_REDIS_PREFIX" default:"relay:"`
}

// DispatchConfig bounds the notification fan-out
type DispatchConfig struct {
	PushTimeout  time.Duration `envconfig:"PUSH_TIMEOUT" default:"5s"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	Concurrency  int           `envconfig:"DISPATCH_CONCURRENCY" default:"16"`
}

// JWTConfig holds JWT configuration used to resolve users on the local gateway
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" default:"default-dev-secret"`
}

// Load reads configuration from the environment, after loading an optional
// .env file for local runs.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	// The CDK stack exports the table as TABLE_NAME.
	if cfg.Registry.ConnectionsTable == "" {
		cfg.Registry.ConnectionsTable = os.Getenv("TABLE_NAME")
	}
	cfg.Registry.Backend = strings.ToLower(strings.TrimSpace(cfg.Registry.Backend))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Registry.Backend {
	case RegistryBackendDynamoDB:
		if c.Registry.ConnectionsTable == "" {
			return fmt.Errorf("config: CONNECTIONS_TABLE (or TABLE_NAME) is required for the dynamodb registry")
		}
	case RegistryBackendRedis, RegistryBackendMemory:
	default:
		return fmt.Errorf("config: unknown REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	if c.Dispatch.Concurrency < 1 {
		return fmt.Errorf("config: DISPATCH_CONCURRENCY must be positive")
	}
	return nil
}
