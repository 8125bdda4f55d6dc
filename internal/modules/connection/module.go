package connection

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/modules/connection/application"
	"github.com/saransh1220/notify-relay/internal/modules/connection/domain"
	"github.com/saransh1220/notify-relay/internal/modules/connection/infrastructure/persistence/dynamo"
	"github.com/saransh1220/notify-relay/internal/modules/connection/infrastructure/persistence/memory"
	"github.com/saransh1220/notify-relay/internal/modules/connection/infrastructure/persistence/redisstore"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

// Backends carries the clients a registry backend may need. Only the one
// selected by config has to be set.
type Backends struct {
	DynamoDB dynamo.API
	Redis    redis.UniversalClient
}

// NewRegistry builds the registry backend named by cfg.Backend.
func NewRegistry(cfg config.RegistryConfig, backends Backends) (domain.Registry, error) {
	switch cfg.Backend {
	case config.RegistryBackendDynamoDB:
		if backends.DynamoDB == nil {
			return nil, fmt.Errorf("dynamodb registry: client is required")
		}
		return dynamo.NewConnectionRepository(backends.DynamoDB, cfg.ConnectionsTable, cfg.UserIndex), nil
	case config.RegistryBackendRedis:
		if backends.Redis == nil {
			return nil, fmt.Errorf("redis registry: client is required")
		}
		return redisstore.NewConnectionRepository(backends.Redis, cfg.RedisPrefix), nil
	case config.RegistryBackendMemory:
		return memory.NewConnectionRepository(), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}

// Module represents the Connection module
type Module struct {
	service   *application.ConnectionService
	lifecycle *application.Lifecycle
}

func NewModule(registry domain.Registry, log *logger.Logger, metrics application.Recorder) *Module {
	service := application.NewConnectionService(registry, log, metrics)
	return &Module{
		service:   service,
		lifecycle: application.NewLifecycle(service),
	}
}

// Service returns the registry service for use by the notification module
func (m *Module) Service() *application.ConnectionService {
	return m.service
}

func (m *Module) Lifecycle() *application.Lifecycle {
	return m.lifecycle
}
