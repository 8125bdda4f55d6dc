package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/notify-relay/internal/gateway"
	"github.com/saransh1220/notify-relay/internal/gateway/events"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/gateway/wsgateway"
	"github.com/saransh1220/notify-relay/internal/modules/connection"
	"github.com/saransh1220/notify-relay/internal/modules/notification"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/database"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/metrics"
	"github.com/saransh1220/notify-relay/pkg/logger"
	"github.com/saransh1220/notify-relay/pkg/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "notify-relay"}).Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: cfg.App.ServiceName,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	log.Info(ctx, "connecting to database")
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info(ctx, "database connected")

	if cfg.App.AutoMigrate {
		if err := migration.AutoMigrate(cfg.Database.DSN(), cfg.App.MigrationsPath, log); err != nil {
			return err
		}
	}

	backends := connection.Backends{}
	var peers *wsgateway.RedisPeers
	switch cfg.Registry.Backend {
	case config.RegistryBackendDynamoDB:
		awsCfg, err := database.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return err
		}
		backends.DynamoDB = database.NewDynamoDBClient(awsCfg, cfg.AWS)
	case config.RegistryBackendRedis:
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		backends.Redis = rdb
		peers = wsgateway.NewRedisPeers(rdb, cfg.Registry.RedisPrefix, log)
	}
	registry, err := connection.NewRegistry(cfg.Registry, backends)
	if err != nil {
		return err
	}
	log.Info(log.WithField(ctx, "backend", cfg.Registry.Backend), "connection registry ready")

	recorder := metrics.NewRelay(prometheus.DefaultRegisterer)

	// The hub is both the socket owner and the push transport. Without
	// peers, sockets held by other nodes are reported as failed pushes.
	var hub *wsgateway.Hub
	if peers != nil {
		hub = wsgateway.NewHub(cfg.Server.NodeID, peers, log)
		go func() {
			if err := peers.Listen(ctx, hub); err != nil {
				log.Error(ctx, "forwarded push listener stopped", err)
			}
		}()
	} else {
		hub = wsgateway.NewHub(cfg.Server.NodeID, nil, log)
	}
	go hub.Run()
	defer hub.Stop()
	log.Info(log.WithField(ctx, "node_id", hub.NodeID()), "websocket hub started")

	connectionModule := connection.NewModule(registry, log, recorder)
	notificationModule := notification.NewModule(db, cfg.Dispatch, notification.Deps{
		Connections: connectionModule.Service(),
		Transport:   hub,
		Log:         log,
		Metrics:     recorder,
	})

	router := events.NewRouter(connectionModule.Lifecycle(), notificationModule.Dispatcher(), log)

	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware(cfg.JWT.Secret),
		NotificationHandler: notificationModule.HTTPHandler(),
		Gateway:             wsgateway.NewGateway(hub, router, cfg.Server.AllowedOrigins, log),
	})

	var handler http.Handler = mux
	handler = middleware.PrometheusMiddleware(handler)
	handler = middleware.CORSMiddleware(handler, cfg.Server.AllowedOrigins)

	return gateway.NewServer(cfg.Server.Port, handler, log).Start(ctx)
}
