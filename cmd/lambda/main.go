package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/gateway/apigw"
	"github.com/saransh1220/notify-relay/internal/gateway/events"
	"github.com/saransh1220/notify-relay/internal/modules/connection"
	connectiondomain "github.com/saransh1220/notify-relay/internal/modules/connection/domain"
	"github.com/saransh1220/notify-relay/internal/modules/notification"
	notificationdomain "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/push/apigateway"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/database"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

func main() {
	ctx := context.Background()

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

	handler, err := build(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialise relay", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}

// build wires every client once per cold start so warm invocations reuse them.
func build(ctx context.Context, cfg config.Config, log *logger.Logger) (*apigw.Handler, error) {
	awsCfg, err := database.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	backends := connection.Backends{}
	switch cfg.Registry.Backend {
	case config.RegistryBackendDynamoDB:
		backends.DynamoDB = database.NewDynamoDBClient(awsCfg, cfg.AWS)
	case config.RegistryBackendRedis:
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		backends.Redis = rdb
	}
	registry, err := connection.NewRegistry(cfg.Registry, backends)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	return wire(cfg.Dispatch, registry, db, apigateway.NewTransport(awsCfg), log), nil
}

func wire(cfg config.DispatchConfig, registry connectiondomain.Registry, db *sqlx.DB, transport notificationdomain.Transport, log *logger.Logger) *apigw.Handler {
	// Nothing scrapes a Lambda. Delivery counts reach CloudWatch through the
	// notification_dispatched and connection log events instead.
	connectionModule := connection.NewModule(registry, log, nil)
	notificationModule := notification.NewModule(db, cfg, notification.Deps{
		Connections: connectionModule.Service(),
		Transport:   transport,
		Log:         log,
	})

	router := events.NewRouter(connectionModule.Lifecycle(), notificationModule.Dispatcher(), log)
	return apigw.NewHandler(router)
}
