package notification

import (
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/persistence/postgres"
	notification_http "github.com/saransh1220/notify-relay/internal/modules/notification/interfaces/http"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

// Deps are the collaborators the module does not own.
type Deps struct {
	Connections application.ConnectionIndex
	Transport   domain.Transport
	Log         *logger.Logger
	Metrics     application.Recorder
}

type Module struct {
	service    *application.NotificationService
	dispatcher *application.Dispatcher
	handler    *notification_http.NotificationHandler
}

func NewModule(db *sqlx.DB, cfg config.DispatchConfig, deps Deps) *Module {
	return NewModuleWithStore(postgres.NewPgNotificationRepository(db), cfg, deps)
}

func NewModuleWithStore(store domain.NotificationStore, cfg config.DispatchConfig, deps Deps) *Module {
	dispatcher := application.NewDispatcher(
		application.NewResolver(store),
		deps.Connections,
		application.NewDeliverer(deps.Transport, cfg.PushTimeout, deps.Log),
		store,
		application.DispatcherConfig{StoreTimeout: cfg.StoreTimeout, Concurrency: cfg.Concurrency},
		deps.Log,
		deps.Metrics,
	)
	service := application.NewNotificationService(store)

	return &Module{
		service:    service,
		dispatcher: dispatcher,
		handler:    notification_http.NewNotificationHandler(dispatcher, service, deps.Log),
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

func (m *Module) Dispatcher() *application.Dispatcher {
	return m.dispatcher
}
