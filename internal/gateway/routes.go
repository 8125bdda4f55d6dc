package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/gateway/wsgateway"
	notificationdomain "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	notification_http "github.com/saransh1220/notify-relay/internal/modules/notification/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleWare
	NotificationHandler *notification_http.NotificationHandler
	Gateway             *wsgateway.Gateway
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint; the user comes from a token when one is sent, else from ?userId
	mux.Handle("GET /ws", config.AuthMiddleware.FlexibleAuth(http.HandlerFunc(config.Gateway.ServeWs)))

	// Notification Routes
	auth := config.AuthMiddleware
	mux.Handle("POST /notifications", auth.RequireAuth(http.HandlerFunc(config.NotificationHandler.Notify)))
	mux.Handle("POST /notifications/admins", auth.RequireAuth(
		auth.RequireRole(notificationdomain.RoleAdmin, http.HandlerFunc(config.NotificationHandler.NotifyAdmins)),
	))
	mux.Handle("GET /notifications", auth.RequireAuth(http.HandlerFunc(config.NotificationHandler.ListNotifications)))
	mux.Handle("GET /notifications/unread-count", auth.RequireAuth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))

	return mux
}
