package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/utils"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

const maxBodyBytes = 64 << 10

type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error)
}

type NotificationHandler struct {
	dispatcher Dispatcher
	service    *application.NotificationService
	log        *logger.Logger
}

func NewNotificationHandler(dispatcher Dispatcher, service *application.NotificationService, log *logger.Logger) *NotificationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationHandler{dispatcher: dispatcher, service: service, log: log}
}

// Notify handles POST /notifications {userId, message}.
func (h *NotificationHandler) Notify(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	req, err := application.ParseSendNotification(body)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}
	h.dispatch(w, r, req.Dispatch(""))
}

// NotifyAdmins handles POST /notifications/admins {message}.
func (h *NotificationHandler) NotifyAdmins(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	req, err := application.ParseNotifyAdmin(body)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}
	h.dispatch(w, r, req.Dispatch(""))
}

func (h *NotificationHandler) dispatch(w http.ResponseWriter, r *http.Request, req domain.DispatchRequest) {
	summary, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.log.Error(r.Context(), "dispatch failed", err)
		utils.WriteDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, application.NewDispatchResponse(summary))
}

// ListNotifications returns the caller's unread notifications, newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	notifications, err := h.service.ListPending(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error(h.log.WithUserID(r.Context(), userID), "list notifications failed", err)
		utils.WriteDomainError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		utils.WriteDomainError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
