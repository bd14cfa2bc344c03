package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/taskflow-app/taskflow-api/internal/api/shared"
)

// NotificationHandler handles notification-related HTTP requests.
type NotificationHandler struct {
	notificationService NotificationService
	validator           *validator.Validate
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
	}
}

// ListNotifications handles GET /api/notifications requests, returning
// the actor's notifications newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := getPagination(r)
	records, err := h.notificationService.ListNotifications(r.Context(), actorID, limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notificationsToResponse(records))
}

// DeleteNotification handles DELETE /api/notifications/{id} requests.
// Only the actor's own notifications are reachable.
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	notificationID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.notificationService.DeleteNotification(r.Context(), actorID, notificationID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}

// SavePushSubscription handles PUT /api/notifications/subscription
// requests. One subscription per user; saving replaces the previous one.
func (h *NotificationHandler) SavePushSubscription(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SavePushSubscriptionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sub, err := h.notificationService.SavePushSubscription(r.Context(), actorID, req.Endpoint, req.Keys)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PushSubscriptionResponse{
		UserID:    sub.UserID,
		Endpoint:  sub.Endpoint,
		Keys:      sub.Keys,
		UpdatedAt: sub.UpdatedAt,
	})
}

// RemovePushSubscription handles DELETE /api/notifications/subscription
// requests.
func (h *NotificationHandler) RemovePushSubscription(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	if err := h.notificationService.RemovePushSubscription(r.Context(), actorID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}
