package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/store"
)

// NotificationHandlers provides HTTP handlers for stored notifications.
type NotificationHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(st store.Store, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		store: st,
		log:   logger,
	}
}

// NotificationResponse represents a stored notification in API responses.
type NotificationResponse struct {
	ID        int64  `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Kind      string `json:"kind"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// List returns the authenticated user's notifications, newest first.
// GET /api/notifications?unread=true
func (h *NotificationHandlers) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.store.ListNotifications(c.Request.Context(), uid, unreadOnly)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, NotificationResponse{
			ID:        n.ID,
			SenderID:  n.SenderID,
			Kind:      n.Kind,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}

// MarkRead marks all of the user's notifications as read.
// POST /api/notifications/read
func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.store.MarkNotificationsRead(c.Request.Context(), uid); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to mark notifications read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
