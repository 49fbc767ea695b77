package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=64"`
	Private bool   `json:"private"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	OwnerID   *int64 `json:"owner_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse represents a persisted message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"room_id"`
	UserID    int64  `json:"user_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func toRoomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Type:      string(room.Type),
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	roomType := store.RoomTypePublic
	if req.Private {
		roomType = store.RoomTypePrivate
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, roomType, &uid)
	if err != nil {
		// SQLite UNIQUE constraint on room name
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("owner_id", uid).Msg("room created")
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

// ListRooms handles listing accessible rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	rooms, err := h.store.ListRooms(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, toRoomResponse(room))
	}

	c.JSON(http.StatusOK, response)
}

// JoinRoom enrolls the authenticated user into a room.
// POST /api/rooms/:id/join
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Private rooms only admit the owner through this endpoint; everyone
	// else needs to be enrolled by the owner.
	if room.Type != store.RoomTypePublic && (room.OwnerID == nil || *room.OwnerID != uid) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "room is private"})
		return
	}

	if err := h.store.AddMember(c.Request.Context(), uid, roomID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", uid).Msg("failed to add member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponse(room))
}

// ListMessages returns persisted messages for a room, oldest first.
// GET /api/rooms/:id/messages?limit=50&before_id=123
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if room.Type != store.RoomTypePublic {
		isMember, err := h.store.IsMember(c.Request.Context(), uid, roomID)
		if err != nil {
			h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to check membership")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		if !isMember && (room.OwnerID == nil || *room.OwnerID != uid) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member"})
			return
		}
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	var beforeID *int64
	if raw := c.Query("before_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before_id"})
			return
		}
		beforeID = &parsed
	}

	messages, err := h.store.ListMessages(c.Request.Context(), roomID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:        msg.ID,
			RoomID:    msg.RoomID,
			UserID:    msg.UserID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
