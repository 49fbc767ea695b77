package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/roomcast/roomcast-server/internal/store"
)

func doJSON(t *testing.T, env *testEnv, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != "" {
		reqBody = bytes.NewBufferString(body)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, env.ts.URL+path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(resp, req)
	return resp
}

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "testuser")

	resp := doJSON(t, env, http.MethodPost, "/api/rooms", token, `{"name":"my-test-room"}`)
	if resp.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var roomResp RoomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &roomResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if roomResp.Name != "my-test-room" {
		t.Errorf("expected room name 'my-test-room', got '%s'", roomResp.Name)
	}
	if roomResp.Type != "public" {
		t.Errorf("expected room type 'public', got '%s'", roomResp.Type)
	}

	// Without token
	resp = doJSON(t, env, http.MethodPost, "/api/rooms", "", `{"name":"should-fail"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}

	// Duplicate name
	resp = doJSON(t, env, http.MethodPost, "/api/rooms", token, `{"name":"my-test-room"}`)
	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}

	// Private room
	resp = doJSON(t, env, http.MethodPost, "/api/rooms", token, `{"name":"secret","private":true}`)
	if resp.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &roomResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if roomResp.Type != "private" {
		t.Errorf("expected room type 'private', got '%s'", roomResp.Type)
	}
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "testuser")

	ownerID := int64(1)
	for _, name := range []string{"room1", "room2"} {
		if _, err := env.store.CreateRoom(context.Background(), name, store.RoomTypePublic, &ownerID); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	resp := doJSON(t, env, http.MethodGet, "/api/rooms", token, "")
	if resp.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var rooms []RoomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	// general (seeded) + room1 + room2
	if len(rooms) != 3 {
		t.Errorf("expected 3 rooms, got %d", len(rooms))
	}

	resp = doJSON(t, env, http.MethodGet, "/api/rooms", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}
}

func TestJoinRoomEndpoint(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := registerUser(t, env, "alice")
	bobToken := registerUser(t, env, "bob")

	// Alice creates a private room; bob cannot join it over REST.
	resp := doJSON(t, env, http.MethodPost, "/api/rooms", aliceToken, `{"name":"secret","private":true}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create room: %d: %s", resp.Code, resp.Body.String())
	}
	var room RoomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &room); err != nil {
		t.Fatalf("unmarshal room: %v", err)
	}

	resp = doJSON(t, env, http.MethodPost, "/api/rooms/"+itoa(room.ID)+"/join", bobToken, "")
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d: %s", resp.Code, resp.Body.String())
	}

	// Public room join succeeds.
	resp = doJSON(t, env, http.MethodPost, "/api/rooms/1/join", bobToken, "")
	if resp.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Unknown room.
	resp = doJSON(t, env, http.MethodPost, "/api/rooms/9999/join", bobToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListMessagesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")

	ctx := context.Background()
	for _, body := range []string{"one", "two", "three"} {
		msg := &store.Message{RoomID: 1, UserID: 1, Body: body}
		if err := env.store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	resp := doJSON(t, env, http.MethodGet, "/api/rooms/1/messages?limit=2", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var messages []MessageResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	// Oldest first within the returned page.
	if messages[0].Body != "two" || messages[1].Body != "three" {
		t.Fatalf("unexpected page: %+v", messages)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := registerUser(t, env, "alice")
	registerUser(t, env, "bob")

	ctx := context.Background()
	if _, err := env.store.CreateNotification(ctx, 1, 2, "message"); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	resp := doJSON(t, env, http.MethodGet, "/api/notifications?unread=true", aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var notifications []NotificationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &notifications); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Kind != "message" {
		t.Fatalf("unexpected notifications: %+v", notifications)
	}

	resp = doJSON(t, env, http.MethodPost, "/api/notifications/read", aliceToken, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, env, http.MethodGet, "/api/notifications?unread=true", aliceToken, "")
	var unread []NotificationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &unread); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %+v", unread)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
