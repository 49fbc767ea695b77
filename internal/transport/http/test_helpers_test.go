package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/engine"
	"github.com/roomcast/roomcast-server/internal/store"
	"github.com/roomcast/roomcast-server/internal/store/sqlite"
)

// testEnv bundles the wired components behind a running test server.
type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
}

// newTestEnv wires an in-memory store, auth service, gateway and HTTP
// server. A "general" public room is pre-seeded.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := st.CreateRoom(context.Background(), "general", store.RoomTypePublic, nil); err != nil {
		t.Fatalf("failed to seed general room: %v", err)
	}

	authService := auth.NewService(st, &auth.Config{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	})

	disabledLogger := zerolog.New(nil)

	gw := engine.NewGateway(engine.Options{
		TypingTTL:            time.Second,
		OfflineNotifications: true,
	}, store.NewEngineAdapter(st), &disabledLogger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Run(ctx)

	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		MessagesPerMinute: 1000,
	}

	server := NewServer(gw, authService, st, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService}
}

// registerUser creates a user and returns its token.
func registerUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()

	token, err := env.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return token
}
