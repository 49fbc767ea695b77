package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"
)

func startGateway(t *testing.T, opts Options, persist Persistence) *Gateway {
	t.Helper()

	g := NewGateway(opts, persist, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go g.Run(ctx)
	return g
}

func identify(t *testing.T, g *Gateway, identity string) *Conn {
	t.Helper()

	c := g.NewConn()
	g.Attach(c)
	c.Commands <- &Command{Kind: CommandIdentify, Identity: identity}
	mustEvent(t, c.Events, EventConnected)
	return c
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// countEvents drains ch for the given window and counts events of kind.
func countEvents(ch <-chan *Event, kind EventKind, window time.Duration) int {
	deadline := time.After(window)
	n := 0
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return n
			}
			if ev.Kind == kind {
				n++
			}
		case <-deadline:
			return n
		}
	}
}

var errPersistDown = errors.New("store unavailable")

type fakePersistence struct {
	mu sync.Mutex

	failPersist  bool
	authorize    bool
	participants []string
	history      []*Message

	saved         []*Message
	notifications map[string]int // recipient -> count
	nextID        int64
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		authorize:     true,
		notifications: make(map[string]int),
	}
}

func (f *fakePersistence) PersistMessage(_ context.Context, roomID, senderID, text string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPersist {
		return nil, errPersistDown
	}
	f.nextID++
	msg := &Message{
		ID:        strconv.FormatInt(f.nextID, 10),
		Room:      roomID,
		From:      senderID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakePersistence) AuthorizeRoomJoin(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorize, nil
}

func (f *fakePersistence) RoomParticipants(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.participants...), nil
}

func (f *fakePersistence) RecentMessages(_ context.Context, _ string, limit int) ([]*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) > limit {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakePersistence) CreateNotification(_ context.Context, recipientID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[recipientID]++
	return nil
}

func (f *fakePersistence) notificationCount(recipientID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifications[recipientID]
}

func (f *fakePersistence) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
