package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roomcast/roomcast-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest INTEGER NOT NULL DEFAULT 0,
	session_id TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_session_id ON users(session_id);

CREATE TABLE IF NOT EXISTS rooms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL DEFAULT 'public',
	owner_id INTEGER REFERENCES users(id),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS room_members (
	user_id INTEGER NOT NULL REFERENCES users(id),
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, room_id)
);
CREATE INDEX IF NOT EXISTS idx_room_members_room ON room_members(room_id);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id INTEGER NOT NULL REFERENCES rooms(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	body TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, id);

CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recipient_id INTEGER NOT NULL REFERENCES users(id),
	sender_id INTEGER NOT NULL REFERENCES users(id),
	kind TEXT NOT NULL,
	read INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, read);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE username = ? AND is_guest = 0
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserBySessionID retrieves a guest user by session ID.
func (s *SQLiteStore) GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE session_id = ? AND is_guest = 1
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("guest session: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query guest user: %w", err)
	}

	return &user, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, roomType store.RoomType, ownerID *int64) (*store.Room, error) {
	query := `
		INSERT INTO rooms (name, type, owner_id)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, roomType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	// The owner of a private room is always a member.
	if ownerID != nil {
		if err := s.AddMember(ctx, *ownerID, id); err != nil {
			return nil, err
		}
	}

	return s.GetRoomByID(ctx, id)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, name, type, owner_id, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	var ownerID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&ownerID,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	if ownerID.Valid {
		room.OwnerID = &ownerID.Int64
	}

	return &room, nil
}

// GetRoomByName retrieves a room by name.
func (s *SQLiteStore) GetRoomByName(ctx context.Context, name string) (*store.Room, error) {
	query := `
		SELECT id, name, type, owner_id, created_at
		FROM rooms
		WHERE name = ?
	`
	var room store.Room
	var ownerID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&ownerID,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	if ownerID.Valid {
		room.OwnerID = &ownerID.Int64
	}

	return &room, nil
}

// ListRooms lists all accessible rooms for a user.
func (s *SQLiteStore) ListRooms(ctx context.Context, userID int64) ([]*store.Room, error) {
	query := `
		SELECT DISTINCT r.id, r.name, r.type, r.owner_id, r.created_at
		FROM rooms r
		LEFT JOIN room_members rm ON r.id = rm.room_id
		WHERE r.type = 'public'
		   OR rm.user_id = ?
		   OR r.owner_id = ?
		ORDER BY r.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		var ownerID sql.NullInt64
		if err := rows.Scan(&room.ID, &room.Name, &room.Type, &ownerID, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if ownerID.Valid {
			room.OwnerID = &ownerID.Int64
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

// AddMember adds a user to a room.
func (s *SQLiteStore) AddMember(ctx context.Context, userID, roomID int64) error {
	query := `
		INSERT OR IGNORE INTO room_members (user_id, room_id)
		VALUES (?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, userID, roomID)
	if err != nil {
		return fmt.Errorf("insert room member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, userID, roomID int64) error {
	query := `
		DELETE FROM room_members
		WHERE user_id = ? AND room_id = ?
	`
	_, err := s.db.ExecContext(ctx, query, userID, roomID)
	if err != nil {
		return fmt.Errorf("delete room member: %w", err)
	}

	return nil
}

// IsMember checks if user is a member of the room.
func (s *SQLiteStore) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	query := `
		SELECT 1 FROM room_members
		WHERE user_id = ? AND room_id = ?
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, userID, roomID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}

	return true, nil
}

// ListMembers lists all members of a room.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM room_members
		WHERE room_id = ?
		ORDER BY joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message to storage.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (room_id, user_id, body, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.RoomID, msg.UserID, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages retrieves messages from a room with pagination.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*store.Message, error) {
	var query string
	var args []interface{}

	if beforeID != nil {
		query = `
			SELECT id, room_id, user_id, body, created_at
			FROM messages
			WHERE room_id = ? AND id < ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []interface{}{roomID, *beforeID, limit}
	} else {
		query = `
			SELECT id, room_id, user_id, body, created_at
			FROM messages
			WHERE room_id = ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []interface{}{roomID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	// Reverse to get chronological order
	for i := 0; i < len(messages)/2; i++ {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, rows.Err()
}

// ==== NotificationStore implementation ====

// CreateNotification stores an unread notification for a user.
func (s *SQLiteStore) CreateNotification(ctx context.Context, recipientID, senderID int64, kind string) (*store.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_id, sender_id, kind)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, recipientID, senderID, kind)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getNotificationByID(ctx, id)
}

func (s *SQLiteStore) getNotificationByID(ctx context.Context, id int64) (*store.Notification, error) {
	query := `
		SELECT id, recipient_id, sender_id, kind, read, created_at
		FROM notifications
		WHERE id = ?
	`
	var n store.Notification
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.RecipientID,
		&n.SenderID,
		&n.Kind,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query notification: %w", err)
	}

	return &n, nil
}

// ListNotifications lists notifications for a user, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*store.Notification, error) {
	query := `
		SELECT id, recipient_id, sender_id, kind, read, created_at
		FROM notifications
		WHERE recipient_id = ?
	`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkNotificationsRead marks all of a user's notifications as read.
func (s *SQLiteStore) MarkNotificationsRead(ctx context.Context, recipientID int64) error {
	query := `UPDATE notifications SET read = 1 WHERE recipient_id = ? AND read = 0`
	_, err := s.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
