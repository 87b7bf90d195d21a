package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/todochat/internal/model"
)

// ChatStore persists chat rooms and their messages.
type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

func scanRoom(scanner interface{ Scan(...any) error }) (*model.ChatRoom, error) {
	var r model.ChatRoom
	if err := scanner.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const roomCols = `id, name, created_at`

func (s *ChatStore) CreateRoom(ctx context.Context, name string) (*model.ChatRoom, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO chat_rooms (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert chat room: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRoom(ctx, id)
}

func (s *ChatStore) GetRoom(ctx context.Context, id int64) (*model.ChatRoom, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomCols+` FROM chat_rooms WHERE id = ?`, id)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat room: %w", err)
	}
	return r, nil
}

// ListRooms returns all rooms, newest first.
func (s *ChatStore) ListRooms(ctx context.Context) ([]model.ChatRoom, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roomCols+` FROM chat_rooms ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.ChatRoom
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat room: %w", err)
		}
		rooms = append(rooms, *r)
	}
	return rooms, rows.Err()
}

// Messages are always read joined with their author and room.
const messageSelect = `SELECT m.id, m.content, m.user_id, m.room_id, m.created_at,
	u.id, u.username, u.email, u.password_hash, u.is_verified, u.verification_code, u.verification_expiry, u.is_admin, u.created_at,
	r.id, r.name, r.created_at
	FROM messages m
	JOIN users u ON u.id = m.user_id
	JOIN chat_rooms r ON r.id = m.room_id`

func scanMessage(scanner interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var username, code sql.NullString
	var expiry sql.NullTime
	var verified, admin int

	err := scanner.Scan(
		&m.ID, &m.Content, &m.UserID, &m.RoomID, &m.CreatedAt,
		&m.Author.ID, &username, &m.Author.Email, &m.Author.PasswordHash, &verified,
		&code, &expiry, &admin, &m.Author.CreatedAt,
		&m.Room.ID, &m.Room.Name, &m.Room.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Author.IsVerified = verified != 0
	m.Author.IsAdmin = admin != 0
	if username.Valid {
		m.Author.Username = &username.String
	}
	if code.Valid {
		m.Author.VerificationCode = &code.String
	}
	if expiry.Valid {
		t := expiry.Time
		m.Author.VerificationExpiry = &t
	}
	return &m, nil
}

func (s *ChatStore) CreateMessage(ctx context.Context, userID, roomID int64, content string) (*model.Message, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (content, user_id, room_id) VALUES (?, ?, ?)`,
		content, userID, roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMessage(ctx, id)
}

func (s *ChatStore) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListMessages returns a room's messages, oldest first.
func (s *ChatStore) ListMessages(ctx context.Context, roomID int64) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		messageSelect+` WHERE m.room_id = ? ORDER BY m.created_at ASC, m.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// CountMessagesByUser is used to verify account deletion left nothing behind.
func (s *ChatStore) CountMessagesByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}
