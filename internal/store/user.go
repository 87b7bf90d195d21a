package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/todochat/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var username, code sql.NullString
	var expiry sql.NullTime
	var verified, admin int

	err := scanner.Scan(
		&u.ID, &username, &u.Email, &u.PasswordHash, &verified,
		&code, &expiry, &admin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.IsVerified = verified != 0
	u.IsAdmin = admin != 0
	if username.Valid {
		u.Username = &username.String
	}
	if code.Valid {
		u.VerificationCode = &code.String
	}
	if expiry.Valid {
		t := expiry.Time
		u.VerificationExpiry = &t
	}
	return &u, nil
}

const userCols = `id, username, email, password_hash, is_verified, verification_code, verification_expiry, is_admin, created_at`

// CreateUnverified inserts a user that still has to confirm its email with code.
func (s *UserStore) CreateUnverified(ctx context.Context, email string, username *string, passwordHash, code string, expiry time.Time) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, is_verified, verification_code, verification_expiry)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		email, nullString(username), passwordHash, code, expiry.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// CreateVerified inserts an already verified user. Used by seeding.
func (s *UserStore) CreateVerified(ctx context.Context, email string, username *string, passwordHash string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, is_verified) VALUES (?, ?, ?, 1)`,
		email, nullString(username), passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List returns all users, newest first.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetVerificationCode replaces the outstanding code and expiry. A non-nil
// username also replaces the stored username.
func (s *UserStore) SetVerificationCode(ctx context.Context, id int64, code string, expiry time.Time, username *string) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET verification_code = ?, verification_expiry = ?, username = COALESCE(?, username) WHERE id = ?`,
		code, expiry.UTC(), nullString(username), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set verification code: %w", err)
	}
	return s.GetByID(ctx, id)
}

// MarkVerified flags the user verified and clears the verification code.
func (s *UserStore) MarkVerified(ctx context.Context, id int64) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, verification_code = NULL, verification_expiry = NULL WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*model.User, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, boolInt(isAdmin), id)
	if err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the user's messages, then todos, then the user row, in one
// transaction. The schema has no cascading deletes.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete user messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete user todos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
