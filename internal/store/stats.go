package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/todochat/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Counts returns the admin dashboard totals in a single round trip.
func (s *StatsStore) Counts(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE is_verified = 1),
		(SELECT COUNT(*) FROM todos),
		(SELECT COUNT(*) FROM todos WHERE completed = 1),
		(SELECT COUNT(*) FROM chat_rooms),
		(SELECT COUNT(*) FROM messages)`,
	).Scan(
		&st.TotalUsers, &st.VerifiedUsers, &st.TotalTodos,
		&st.CompletedTodos, &st.TotalChatRooms, &st.TotalMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("count stats: %w", err)
	}
	return &st, nil
}

// Reset deletes every row in dependency order. Used by the seed command.
func (s *StatsStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "chat_rooms", "todos", "users"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}
