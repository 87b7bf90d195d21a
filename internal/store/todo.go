package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/todochat/internal/model"
)

type TodoStore struct {
	db *sql.DB
}

func NewTodoStore(db *sql.DB) *TodoStore {
	return &TodoStore{db: db}
}

func scanTodo(scanner interface{ Scan(...any) error }) (*model.Todo, error) {
	var t model.Todo
	var description sql.NullString
	var completed int

	err := scanner.Scan(
		&t.ID, &t.Title, &description, &completed,
		&t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	if description.Valid {
		t.Description = &description.String
	}
	return &t, nil
}

const todoCols = `id, title, description, completed, user_id, created_at, updated_at`

func (s *TodoStore) Create(ctx context.Context, userID int64, title string, description *string) (*model.Todo, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, user_id) VALUES (?, ?, ?)`,
		title, nullString(description), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TodoStore) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+todoCols+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's todos, newest first.
func (s *TodoStore) ListByUser(ctx context.Context, userID int64) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

// Update applies the non-nil fields of p and bumps updated_at.
func (s *TodoStore) Update(ctx context.Context, id int64, p model.TodoPatch) (*model.Todo, error) {
	var completed sql.NullInt64
	if p.Completed != nil {
		completed = sql.NullInt64{Int64: int64(boolInt(*p.Completed)), Valid: true}
	}

	setDescription := p.Description != nil || p.ClearDescription

	_, err := s.db.ExecContext(ctx,
		`UPDATE todos SET
		   title = COALESCE(?, title),
		   description = CASE WHEN ? THEN ? ELSE description END,
		   completed = COALESCE(?, completed),
		   updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nullString(p.Title), boolInt(setDescription), nullString(p.Description), completed, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
