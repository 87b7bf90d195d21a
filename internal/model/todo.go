package model

import "time"

type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoPatch holds the fields of an update; nil fields are left unchanged.
// ClearDescription sets the description to NULL.
type TodoPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Completed        *bool
}
