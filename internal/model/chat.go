package model

import "time"

type ChatRoom struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is immutable once created. Author and Room are joined in by the
// store so a message can be delivered without further lookups.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	RoomID    int64     `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
	Author    User      `json:"user"`
	Room      ChatRoom  `json:"room"`
}
