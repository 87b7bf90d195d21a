package model

type Stats struct {
	TotalUsers     int `json:"total_users"`
	VerifiedUsers  int `json:"verified_users"`
	TotalTodos     int `json:"total_todos"`
	CompletedTodos int `json:"completed_todos"`
	TotalChatRooms int `json:"total_chat_rooms"`
	TotalMessages  int `json:"total_messages"`
}
