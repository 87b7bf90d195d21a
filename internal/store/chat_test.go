package store

import (
	"context"
	"testing"
)

func TestChatRooms(t *testing.T) {
	cs := NewChatStore(setupTestDB(t))
	ctx := context.Background()

	general, err := cs.CreateRoom(ctx, "General")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	tech, _ := cs.CreateRoom(ctx, "Tech Talk")

	got, err := cs.GetRoom(ctx, general.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got == nil || got.Name != "General" {
		t.Fatalf("got %+v, want General", got)
	}

	rooms, err := cs.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != tech.ID {
		t.Errorf("expected newest room first, got %+v", rooms)
	}

	missing, err := cs.GetRoom(ctx, 999)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for nonexistent room")
	}
}

func TestChatMessagesJoinAuthorAndRoom(t *testing.T) {
	db := setupTestDB(t)
	us, cs := NewUserStore(db), NewChatStore(db)
	ctx := context.Background()

	alice, _ := us.CreateVerified(ctx, "alice@example.com", strPtr("alice"), "hash")
	room, _ := cs.CreateRoom(ctx, "General")
	other, _ := cs.CreateRoom(ctx, "Other")

	m, err := cs.CreateMessage(ctx, alice.ID, room.ID, "Hello everyone!")
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if m.Author.Email != "alice@example.com" {
		t.Errorf("author email = %q, want alice@example.com", m.Author.Email)
	}
	if m.Author.Username == nil || *m.Author.Username != "alice" {
		t.Errorf("author username = %v, want alice", m.Author.Username)
	}
	if m.Room.Name != "General" {
		t.Errorf("room name = %q, want General", m.Room.Name)
	}

	second, _ := cs.CreateMessage(ctx, alice.ID, room.ID, "Anyone here?")
	cs.CreateMessage(ctx, alice.ID, other.ID, "elsewhere")

	msgs, err := cs.ListMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != m.ID || msgs[1].ID != second.ID {
		t.Errorf("expected oldest first, got [%d %d]", msgs[0].ID, msgs[1].ID)
	}
}

func TestChatMessageRequiresRoom(t *testing.T) {
	db := setupTestDB(t)
	us, cs := NewUserStore(db), NewChatStore(db)
	ctx := context.Background()

	alice, _ := us.CreateVerified(ctx, "alice@example.com", nil, "hash")
	if _, err := cs.CreateMessage(ctx, alice.ID, 999, "lost"); err == nil {
		t.Fatal("expected foreign key error for missing room")
	}
}
