package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/todochat/internal/model"
)

func TestStatsCounts(t *testing.T) {
	db := setupTestDB(t)
	us, ts, cs, ss := NewUserStore(db), NewTodoStore(db), NewChatStore(db), NewStatsStore(db)
	ctx := context.Background()

	alice, _ := us.CreateVerified(ctx, "alice@example.com", nil, "hash")
	us.CreateUnverified(ctx, "bob@example.com", nil, "hash", "123456", time.Now().Add(time.Hour))
	todo, _ := ts.Create(ctx, alice.ID, "one", nil)
	ts.Create(ctx, alice.ID, "two", nil)
	done := true
	ts.Update(ctx, todo.ID, model.TodoPatch{Completed: &done})
	room, _ := cs.CreateRoom(ctx, "General")
	cs.CreateMessage(ctx, alice.ID, room.ID, "hi")

	st, err := ss.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := model.Stats{
		TotalUsers: 2, VerifiedUsers: 1,
		TotalTodos: 2, CompletedTodos: 1,
		TotalChatRooms: 1, TotalMessages: 1,
	}
	if *st != want {
		t.Errorf("stats = %+v, want %+v", *st, want)
	}

	if err := ss.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, _ = ss.Counts(ctx)
	if *st != (model.Stats{}) {
		t.Errorf("stats after reset = %+v, want zero", *st)
	}
}
