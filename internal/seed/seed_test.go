package seed

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/database"
	"github.com/dukerupert/todochat/internal/model"
	"github.com/dukerupert/todochat/internal/store"
)

func TestRun(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	// Pre-existing rows are wiped.
	if _, err := store.NewUserStore(db).CreateVerified(ctx, "old@example.com", nil, "x"); err != nil {
		t.Fatal(err)
	}

	// Running twice is the same as running once.
	for i := 0; i < 2; i++ {
		got, err := Run(ctx, db, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		want := model.Stats{
			TotalUsers:     2,
			VerifiedUsers:  2,
			TotalTodos:     3,
			TotalChatRooms: 2,
			TotalMessages:  3,
		}
		if *got != want {
			t.Fatalf("run %d: got %+v, want %+v", i, *got, want)
		}
	}

	alice, err := store.NewUserStore(db).GetByEmail(ctx, "alice@example.com")
	if err != nil || alice == nil {
		t.Fatalf("alice missing: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte(Password)); err != nil {
		t.Errorf("seeded password does not match: %v", err)
	}
	if old, _ := store.NewUserStore(db).GetByEmail(ctx, "old@example.com"); old != nil {
		t.Error("expected existing users to be wiped")
	}
}
