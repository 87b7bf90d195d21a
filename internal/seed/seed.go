package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/model"
	"github.com/dukerupert/todochat/internal/store"
)

// Password is the password of every seeded user.
const Password = "password123"

type todo struct {
	owner       int
	title       string
	description string
}

type post struct {
	author  int
	room    int
	content string
}

var (
	seedUsers = []struct{ username, email string }{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
	}
	seedTodos = []todo{
		{0, "Learn GraphQL", "Study schema design and resolvers"},
		{0, "Build a chat app", "Implement real-time messaging with subscriptions"},
		{1, "Learn SQLite", "Get comfortable with migrations and queries"},
	}
	seedRooms = []string{"General", "Tech Talk"}
	seedPosts = []post{
		{0, 0, "Hello everyone!"},
		{1, 0, "Hi Alice, welcome to the chat!"},
		{0, 1, "Has anyone tried the new GraphQL features?"},
	}
)

// Run wipes every table and loads the demo data set. Seeded users are
// already verified so they can log in straight away.
func Run(ctx context.Context, db *sql.DB, cost int) (*model.Stats, error) {
	stats := store.NewStatsStore(db)
	users := store.NewUserStore(db)
	todos := store.NewTodoStore(db)
	chat := store.NewChatStore(db)

	if err := stats.Reset(ctx); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var userIDs []int64
	for _, su := range seedUsers {
		username := su.username
		u, err := users.CreateVerified(ctx, su.email, &username, string(hash))
		if err != nil {
			return nil, err
		}
		userIDs = append(userIDs, u.ID)
	}

	for _, t := range seedTodos {
		description := t.description
		if _, err := todos.Create(ctx, userIDs[t.owner], t.title, &description); err != nil {
			return nil, err
		}
	}

	var roomIDs []int64
	for _, name := range seedRooms {
		room, err := chat.CreateRoom(ctx, name)
		if err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, room.ID)
	}

	for _, p := range seedPosts {
		if _, err := chat.CreateMessage(ctx, userIDs[p.author], roomIDs[p.room], p.content); err != nil {
			return nil, err
		}
	}

	return stats.Counts(ctx)
}
