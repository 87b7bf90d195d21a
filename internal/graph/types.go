package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/graphql-go"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/model"
)

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type UserResolver struct {
	r *Resolver
	u *model.User
}

func (u *UserResolver) ID() graphql.ID    { return formatID(u.u.ID) }
func (u *UserResolver) Username() *string { return u.u.Username }
func (u *UserResolver) Email() string     { return u.u.Email }
func (u *UserResolver) CreatedAt() string { return timestamp(u.u.CreatedAt) }
func (u *UserResolver) IsVerified() bool  { return u.u.IsVerified }
func (u *UserResolver) IsAdmin() bool     { return u.u.IsAdmin }

// Todos is null unless the caller is looking at their own record.
func (u *UserResolver) Todos(ctx context.Context) (*[]*TodoResolver, error) {
	if auth.UserID(ctx) != u.u.ID {
		return nil, nil
	}
	todos, err := u.r.todos.ListByUser(ctx, u.u.ID)
	if err != nil {
		return nil, err
	}
	out := u.r.todoResolvers(todos)
	return &out, nil
}

type TodoResolver struct {
	r *Resolver
	t *model.Todo
}

func (t *TodoResolver) ID() graphql.ID       { return formatID(t.t.ID) }
func (t *TodoResolver) Title() string        { return t.t.Title }
func (t *TodoResolver) Description() *string { return t.t.Description }
func (t *TodoResolver) Completed() bool      { return t.t.Completed }
func (t *TodoResolver) CreatedAt() string    { return timestamp(t.t.CreatedAt) }
func (t *TodoResolver) UpdatedAt() string    { return timestamp(t.t.UpdatedAt) }

func (t *TodoResolver) User(ctx context.Context) (*UserResolver, error) {
	u, err := t.r.users.GetByID(ctx, t.t.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("todo %d: owner %d missing", t.t.ID, t.t.UserID)
	}
	return &UserResolver{r: t.r, u: u}, nil
}

type ChatRoomResolver struct {
	r    *Resolver
	room *model.ChatRoom
}

func (c *ChatRoomResolver) ID() graphql.ID    { return formatID(c.room.ID) }
func (c *ChatRoomResolver) Name() string      { return c.room.Name }
func (c *ChatRoomResolver) CreatedAt() string { return timestamp(c.room.CreatedAt) }

func (c *ChatRoomResolver) Messages(ctx context.Context) (*[]*MessageResolver, error) {
	msgs, err := c.r.chat.ListMessages(ctx, c.room.ID)
	if err != nil {
		return nil, err
	}
	out := c.r.messageResolvers(msgs)
	return &out, nil
}

// MessageResolver serves author and room from the joined row, so published
// messages resolve without touching the database.
type MessageResolver struct {
	r *Resolver
	m *model.Message
}

func (m *MessageResolver) ID() graphql.ID    { return formatID(m.m.ID) }
func (m *MessageResolver) Content() string   { return m.m.Content }
func (m *MessageResolver) CreatedAt() string { return timestamp(m.m.CreatedAt) }

func (m *MessageResolver) User() *UserResolver {
	return &UserResolver{r: m.r, u: &m.m.Author}
}

func (m *MessageResolver) Room() *ChatRoomResolver {
	return &ChatRoomResolver{r: m.r, room: &m.m.Room}
}

type AuthPayloadResolver struct {
	token string
	user  *UserResolver
}

func (a *AuthPayloadResolver) Token() string       { return a.token }
func (a *AuthPayloadResolver) User() *UserResolver { return a.user }

type VerificationResultResolver struct {
	success bool
	message *string
}

func verificationResult(message string) *VerificationResultResolver {
	return &VerificationResultResolver{success: true, message: &message}
}

func (v *VerificationResultResolver) Success() bool    { return v.success }
func (v *VerificationResultResolver) Message() *string { return v.message }

type AdminStatsResolver struct {
	s *model.Stats
}

func (a *AdminStatsResolver) TotalUsers() int32     { return int32(a.s.TotalUsers) }
func (a *AdminStatsResolver) VerifiedUsers() int32  { return int32(a.s.VerifiedUsers) }
func (a *AdminStatsResolver) TotalTodos() int32     { return int32(a.s.TotalTodos) }
func (a *AdminStatsResolver) CompletedTodos() int32 { return int32(a.s.CompletedTodos) }
func (a *AdminStatsResolver) TotalChatRooms() int32 { return int32(a.s.TotalChatRooms) }
func (a *AdminStatsResolver) TotalMessages() int32  { return int32(a.s.TotalMessages) }

type AdminLoginResponseResolver struct {
	token string
}

func (a *AdminLoginResponseResolver) Token() string { return a.token }
func (a *AdminLoginResponseResolver) Success() bool { return true }

func (r *Resolver) userResolvers(users []model.User) []*UserResolver {
	out := make([]*UserResolver, len(users))
	for i := range users {
		out[i] = &UserResolver{r: r, u: &users[i]}
	}
	return out
}

func (r *Resolver) todoResolvers(todos []model.Todo) []*TodoResolver {
	out := make([]*TodoResolver, len(todos))
	for i := range todos {
		out[i] = &TodoResolver{r: r, t: &todos[i]}
	}
	return out
}

func (r *Resolver) roomResolvers(rooms []model.ChatRoom) []*ChatRoomResolver {
	out := make([]*ChatRoomResolver, len(rooms))
	for i := range rooms {
		out[i] = &ChatRoomResolver{r: r, room: &rooms[i]}
	}
	return out
}

func (r *Resolver) messageResolvers(msgs []model.Message) []*MessageResolver {
	out := make([]*MessageResolver, len(msgs))
	for i := range msgs {
		out[i] = &MessageResolver{r: r, m: &msgs[i]}
	}
	return out
}
