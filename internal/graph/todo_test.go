package graph

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type todoJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	User        struct {
		Email string `json:"email"`
	} `json:"user"`
}

const createTodoMutation = `mutation($title: String!, $description: String) {
  createTodo(title: $title, description: $description) { id title description completed user { email } }
}`

func TestTodosRequireAuthentication(t *testing.T) {
	h := newHarness(t)

	queries := []string{
		`{ todos { id } }`,
		`{ todo(id: "1") { id } }`,
		`mutation { createTodo(title: "x") { id } }`,
		`mutation { updateTodo(id: "1", completed: true) { id } }`,
		`mutation { deleteTodo(id: "1") }`,
	}
	for _, q := range queries {
		assert.Equal(t, "UNAUTHENTICATED", h.errCode(h.anon(), q, nil), q)
	}
}

func TestTodoLifecycle(t *testing.T) {
	h := newHarness(t)
	u := h.createUser("kim@example.com", false)
	ctx := h.as(u)

	var created struct {
		CreateTodo todoJSON `json:"createTodo"`
	}
	h.mustDo(ctx, createTodoMutation, map[string]interface{}{"title": "Buy milk", "description": "2 litres"}, &created)
	assert.Equal(t, "Buy milk", created.CreateTodo.Title)
	require.NotNil(t, created.CreateTodo.Description)
	assert.Equal(t, "2 litres", *created.CreateTodo.Description)
	assert.False(t, created.CreateTodo.Completed)
	assert.Equal(t, "kim@example.com", created.CreateTodo.User.Email)
	id := created.CreateTodo.ID

	var second struct {
		CreateTodo todoJSON `json:"createTodo"`
	}
	h.mustDo(ctx, createTodoMutation, map[string]interface{}{"title": "Walk dog"}, &second)
	assert.Nil(t, second.CreateTodo.Description)

	var list struct {
		Todos []todoJSON `json:"todos"`
	}
	h.mustDo(ctx, `{ todos { id title } }`, nil, &list)
	require.Len(t, list.Todos, 2)
	assert.Equal(t, "Walk dog", list.Todos[0].Title, "newest first")
	assert.Equal(t, "Buy milk", list.Todos[1].Title)

	// Only supplied fields change.
	var updated struct {
		UpdateTodo todoJSON `json:"updateTodo"`
	}
	h.mustDo(ctx, `mutation($id: ID!) { updateTodo(id: $id, completed: true) { id title description completed } }`,
		map[string]interface{}{"id": id}, &updated)
	assert.True(t, updated.UpdateTodo.Completed)
	assert.Equal(t, "Buy milk", updated.UpdateTodo.Title)
	require.NotNil(t, updated.UpdateTodo.Description)
	assert.Equal(t, "2 litres", *updated.UpdateTodo.Description)

	// Omitting description keeps it, an explicit null clears it.
	var renamed struct {
		UpdateTodo todoJSON `json:"updateTodo"`
	}
	h.mustDo(ctx, `mutation($id: ID!) { updateTodo(id: $id, title: "Buy oat milk") { title description } }`,
		map[string]interface{}{"id": id}, &renamed)
	assert.Equal(t, "Buy oat milk", renamed.UpdateTodo.Title)
	require.NotNil(t, renamed.UpdateTodo.Description)
	assert.Equal(t, "2 litres", *renamed.UpdateTodo.Description)

	var cleared struct {
		UpdateTodo todoJSON `json:"updateTodo"`
	}
	h.mustDo(ctx, `mutation($id: ID!) { updateTodo(id: $id, description: null) { title description completed } }`,
		map[string]interface{}{"id": id}, &cleared)
	assert.Nil(t, cleared.UpdateTodo.Description)
	assert.Equal(t, "Buy oat milk", cleared.UpdateTodo.Title)
	assert.True(t, cleared.UpdateTodo.Completed)

	var deleted struct {
		DeleteTodo bool `json:"deleteTodo"`
	}
	h.mustDo(ctx, `mutation($id: ID!) { deleteTodo(id: $id) }`, map[string]interface{}{"id": id}, &deleted)
	assert.True(t, deleted.DeleteTodo)

	assert.Equal(t, "NOT_FOUND", h.errCode(ctx, `query($id: ID!) { todo(id: $id) { id } }`, map[string]interface{}{"id": id}))
}

func TestTodoOwnership(t *testing.T) {
	h := newHarness(t)
	owner := h.createUser("owner@example.com", false)
	other := h.createUser("other@example.com", false)

	var created struct {
		CreateTodo todoJSON `json:"createTodo"`
	}
	h.mustDo(h.as(owner), createTodoMutation, map[string]interface{}{"title": "private"}, &created)
	vars := map[string]interface{}{"id": created.CreateTodo.ID}

	tests := []struct {
		name  string
		query string
	}{
		{"read", `query($id: ID!) { todo(id: $id) { id } }`},
		{"update", `mutation($id: ID!) { updateTodo(id: $id, title: "mine now") { id } }`},
		{"delete", `mutation($id: ID!) { deleteTodo(id: $id) }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "FORBIDDEN", h.errCode(h.as(other), tt.query, vars))
		})
	}

	// Untouched by the refused attempts.
	var got struct {
		Todo todoJSON `json:"todo"`
	}
	h.mustDo(h.as(owner), `query($id: ID!) { todo(id: $id) { title } }`, vars, &got)
	assert.Equal(t, "private", got.Todo.Title)

	// Other users' todos are not listed.
	var list struct {
		Todos []todoJSON `json:"todos"`
	}
	h.mustDo(h.as(other), `{ todos { id } }`, nil, &list)
	assert.Empty(t, list.Todos)
}

func TestTodoMissingAndInvalidID(t *testing.T) {
	h := newHarness(t)
	u := h.createUser("lee@example.com", false)

	assert.Equal(t, "NOT_FOUND", h.errCode(h.as(u), `{ todo(id: "999") { id } }`, nil))
	assert.Equal(t, "BAD_USER_INPUT", h.errCode(h.as(u), `{ todo(id: "abc") { id } }`, nil))
}

func TestUserTodosOnlyForSelf(t *testing.T) {
	h := newHarness(t)
	u := h.createUser("mo@example.com", false)
	h.mustDo(h.as(u), createTodoMutation, map[string]interface{}{"title": "mine"}, nil)

	var me struct {
		Me struct {
			ID    string      `json:"id"`
			Todos *[]todoJSON `json:"todos"`
		} `json:"me"`
	}
	h.mustDo(h.as(u), `{ me { id todos { title } } }`, nil, &me)
	assert.Equal(t, strconv.FormatInt(u.ID, 10), me.Me.ID)
	require.NotNil(t, me.Me.Todos)
	require.Len(t, *me.Me.Todos, 1)
	assert.Equal(t, "mine", (*me.Me.Todos)[0].Title)

	// Seen by anyone else, the list is hidden.
	admin := h.createUser("admin@example.com", true)
	var users struct {
		AllUsers []struct {
			Email string      `json:"email"`
			Todos *[]todoJSON `json:"todos"`
		} `json:"allUsers"`
	}
	h.mustDo(h.as(admin), `{ allUsers { email todos { title } } }`, nil, &users)
	for _, row := range users.AllUsers {
		if row.Email == "mo@example.com" {
			assert.Nil(t, row.Todos)
		}
	}
}
