package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/dukerupert/todochat/internal/model"
)

func (r *Resolver) Todos(ctx context.Context) ([]*TodoResolver, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	todos, err := r.todos.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return r.todoResolvers(todos), nil
}

type idArgs struct {
	ID graphql.ID
}

func (r *Resolver) Todo(ctx context.Context, args idArgs) (*TodoResolver, error) {
	t, err := r.ownedTodo(ctx, args.ID, "access")
	if err != nil {
		return nil, err
	}
	return &TodoResolver{r: r, t: t}, nil
}

type createTodoArgs struct {
	Title       string
	Description *string
}

func (r *Resolver) CreateTodo(ctx context.Context, args createTodoArgs) (*TodoResolver, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	t, err := r.todos.Create(ctx, u.ID, args.Title, args.Description)
	if err != nil {
		return nil, err
	}
	return &TodoResolver{r: r, t: t}, nil
}

type updateTodoArgs struct {
	ID          graphql.ID
	Title       *string
	Description graphql.NullString
	Completed   *bool
}

// UpdateTodo applies only the fields that were supplied. An explicit null
// description clears it.
func (r *Resolver) UpdateTodo(ctx context.Context, args updateTodoArgs) (*TodoResolver, error) {
	existing, err := r.ownedTodo(ctx, args.ID, "update")
	if err != nil {
		return nil, err
	}
	t, err := r.todos.Update(ctx, existing.ID, model.TodoPatch{
		Title:            args.Title,
		Description:      args.Description.Value,
		ClearDescription: args.Description.Set && args.Description.Value == nil,
		Completed:        args.Completed,
	})
	if err != nil {
		return nil, err
	}
	return &TodoResolver{r: r, t: t}, nil
}

func (r *Resolver) DeleteTodo(ctx context.Context, args idArgs) (bool, error) {
	existing, err := r.ownedTodo(ctx, args.ID, "delete")
	if err != nil {
		return false, err
	}
	if err := r.todos.Delete(ctx, existing.ID); err != nil {
		return false, err
	}
	return true, nil
}

// ownedTodo loads a todo the caller owns. Missing todos are NOT_FOUND and
// other users' todos are FORBIDDEN.
func (r *Resolver) ownedTodo(ctx context.Context, id graphql.ID, action string) (*model.Todo, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	todoID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	t, err := r.todos.GetByID(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("Todo")
	}
	if t.UserID != u.ID {
		return nil, newError(CodeForbidden, "You do not have permission to "+action+" this todo")
	}
	return t, nil
}
