package graph

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/graph-gophers/graphql-go"
	qerrors "github.com/graph-gophers/graphql-go/errors"
)

//go:embed schema.graphql
var Schema string

const maxQueryDepth = 12

// Request is a GraphQL operation as sent over HTTP or in a subscribe message.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Executor runs operations against the schema and normalizes their errors:
// every error carries extensions.code, and in production internal messages
// are replaced.
type Executor struct {
	schema     *graphql.Schema
	production bool
	logger     *slog.Logger
}

func NewExecutor(r *Resolver, production bool, logger *slog.Logger) (*Executor, error) {
	schema, err := graphql.ParseSchema(Schema, r,
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{logger}),
		graphql.PanicHandler(panicHandler{}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &Executor{schema: schema, production: production, logger: logger}, nil
}

// Exec runs a query or mutation.
func (e *Executor) Exec(ctx context.Context, req Request) *graphql.Response {
	resp := e.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	e.format(ctx, resp)
	return resp
}

// Subscribe starts an operation and streams its responses. Queries and
// mutations yield a single response. The channel closes when the operation
// ends or ctx is cancelled.
func (e *Executor) Subscribe(ctx context.Context, req Request) (<-chan *graphql.Response, error) {
	upstream, err := e.schema.Subscribe(ctx, req.Query, req.OperationName, req.Variables)
	if err != nil {
		return nil, err
	}

	out := make(chan *graphql.Response)
	go func() {
		defer close(out)
		// Drain upstream fully so the library's forwarding goroutine exits.
		for v := range upstream {
			resp, ok := v.(*graphql.Response)
			if !ok {
				continue
			}
			e.format(ctx, resp)
			select {
			case out <- resp:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (e *Executor) format(ctx context.Context, resp *graphql.Response) {
	for _, qe := range resp.Errors {
		code := classify(qe)
		if code == CodeInternal {
			e.logger.ErrorContext(ctx, "graphql internal error", "message", qe.Message, "path", qe.Path)
			if e.production {
				qe.Message = internalMessage
			}
		}
		qe.Extensions = map[string]interface{}{"code": string(code)}
	}
}

// classify picks the code for an error produced anywhere in execution.
// Resolver errors carry their own code or are internal; errors raised before
// execution (syntax, validation, unknown operation) are the client's fault.
func classify(qe *qerrors.QueryError) Code {
	if qe.ResolverError != nil {
		return CodeOf(qe.ResolverError)
	}
	if c, ok := qe.Extensions["code"].(string); ok && c != "" {
		return Code(c)
	}
	if errors.Is(qe.Err, context.Canceled) || errors.Is(qe.Err, context.DeadlineExceeded) {
		return CodeInternal
	}
	if len(qe.Path) > 0 {
		return CodeInternal
	}
	return CodeBadUserInput
}

type panicHandler struct{}

func (panicHandler) MakePanicError(_ context.Context, value interface{}) *qerrors.QueryError {
	return &qerrors.QueryError{
		Message:    fmt.Sprintf("panic occurred: %v", value),
		Extensions: map[string]interface{}{"code": string(CodeInternal)},
	}
}

type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", "panic", value, "stack", string(debug.Stack()))
}
