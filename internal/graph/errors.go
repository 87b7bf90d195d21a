package graph

import (
	"errors"
	"strconv"

	"github.com/graph-gophers/graphql-go"
)

// Code is the machine-readable error code placed in extensions.code.
type Code string

const (
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeBadUserInput        Code = "BAD_USER_INPUT"
	CodeTooManyRequests     Code = "TOO_MANY_REQUESTS"
	CodeEmailDeliveryFailed Code = "EMAIL_DELIVERY_FAILED"
	CodeInternal            Code = "INTERNAL_SERVER_ERROR"
)

const internalMessage = "Internal server error"

// Error is a resolver error that reaches the client with its code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Extensions is read by graphql-go when building the response.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

var (
	errAuthRequired = newError(CodeUnauthenticated, "You must be logged in to perform this action")
	errInvalidID    = newError(CodeBadUserInput, "Invalid ID")
)

func notFound(what string) *Error {
	return newError(CodeNotFound, what+" not found")
}

func parseID(id graphql.ID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, errInvalidID
	}
	return n, nil
}

func formatID(id int64) graphql.ID {
	return graphql.ID(strconv.FormatInt(id, 10))
}
