package websocket

import (
	"encoding/json"

	ws "github.com/coder/websocket"
	qerrors "github.com/graph-gophers/graphql-go/errors"
)

// Subprotocol is the GraphQL over WebSocket protocol spoken by this server.
const Subprotocol = "graphql-transport-ws"

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

// Close codes defined by the protocol.
const (
	StatusBadRequest       ws.StatusCode = 4400
	StatusUnauthorized     ws.StatusCode = 4401
	StatusInitTimeout      ws.StatusCode = 4408
	StatusSubscriberExists ws.StatusCode = 4409
	StatusTooManyInit      ws.StatusCode = 4429
)

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func newMessage(id, typ string, payload any) (message, error) {
	m := message{ID: id, Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return message{}, err
		}
		m.Payload = data
	}
	return m, nil
}

// errorPayload is the body of an error message: a list of GraphQL errors.
func errorPayload(errs []*qerrors.QueryError) []*qerrors.QueryError {
	if len(errs) == 0 {
		return []*qerrors.QueryError{{Message: "Internal server error"}}
	}
	return errs
}
