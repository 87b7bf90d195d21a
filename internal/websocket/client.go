package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/graph"
)

const sendBufferSize = 16

// Client is one subscription connection. The read pump owns the protocol
// state; operations run in their own goroutines and write through send.
type Client struct {
	server *Server
	conn   *ws.Conn
	req    *http.Request
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger

	initialised atomic.Bool
	acked       bool
	ctx         context.Context

	mu  sync.Mutex
	ops map[string]context.CancelFunc
}

func newClient(s *Server, conn *ws.Conn, r *http.Request) *Client {
	return &Client{
		server: s,
		conn:   conn,
		req:    r,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: s.logger,
		ops:    make(map[string]context.CancelFunc),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then cancels every operation.
func (c *Client) Run(ctx context.Context) {
	c.server.hub.Register(c)
	defer c.server.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(c.done)
	c.ctx = ctx

	timer := time.AfterFunc(c.server.initTimeout, func() {
		if !c.initialised.Load() {
			c.close(StatusInitTimeout, "Connection initialisation timeout")
		}
	})
	defer timer.Stop()

	go c.writePump(ctx)
	c.readPump(ctx)
	c.cancelAll()
}

func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var m message
		if err := json.Unmarshal(data, &m); err != nil || m.Type == "" {
			c.close(StatusBadRequest, "Invalid message received")
			return
		}
		if !c.handle(ctx, m) {
			return
		}
	}
}

// handle processes one client message and reports whether the connection
// stays open.
func (c *Client) handle(ctx context.Context, m message) bool {
	switch m.Type {
	case msgConnectionInit:
		if c.initialised.Swap(true) {
			c.close(StatusTooManyInit, "Too many initialisation requests")
			return false
		}
		var params map[string]any
		if len(m.Payload) > 0 && string(m.Payload) != "null" {
			if err := json.Unmarshal(m.Payload, &params); err != nil {
				c.close(StatusBadRequest, "Invalid connection_init payload")
				return false
			}
		}
		caller := c.server.builder.FromConnectionParams(ctx, c.req, params)
		c.ctx = auth.WithCaller(ctx, caller)
		c.acked = true
		c.logger.Debug("subscription connection initialised", "user_id", caller.UserID, "origin", caller.Origin)
		c.enqueue(message{Type: msgConnectionAck})

	case msgPing:
		c.enqueue(message{Type: msgPong, Payload: m.Payload})

	case msgPong:

	case msgSubscribe:
		if !c.acked {
			c.close(StatusUnauthorized, "Unauthorized")
			return false
		}
		var p subscribePayload
		if m.ID == "" || json.Unmarshal(m.Payload, &p) != nil || p.Query == "" {
			c.close(StatusBadRequest, "Invalid subscribe message")
			return false
		}

		c.mu.Lock()
		if _, ok := c.ops[m.ID]; ok {
			c.mu.Unlock()
			c.close(StatusSubscriberExists, "Subscriber for "+m.ID+" already exists")
			return false
		}
		opCtx, cancel := context.WithCancel(c.ctx)
		c.ops[m.ID] = cancel
		c.mu.Unlock()

		go c.execute(opCtx, m.ID, graph.Request{
			Query:         p.Query,
			OperationName: p.OperationName,
			Variables:     p.Variables,
		})

	case msgComplete:
		c.release(m.ID)

	default:
		c.close(StatusBadRequest, "Invalid message received")
		return false
	}
	return true
}

// execute streams one operation's results. A stream that fails before
// producing data is reported with an error message; otherwise results go
// out as next messages followed by complete.
func (c *Client) execute(ctx context.Context, id string, req graph.Request) {
	stream, err := c.server.exec.Subscribe(ctx, req)
	if err != nil {
		c.logger.Error("start subscription", "id", id, "error", err)
		if c.release(id) {
			c.reply(id, msgError, errorPayload(nil))
		}
		return
	}

	first := true
	for resp := range stream {
		if first && len(resp.Data) == 0 && len(resp.Errors) > 0 {
			if c.release(id) {
				c.reply(id, msgError, errorPayload(resp.Errors))
			}
			return
		}
		first = false
		c.reply(id, msgNext, resp)
	}
	if c.release(id) {
		c.reply(id, msgComplete, nil)
	}
}

// release cancels an operation and reports whether it was still running.
func (c *Client) release(id string) bool {
	c.mu.Lock()
	cancel, ok := c.ops[id]
	delete(c.ops, id)
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (c *Client) cancelAll() {
	c.mu.Lock()
	for id, cancel := range c.ops {
		cancel()
		delete(c.ops, id)
	}
	c.mu.Unlock()
}

func (c *Client) reply(id, typ string, payload any) {
	m, err := newMessage(id, typ, payload)
	if err != nil {
		c.logger.Error("encode subscription message", "id", id, "type", typ, "error", err)
		return
	}
	c.enqueue(m)
}

// enqueue blocks until the write pump takes the message or the connection
// ends.
func (c *Client) enqueue(m message) {
	data, err := json.Marshal(m)
	if err != nil {
		c.logger.Error("marshal message", "type", m.Type, "error", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.server.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) close(code ws.StatusCode, reason string) {
	if code != ws.StatusGoingAway {
		c.logger.Warn("closing subscription connection", "code", int(code), "reason", reason)
	}
	c.conn.Close(code, reason)
}
