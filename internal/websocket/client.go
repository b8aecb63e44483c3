// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/metrics"
	"github.com/lebensschule/journal-edge/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

// Message types for WebSocket communication
const (
	MessageTypeState     = "state"
	MessageTypeError     = "error"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeRecompute = "recompute"
)

// Error codes carried in error frames
const (
	ErrCodeRecomputeFailed     = "RECOMPUTE_FAILED"
	ErrCodeRecomputeInProgress = "RECOMPUTE_IN_PROGRESS"
	ErrCodeInvalidMessage      = "INVALID_MESSAGE"
	ErrCodeUnknownMessage      = "UNKNOWN_MESSAGE"
	ErrCodeUnavailable         = "ANALYSIS_UNAVAILABLE"
)

// Message is a WebSocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ErrorData is the payload of an error frame.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// clientIDCounter orders clients for deterministic shutdown.
var clientIDCounter atomic.Uint64

// Client connects one WebSocket to one analysis view.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	view   *analysis.View
	ctx    context.Context
	cancel context.CancelFunc

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for conn observing view. ctx carries logging
// fields; it must outlive the HTTP request.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, view *analysis.View) *Client {
	cctx, cancel := context.WithCancel(ctx)
	return &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		conn:   conn,
		view:   view,
		ctx:    cctx,
		cancel: cancel,
		send:   make(chan Message, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start subscribes to the view, starts both pumps and opens the view.
func (c *Client) Start() {
	c.view.Subscribe(func(s models.State) {
		c.enqueue(Message{Type: MessageTypeState, Data: s})
	})
	go c.writePump()
	go c.readPump()
	go c.open()
}

// Close tears the client down. The view is closed, which stops polling and
// discards in-flight fetches. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.view.Close()
	})
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) open() {
	if _, err := c.view.Open(c.ctx); err != nil && !c.closed() && !errors.Is(err, analysis.ErrViewClosed) {
		logging.Ctx(c.ctx).Warn().Err(err).Msg("Opening analysis view failed")
		c.sendError(ErrCodeUnavailable, "Analysis could not be loaded")
	}
}

func (c *Client) recompute() {
	_, err := c.view.Recompute(c.ctx)
	switch {
	case err == nil,
		errors.Is(err, analysis.ErrAnalysisPending),
		errors.Is(err, analysis.ErrViewClosed):
	case errors.Is(err, analysis.ErrRecomputeInProgress):
		c.sendError(ErrCodeRecomputeInProgress, "A recompute is already running")
	default:
		if c.closed() {
			return
		}
		c.sendError(ErrCodeRecomputeFailed, "Recompute failed, please try again")
	}
}

func (c *Client) sendError(code, message string) {
	c.enqueue(Message{Type: MessageTypeError, Data: ErrorData{Code: code, Message: message}})
}

// enqueue queues msg without blocking. It runs under the view's lock for
// state frames, so an overflowing client is closed asynchronously.
func (c *Client) enqueue(msg Message) {
	if c.closed() {
		return
	}
	select {
	case c.send <- msg:
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		logging.Ctx(c.ctx).Warn().Uint64("client_id", c.id).Msg("websocket send buffer full, disconnecting client")
		go c.Close()
	}
}

// readPump reads client frames until the connection fails or closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Ctx(c.ctx).Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Ctx(c.ctx).Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Frame is not valid JSON")
			continue
		}

		switch msg.Type {
		case MessageTypePing:
			c.enqueue(Message{Type: MessageTypePong})
		case MessageTypeRecompute:
			go c.recompute()
		default:
			c.sendError(ErrCodeUnknownMessage, "Unknown message type: "+msg.Type)
		}
	}
}

// writePump writes queued frames and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				logging.Ctx(c.ctx).Debug().Err(err).Msg("failed to write websocket frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Client) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.WSMessagesSent.Inc()
	return nil
}
