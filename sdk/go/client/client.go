// Package client provides a Go SDK for the ticktree monitor: it streams tick
// frames over the websocket endpoint and wraps the JSON API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/core/observability/log"
	"github.com/ticktree/ticktree/internal/core/storage"
	"github.com/ticktree/ticktree/internal/server"
)

// FrameHandler receives every tick frame read from the stream.
type FrameHandler func(frame server.TickFrame)

// EventHandler receives client lifecycle events.
type EventHandler func(event Event)

// EventType represents different types of client events
type EventType string

const (
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeReconnecting EventType = "reconnecting"
	EventTypeError        EventType = "error"
)

// Event represents a client lifecycle event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Attempt   int
	Error     error
}

// Config holds configuration for the client
type Config struct {
	// ServerAddr is "host:port" or a full http(s) base URL.
	ServerAddr string

	ConnectTimeout       time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int

	// FrameBufferSize bounds the Frames channel; the oldest frame is dropped
	// when a slow consumer falls behind.
	FrameBufferSize int

	Logger log.Log
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		ServerAddr:           "localhost:8080",
		ConnectTimeout:       10 * time.Second,
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 5,
		FrameBufferSize:      64,
	}
}

// Client consumes one monitor server: a frame stream plus the JSON API.
type Client struct {
	id      string
	cfg     Config
	logger  log.Log
	httpc   *http.Client
	baseURL string
	wsURL   string

	mu            sync.RWMutex
	conn          *websocket.Conn
	frameHandlers []FrameHandler
	eventHandlers map[EventType][]EventHandler

	frames    chan server.TickFrame
	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a client. It does not connect; call Connect for the frame
// stream. The JSON API calls work without a websocket connection.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = def.ServerAddr
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = def.ReconnectInterval
	}
	if cfg.FrameBufferSize <= 0 {
		cfg.FrameBufferSize = def.FrameBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	base := cfg.ServerAddr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	base = strings.TrimSuffix(base, "/")

	c := &Client{
		id:            uuid.NewString(),
		cfg:           cfg,
		logger:        cfg.Logger.With(log.String("component", "sdk-client")),
		httpc:         &http.Client{Timeout: cfg.ConnectTimeout},
		baseURL:       base,
		wsURL:         "ws" + strings.TrimPrefix(base, "http") + "/ws",
		eventHandlers: make(map[EventType][]EventHandler),
		frames:        make(chan server.TickFrame, cfg.FrameBufferSize),
		done:          make(chan struct{}),
	}
	return c
}

// ID returns the client's identifier.
func (c *Client) ID() string { return c.id }

// Frames returns the tick frame stream. Frames are dropped oldest-first when
// the buffer is full.
func (c *Client) Frames() <-chan server.TickFrame { return c.frames }

// OnFrame registers a handler called synchronously for every frame.
func (c *Client) OnFrame(h FrameHandler) {
	c.mu.Lock()
	c.frameHandlers = append(c.frameHandlers, h)
	c.mu.Unlock()
}

// OnEvent registers a handler for a lifecycle event type.
func (c *Client) OnEvent(t EventType, h EventHandler) {
	c.mu.Lock()
	c.eventHandlers[t] = append(c.eventHandlers[t], h)
	c.mu.Unlock()
}

// Connect opens the websocket stream and starts the read loop. Read errors
// trigger reconnection up to MaxReconnectAttempts.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.connected.CompareAndSwap(false, true) {
		return ErrAlreadyConnected
	}

	c.logger.Info("Connecting to monitor", log.String("url", c.wsURL))

	conn, err := c.dial(ctx)
	if err != nil {
		c.connected.Store(false)
		c.logger.Error("Failed to connect", log.Err(err))
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now()})

	c.wg.Add(1)
	go c.readLoop()
	return nil
}

// Close tears the client down. It is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	close(c.frames)
	c.connected.Store(false)
	c.logger.Info("Client closed")
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		var frame server.TickFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if c.closed.Load() {
				return
			}
			c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now(), Error: err})
			if !c.reconnect() {
				c.connected.Store(false)
				return
			}
			continue
		}
		c.dispatchFrame(frame)
	}
}

// dispatchFrame runs the handlers before buffering, so a frame read from
// Frames() has already been through every handler.
func (c *Client) dispatchFrame(frame server.TickFrame) {
	c.mu.RLock()
	handlers := make([]FrameHandler, len(c.frameHandlers))
	copy(handlers, c.frameHandlers)
	c.mu.RUnlock()
	for _, h := range handlers {
		h(frame)
	}

	select {
	case c.frames <- frame:
	default:
		// drop the oldest buffered frame
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- frame:
		default:
		}
	}
}

// reconnect redials until it succeeds or runs out of attempts. It reports
// whether the read loop should keep going.
func (c *Client) reconnect() bool {
	for attempt := 1; c.cfg.MaxReconnectAttempts <= 0 || attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		c.emitEvent(Event{Type: EventTypeReconnecting, Timestamp: time.Now(), Attempt: attempt})
		c.logger.Debug("Reconnecting", log.Int("attempt", attempt))

		select {
		case <-c.done:
			return false
		case <-time.After(c.cfg.ReconnectInterval):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now(), Attempt: attempt})
			return true
		}
		c.logger.Warn("Reconnect attempt failed", log.Int("attempt", attempt), log.Err(err))
	}

	c.emitEvent(Event{Type: EventTypeError, Timestamp: time.Now(), Error: ErrReconnectFailed})
	return false
}

func (c *Client) emitEvent(ev Event) {
	c.mu.RLock()
	handlers := make([]EventHandler, len(c.eventHandlers[ev.Type]))
	copy(handlers, c.eventHandlers[ev.Type])
	c.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// State fetches /api/state.
func (c *Client) State(ctx context.Context) (*server.StateResponse, error) {
	var st server.StateResponse
	if err := c.getJSON(ctx, "/api/state", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Snapshot fetches /api/snapshot, the last published tick snapshot.
func (c *Client) Snapshot(ctx context.Context) (*bt.Snapshot, error) {
	var snap bt.Snapshot
	if err := c.getJSON(ctx, "/api/snapshot", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// History fetches up to limit persisted tick records, newest first. The
// server answers 404 when it runs without a store.
func (c *Client) History(ctx context.Context, limit int) ([]storage.TickRecord, error) {
	path := "/api/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var recs []storage.TickRecord
	if err := c.getJSON(ctx, path, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// RenderedTree fetches the plain-text tree rendering from /api/tree.
func (c *Client) RenderedTree(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tree", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET /api/tree: unexpected status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Restart asks the server to rebuild its tree.
func (c *Client) Restart(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/restart", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("POST /restart: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
