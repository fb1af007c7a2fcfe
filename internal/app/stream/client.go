package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/user"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 512

	// sendBuffer is how many frames may wait for the writer before the
	// client is considered too slow and dropped.
	sendBuffer = 64
)

// Presence is what a connection needs from the presence tracker.
type Presence interface {
	Heartbeat(ctx context.Context, userID string) error
	Run(ctx context.Context, userID string, interval time.Duration)
}

// Options configure the background work of a client.
type Options struct {
	Bus               *fanout.Bus
	Presence          Presence
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	Clock             clock.Clock
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// user is nil for a connection without a session.
	user *user.User
	opts Options

	// send queues encoded frames for the WritePump.
	send chan []byte

	// quit is closed to make the WritePump say goodbye and exit.
	quit     chan struct{}
	quitOnce sync.Once

	// ctx scopes the heartbeat and watch loops to the connection.
	ctx    context.Context
	cancel context.CancelFunc

	logger zerolog.Logger
}

// NewClient constructs a Client for conn. u may be nil.
func NewClient(hub *Hub, conn *websocket.Conn, u *user.User, opts Options) *Client {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}

	logCtx := logx.Logger().With().Str("component", "stream.client")
	if u != nil {
		logCtx = logCtx.Str("user_id", u.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:    hub,
		conn:   conn,
		user:   u,
		opts:   opts,
		send:   make(chan []byte, sendBuffer),
		quit:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: logCtx.Logger(),
	}
}

// Serve registers the client and runs it until the connection ends. It
// blocks in the ReadPump.
func (c *Client) Serve() {
	if !c.hub.add(c) {
		c.logger.Warn().Msg("Stream hub is stopped; refusing connection.")
		_ = c.conn.Close()
		return
	}

	go c.WritePump()

	hello := HelloData{PollInterval: c.opts.PollInterval.Milliseconds()}
	if c.user != nil {
		hello.UserID = c.user.ID
		go c.opts.Presence.Run(c.ctx, c.user.ID, c.opts.HeartbeatInterval)
	}
	c.Queue(FrameHello, hello)

	go fanout.Watch(c.ctx, c.opts.Bus, c.opts.PollInterval, c.refresh)

	c.ReadPump()
}

// Queue encodes and queues a frame. A client whose queue is full is closed
// rather than allowed to hold everyone else up.
func (c *Client) Queue(t FrameType, data any) bool {
	payload, err := encode(Frame{Type: t, Timestamp: clock.Millis(c.opts.Clock()), Data: data})
	if err != nil {
		c.logger.Error().Err(err).Str("frame_type", string(t)).Msg("Failed to encode frame.")
		return false
	}

	select {
	case <-c.quit:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn().Msg("Send queue full. Dropping slow client.")
		c.Close()
		return false
	}
}

// Close stops the background loops and tells the WritePump to close the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.quitOnce.Do(func() {
		c.cancel()
		close(c.quit)
	})
}

func (c *Client) refresh(_ context.Context, category fanout.Category) {
	c.Queue(frameFor(category), nil)
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong) and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.hub.remove(c)
	c.Close()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

func (c *Client) processInboundMessage(messageBytes []byte) {
	var msg inbound
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch msg.Type {
	case inboundHeartbeat:
		if c.user == nil {
			return
		}
		if err := c.opts.Presence.Heartbeat(c.ctx, c.user.ID); err != nil {
			c.logger.Warn().Err(err).Msg("Heartbeat failed.")
		}

	default:
		c.logger.Warn().Str("msg_type", msg.Type).Msg("Client sent unsupported message type")
	}
}

// WritePump handles writing frames from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.write(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.quit:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// write sends one message and reports whether the WritePump should go on.
func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing message")
		return false
	}

	return true
}
