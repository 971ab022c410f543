package relay

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tangytongues/WatchTogether/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	sendBuffer     = 256
	maxMessageSize = 1 << 20 // 1 MB
)

// SessionState is the per-connection protocol state. Only a join is
// meaningful while unjoined; both terminal transitions run the same
// cleanup path exactly once.
type SessionState int32

const (
	StateUnjoined SessionState = iota
	StateJoined
	StateLeft
)

// Client is one websocket connection. Identity fields are zero until the
// join completes; the router owns all transitions.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu            sync.Mutex
	state         SessionState
	participantID string
	roomID        string
	alive         bool

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		alive: true,
	}
}

func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) ParticipantID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participantID
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) bind(participantID, roomID string) {
	c.mu.Lock()
	c.state = StateJoined
	c.participantID = participantID
	c.roomID = roomID
	c.mu.Unlock()
}

// leave marks the terminal state. Returns the identity held at that moment
// and false if the client had already left (the cleanup path must run once).
func (c *Client) leave() (participantID, roomID string, wasJoined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLeft {
		return "", "", false
	}
	wasJoined = c.state == StateJoined
	c.state = StateLeft
	return c.participantID, c.roomID, wasJoined
}

func (c *Client) markAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

// checkAndClearAlive reports whether a pong arrived since the last scan and
// rearms the flag for the next one.
func (c *Client) checkAndClearAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	alive := c.alive
	c.alive = false
	return alive
}

// Deliver queues a frame for the write pump. Best-effort: a full buffer
// means a consumer too slow to keep, so the connection is closed.
func (c *Client) Deliver(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		log.Warn().Str("participantId", c.ParticipantID()).Msg("relay: slow consumer, closing connection")
		c.Close()
		return false
	}
}

func (c *Client) ping() {
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close tears the transport down. The read pump observes the closed
// connection and drives the disconnect path through the router.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump(ctx context.Context, router *Router, reg *Registry) {
	defer func() {
		reg.Remove(c)
		router.HandleDisconnect(ctx, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		router.HandleFrame(ctx, c, data)
	}
}

func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
			metrics.FramesDelivered.Inc()
		case <-c.done:
			return
		}
	}
}
