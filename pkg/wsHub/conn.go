package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 5 * time.Second
	sendBufSize = 64
)

var ErrConnClosed = errors.New("connection closed")

// Conn is one websocket subscriber. Outgoing frames are queued on send and written by WritePump.
type Conn struct {
	conn     *websocket.Conn
	entityID uuid.UUID
	send     chan []byte
	doneCtx  context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	once     sync.Once
}

func NewConn(ctx context.Context, entityID uuid.UUID, conn *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(ctx)

	return &Conn{
		conn:     conn,
		entityID: entityID,
		send:     make(chan []byte, sendBufSize),
		doneCtx:  ctx,
		cancel:   cancel,
	}
}

func (c *Conn) ID() uuid.UUID {
	return c.entityID
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.doneCtx.Done()
}

// Enqueue queues payload without blocking. A full buffer drops the frame.
func (c *Conn) Enqueue(payload []byte) bool {
	select {
	case <-c.doneCtx.Done():
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Conn) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("connection is nil")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// Health pings the peer.
func (c *Conn) Health() error {
	select {
	case <-c.doneCtx.Done():
		return ErrConnClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("connection is nil")
	}
	if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// WritePump writes queued frames and pings every pingInterval until the connection ends.
func (c *Conn) WritePump(pingInterval time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.doneCtx.Done():
			return nil
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return fmt.Errorf("write failed: %w", err)
			}
		case <-ticker.C:
			if err := c.Health(); err != nil {
				return err
			}
		}
	}
}

// Listen reads frames until the peer goes away. Reading is required for control frames to be handled.
func (c *Conn) Listen(handler func(msg []byte) error) error {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.doneCtx.Done():
				return nil
			default:
			}
			return fmt.Errorf("read failed: %w", err)
		}
		if handler == nil {
			continue
		}
		if err := handler(msg); err != nil {
			return fmt.Errorf("handler failed: %w", err)
		}
	}
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			err = c.conn.Close()
		}
	})
	return err
}
