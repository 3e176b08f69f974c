package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Client owns the write side of one connection. All frames, acks and
// broadcasts alike, go through the send channel so writes never interleave.
type Client struct {
	session Session
	conn    *websocket.Conn
	send    chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(session Session, conn *websocket.Conn) *Client {
	return &Client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		closed:  make(chan struct{}),
	}
}

// Session returns the connection metadata.
func (c *Client) Session() Session { return c.session }

// Enqueue hands a frame to the write pump without blocking. A full buffer
// means the client cannot keep up, so the connection is dropped rather than
// stalling the broadcaster.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		log.Printf("ws client send buffer full, dropping connection conn_id=%s user_id=%d", c.session.ConnID, c.session.UserID)
		c.Close()
		return false
	}
}

// Close shuts the write pump down and closes the underlying connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// writePump serializes all writes to the connection. Runs until Close.
func (c *Client) writePump() {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("websocket write error: %v", err)
				c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}
