package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BioHazard786/duo/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is a wrapper for a single websocket connection.
type Client struct {
	// Hub is the hub that owns this client's membership.
	Hub *Hub

	// Conn is the websocket connection.
	Conn *websocket.Conn

	// ID is the connection identifier handed out in the welcome message.
	ID signaling.ConnID

	// Send is a buffered channel for all outbound messages.
	// The hub writes to it; WritePump drains it to the websocket.
	Send chan *signaling.Message
}

// NewClient wraps conn with a fresh connection id.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  h,
		Conn: conn,
		ID:   signaling.ConnID(uuid.NewString()),
		Send: make(chan *signaling.Message, h.opts.SendBuffer),
	}
}

// Serve registers the client and runs its pumps. It returns false without
// starting anything if the hub has already stopped.
func (c *Client) Serve() bool {
	select {
	case c.Hub.Register <- c:
	case <-c.Hub.done:
		c.Conn.Close()
		return false
	}

	go c.WritePump()
	go c.ReadPump()
	return true
}

func (c *Client) remoteAddr() string {
	if c.Conn == nil {
		return ""
	}
	return c.Conn.RemoteAddr().String()
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	// When this function exits (e.g., connection closes), unregister the client
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.Hub.log.Warn("read failed", "conn", c.ID, "error", err)
			}
			return
		}

		// A bad frame is the sender's problem; the link stays up.
		var msg signaling.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Hub.log.Warn("undecodable frame", "conn", c.ID, "error", err)
			continue
		}

		select {
		case c.Hub.Inbound <- Inbound{Client: c, Message: &msg}:
		case <-c.Hub.done:
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				c.Hub.log.Debug("write failed", "conn", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
