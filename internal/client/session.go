package client

import (
	"context"
	"log/slog"

	"github.com/BioHazard786/duo/internal/signaling"
)

// Session is a connected client, its handler, and the connection id the
// server assigned.
type Session struct {
	Client  *Client
	Handler *Handler
	ID      signaling.ConnID
}

// Dial connects to the relay and waits for the welcome message.
func Dial(ctx context.Context, serverURL string, logger *slog.Logger) (*Session, error) {
	c := NewClient(serverURL, logger)
	if err := c.Connect(ctx); err != nil {
		return nil, NewError("connect to server", err)
	}

	h := NewHandler(c)
	go h.Start()

	s := &Session{Client: c, Handler: h}
	select {
	case id := <-h.Welcome:
		s.ID = id
		return s, nil
	case <-h.Closed:
		c.Close()
		return nil, NewError("connect to server", ErrServerClosed)
	case <-ctx.Done():
		c.Close()
		return nil, WrapError("connect to server", ErrTimeout, ctx.Err().Error())
	}
}

// Join asks for a seat in room and returns the member count reported by
// the server.
func (s *Session) Join(ctx context.Context, room, peerID string) (int, error) {
	payload := map[string]string{"roomId": room}
	if peerID != "" {
		payload["peerId"] = peerID
	}
	if err := s.Client.Send(signaling.EventJoinRoom, payload); err != nil {
		return 0, err
	}

	for {
		select {
		case n := <-s.Handler.RoomCount:
			return n, nil
		case full := <-s.Handler.RoomFull:
			if full != room {
				continue
			}
			return 0, WrapError("join room", ErrRoomFull, room)
		case <-s.Handler.Closed:
			return 0, NewError("join room", ErrServerClosed)
		case <-ctx.Done():
			return 0, WrapError("join room", ErrTimeout, ctx.Err().Error())
		}
	}
}

// Leave gives up the current room seat. The server does not acknowledge it.
func (s *Session) Leave() error {
	return s.Client.Send(signaling.EventLeaveRoom, nil)
}

// Close tears down the connection.
func (s *Session) Close() {
	s.Client.Close()
}
