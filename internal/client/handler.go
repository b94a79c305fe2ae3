package client

import (
	"github.com/BioHazard786/duo/internal/signaling"
)

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client     *Client
	Welcome    chan signaling.ConnID
	RoomCount  chan int
	RoomFull   chan string
	PeerJoined chan signaling.UserConnected
	PeerLeft   chan string
	Signal     chan *signaling.Message

	// Closed is closed once the server connection is gone.
	Closed chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:     client,
		Welcome:    make(chan signaling.ConnID, 1),
		RoomCount:  make(chan int, 4),
		RoomFull:   make(chan string, 4),
		PeerJoined: make(chan signaling.UserConnected, 4),
		PeerLeft:   make(chan string, 4),
		Signal:     make(chan *signaling.Message, 64),
		Closed:     make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It
// returns when the connection ends.
func (h *Handler) Start() {
	defer close(h.Closed)

	for msg := range h.client.Incoming() {
		if err := h.route(msg); err != nil {
			h.client.log.Warn("ignoring server message", "type", msg.Type, "error", err)
		}
	}
}

func (h *Handler) route(msg *signaling.Message) error {
	done := h.client.done

	switch msg.Type {
	case signaling.EventWelcome:
		var w signaling.Welcome
		if err := decodePayload(msg, &w); err != nil {
			return err
		}
		push(done, h.Welcome, w.ConnectionID)

	case signaling.EventRoomCount:
		var n int
		if err := decodePayload(msg, &n); err != nil {
			return err
		}
		push(done, h.RoomCount, n)

	case signaling.EventRoomFull:
		var room string
		if err := decodePayload(msg, &room); err != nil {
			return err
		}
		push(done, h.RoomFull, room)

	case signaling.EventUserConnected:
		var uc signaling.UserConnected
		if err := decodePayload(msg, &uc); err != nil {
			return err
		}
		push(done, h.PeerJoined, uc)

	case signaling.EventUserDisconnected:
		var peer string
		if err := decodePayload(msg, &peer); err != nil {
			return err
		}
		push(done, h.PeerLeft, peer)

	default:
		if !signaling.IsSignal(msg.Type) {
			h.client.log.Debug("unknown server message", "type", msg.Type)
			return nil
		}
		push(done, h.Signal, msg)
	}
	return nil
}

// push delivers v unless the client is shutting down.
func push[T any](done <-chan struct{}, ch chan T, v T) {
	select {
	case ch <- v:
	case <-done:
	}
}
