package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/BioHazard786/duo/internal/signaling"
)

var (
	// ErrGone means the recipient has no live client.
	ErrGone = errors.New("recipient gone")

	// ErrSlowConsumer means the recipient's send buffer is full.
	ErrSlowConsumer = errors.New("recipient send buffer full")
)

// Inbound is one message read from a client, waiting for the hub.
type Inbound struct {
	Client  *Client
	Message *signaling.Message
}

// Stats is a point-in-time view of the hub for health checks.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Dropped records one notification that could not be handed to its
// recipient.
type Dropped struct {
	Conn  signaling.ConnID
	Event string
	Err   error
}

// Delivery reports the outcome of emitting a batch of outbound events.
// Drops never undo the state change that produced the batch.
type Delivery struct {
	Delivered int
	Dropped   []Dropped
}

// Hub is the central brain of the signaling server.
// It owns the connection registry and room table and applies every
// event to them from a single goroutine.
type Hub struct {
	state   *signaling.State
	clients map[signaling.ConnID]*Client

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for clients whose link has closed.
	Unregister chan *Client

	// Inbound carries every message read from a client.
	Inbound chan Inbound

	opts Options
	log  *slog.Logger
	done chan struct{}

	rooms atomic.Int64
	conns atomic.Int64
}

// Options tunes per-client buffers and limits.
type Options struct {
	// SendBuffer is the capacity of each client's outbound queue.
	SendBuffer int

	// MaxMessageSize is the largest frame accepted from a client.
	MaxMessageSize int64
}

// DefaultOptions matches the limits the server ships with.
var DefaultOptions = Options{
	SendBuffer:     256,
	MaxMessageSize: 64 * 1024,
}

// New creates a Hub. Zero fields in opts fall back to DefaultOptions.
func New(opts Options, logger *slog.Logger) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions.SendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultOptions.MaxMessageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		state:      signaling.NewState(),
		clients:    make(map[signaling.ConnID]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan Inbound),
		opts:       opts,
		log:        logger,
		done:       make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Stats returns the room and connection counts as of the last processed
// event. It never waits on the hub loop.
func (h *Hub) Stats() Stats {
	return Stats{
		Rooms:       int(h.rooms.Load()),
		Connections: int(h.conns.Load()),
	}
}

// Run starts the hub's main processing loop. It returns when ctx is
// cancelled, after closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case in := <-h.Inbound:
			h.handleInbound(in.Client, in.Message)
		}

		h.rooms.Store(int64(h.state.RoomCount()))
		h.conns.Store(int64(h.state.ConnectionCount()))
	}
}

func (h *Hub) handleRegister(client *Client) {
	if err := h.state.Register(client.ID); err != nil {
		h.log.Error("register failed", "conn", client.ID, "error", err)
		close(client.Send)
		return
	}
	h.clients[client.ID] = client
	h.log.Debug("client registered", "conn", client.ID, "remote", client.remoteAddr())

	h.dispatch([]signaling.Outbound{{
		To:      signaling.Unicast(client.ID),
		Event:   signaling.EventWelcome,
		Payload: signaling.Welcome{ConnectionID: client.ID},
	}})
}

func (h *Hub) handleUnregister(client *Client) {
	if h.clients[client.ID] != client {
		return
	}
	delete(h.clients, client.ID)

	prior, _ := h.state.Connection(client.ID)
	out := h.state.Disconnect(client.ID)
	h.dispatch(out)
	if prior.Joined() {
		h.logRoom("left", prior.Room, client.ID)
	}
	h.log.Debug("client unregistered", "conn", client.ID)

	// Stops the client's WritePump.
	close(client.Send)
}

func (h *Hub) handleInbound(client *Client, msg *signaling.Message) {
	if h.clients[client.ID] != client {
		return
	}

	switch {
	case msg.Type == signaling.EventJoinRoom:
		h.handleJoin(client, msg)

	case msg.Type == signaling.EventLeaveRoom:
		prior, _ := h.state.Connection(client.ID)
		out, err := h.state.Leave(client.ID)
		if err != nil {
			h.log.Error("leave failed", "conn", client.ID, "error", err)
			return
		}
		h.dispatch(out)
		if prior.Joined() {
			h.logRoom("left", prior.Room, client.ID)
		}

	case signaling.IsSignal(msg.Type):
		sig, err := signaling.DecodeSignal(msg.Type, msg.Payload)
		if err != nil {
			h.log.Warn("dropping signal", "conn", client.ID, "type", msg.Type, "error", err)
			return
		}
		out, err := signaling.Route(client.ID, sig)
		if err != nil {
			h.log.Warn("dropping signal", "conn", client.ID, "type", msg.Type, "error", err)
			return
		}
		h.dispatch([]signaling.Outbound{out})

	default:
		h.log.Debug("unknown message type", "conn", client.ID, "type", msg.Type)
	}
}

func (h *Hub) handleJoin(client *Client, msg *signaling.Message) {
	req, err := signaling.DecodeJoin(msg.Payload)
	if err != nil {
		h.log.Warn("rejecting join", "conn", client.ID, "error", err)
		return
	}

	prior, _ := h.state.Connection(client.ID)
	out, err := h.state.Join(client.ID, req)
	if err != nil {
		h.log.Error("join failed", "conn", client.ID, "room", req.RoomID, "error", err)
		return
	}
	h.dispatch(out)

	if len(out) == 1 && out[0].Event == signaling.EventRoomFull {
		h.log.Info("room full", "room", req.RoomID, "conn", client.ID)
		return
	}
	if prior.Joined() && prior.Room != req.RoomID {
		h.logRoom("left", prior.Room, client.ID)
	}
	h.logRoom("joined", req.RoomID, client.ID)
}

func (h *Hub) logRoom(action, roomID string, id signaling.ConnID) {
	members, _ := h.state.Members(roomID)
	h.log.Info("room "+action, "room", roomID, "conn", id, "members", len(members), "capacity", signaling.RoomCapacity)
}

// dispatch emits a batch of outbound events. Selectors are resolved
// against the state as it stands now, right after the operation that
// produced them. Sends never block.
func (h *Hub) dispatch(out []signaling.Outbound) Delivery {
	var d Delivery
	for _, o := range out {
		msg, err := signaling.NewMessage(o.Event, o.Payload)
		if err != nil {
			h.log.Error("encode outbound", "event", o.Event, "error", err)
			continue
		}
		for _, id := range h.state.Recipients(o.To) {
			if err := h.deliver(id, msg); err != nil {
				d.Dropped = append(d.Dropped, Dropped{Conn: id, Event: o.Event, Err: err})
				continue
			}
			d.Delivered++
		}
	}

	for _, drop := range d.Dropped {
		level := slog.LevelDebug
		if errors.Is(drop.Err, ErrSlowConsumer) {
			level = slog.LevelWarn
		}
		h.log.Log(context.Background(), level, "notification dropped", "conn", drop.Conn, "event", drop.Event, "error", drop.Err)
	}
	return d
}

func (h *Hub) deliver(id signaling.ConnID, msg *signaling.Message) error {
	client, ok := h.clients[id]
	if !ok {
		return ErrGone
	}
	select {
	case client.Send <- msg:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (h *Hub) shutdown() {
	for id, client := range h.clients {
		h.state.Disconnect(id)
		close(client.Send)
		delete(h.clients, id)
	}
	h.rooms.Store(0)
	h.conns.Store(0)
	h.log.Info("hub stopped")
}
