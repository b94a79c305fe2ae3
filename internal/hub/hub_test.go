package hub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BioHazard786/duo/internal/signaling"
	"github.com/BioHazard786/duo/internal/testutil"
)

const wait = 2 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New(Options{}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, h.Done(), wait, "hub shutdown")
	})
	return h, cancel
}

// fakeClient is a Client without a websocket; tests read its Send queue
// directly.
func fakeClient(h *Hub, id signaling.ConnID, buffer int) *Client {
	return &Client{Hub: h, ID: id, Send: make(chan *signaling.Message, buffer)}
}

func connect(t *testing.T, h *Hub, id signaling.ConnID) *Client {
	t.Helper()
	c := fakeClient(h, id, 16)
	testutil.RequireSend(t, h.Register, c, wait, "register %s", id)
	welcome := expect(t, c, signaling.EventWelcome)
	var w signaling.Welcome
	decode(t, welcome, &w)
	if w.ConnectionID != id {
		t.Fatalf("welcome id = %q, want %q", w.ConnectionID, id)
	}
	return c
}

func send(t *testing.T, h *Hub, c *Client, eventType string, payload string) {
	t.Helper()
	msg := &signaling.Message{Type: eventType}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}
	testutil.RequireSend(t, h.Inbound, Inbound{Client: c, Message: msg}, wait, "send %s", eventType)
}

func expect(t *testing.T, c *Client, eventType string) *signaling.Message {
	t.Helper()
	msg := testutil.RequireReceive(t, c.Send, wait, "%s waiting for %s", c.ID, eventType)
	if msg.Type != eventType {
		t.Fatalf("%s received %s (%s), want %s", c.ID, msg.Type, msg.Payload, eventType)
	}
	return msg
}

func decode(t *testing.T, msg *signaling.Message, v any) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		t.Fatalf("decode %s payload %s: %v", msg.Type, msg.Payload, err)
	}
}

func waitStats(t *testing.T, h *Hub, want Stats) {
	t.Helper()
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if h.Stats() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Stats = %+v, want %+v", h.Stats(), want)
}

func TestJoinNotifiesRoom(t *testing.T) {
	h, _ := startHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	send(t, h, a, signaling.EventJoinRoom, `["r1","alice"]`)
	var count int
	decode(t, expect(t, a, signaling.EventRoomCount), &count)
	if count != 1 {
		t.Errorf("A room-count = %d, want 1", count)
	}

	send(t, h, b, signaling.EventJoinRoom, `{"roomId":"r1","peerId":"bob"}`)
	var uc signaling.UserConnected
	decode(t, expect(t, a, signaling.EventUserConnected), &uc)
	if uc.PeerID != "bob" || uc.ConnectionID != "B" {
		t.Errorf("user-connected = %+v, want bob/B", uc)
	}
	decode(t, expect(t, b, signaling.EventRoomCount), &count)
	if count != 2 {
		t.Errorf("B room-count = %d, want 2", count)
	}

	waitStats(t, h, Stats{Rooms: 1, Connections: 2})
}

func TestThirdJoinerGetsRoomFull(t *testing.T) {
	h, _ := startHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")
	c := connect(t, h, "C")

	send(t, h, a, signaling.EventJoinRoom, `"r1"`)
	expect(t, a, signaling.EventRoomCount)
	send(t, h, b, signaling.EventJoinRoom, `"r1"`)
	expect(t, a, signaling.EventUserConnected)
	expect(t, b, signaling.EventRoomCount)

	send(t, h, c, signaling.EventJoinRoom, `"r1"`)
	var room string
	decode(t, expect(t, c, signaling.EventRoomFull), &room)
	if room != "r1" {
		t.Errorf("room-full payload = %q, want r1", room)
	}
	testutil.RequireSilent(t, a.Send, 50*time.Millisecond, "A after rejected join")
	testutil.RequireSilent(t, b.Send, 50*time.Millisecond, "B after rejected join")
}

func TestSignalRouting(t *testing.T) {
	h, _ := startHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")
	send(t, h, a, signaling.EventJoinRoom, `"R"`)
	expect(t, a, signaling.EventRoomCount)
	send(t, h, b, signaling.EventJoinRoom, `"R"`)
	expect(t, a, signaling.EventUserConnected)
	expect(t, b, signaling.EventRoomCount)

	send(t, h, a, signaling.EventOffer, `{"roomId":"R","sdp":"o"}`)
	var offer map[string]string
	decode(t, expect(t, b, signaling.EventOffer), &offer)
	if offer["fromConnectionId"] != "A" || offer["sdp"] != "o" {
		t.Errorf("offer = %v", offer)
	}
	testutil.RequireSilent(t, a.Send, 50*time.Millisecond, "broadcast echoed to sender")

	send(t, h, b, signaling.EventAnswer, `{"targetConnectionId":"A","sdp":"a"}`)
	var answer map[string]string
	decode(t, expect(t, a, signaling.EventAnswer), &answer)
	if _, stamped := answer["fromConnectionId"]; stamped || answer["sdp"] != "a" {
		t.Errorf("answer = %v", answer)
	}

	send(t, h, a, signaling.EventICECandidate, `{"targetConnectionId":"B","candidate":"c"}`)
	expect(t, b, signaling.EventICECandidate)
	testutil.RequireSilent(t, a.Send, 50*time.Millisecond, "targeted candidate echoed")

	// Unknown target and malformed signals vanish without side effects.
	send(t, h, a, signaling.EventICECandidate, `{"targetConnectionId":"gone"}`)
	send(t, h, a, signaling.EventOffer, `"not an object"`)
	send(t, h, a, "bogus", `{}`)
	testutil.RequireSilent(t, a.Send, 50*time.Millisecond, "sender after dropped signals")
	testutil.RequireSilent(t, b.Send, 50*time.Millisecond, "peer after dropped signals")
}

func TestDisconnectTearsDownRoom(t *testing.T) {
	h, _ := startHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")
	send(t, h, a, signaling.EventJoinRoom, `["r1","alice"]`)
	expect(t, a, signaling.EventRoomCount)
	send(t, h, b, signaling.EventJoinRoom, `["r1","bob"]`)
	expect(t, a, signaling.EventUserConnected)
	expect(t, b, signaling.EventRoomCount)

	testutil.RequireSend(t, h.Unregister, a, wait, "unregister A")
	testutil.RequireClosed(t, a.Send, wait, "A send queue")
	var peer string
	decode(t, expect(t, b, signaling.EventUserDisconnected), &peer)
	if peer != "alice" {
		t.Errorf("user-disconnected = %q, want alice", peer)
	}
	waitStats(t, h, Stats{Rooms: 1, Connections: 1})

	send(t, h, b, signaling.EventLeaveRoom, "")
	send(t, h, b, signaling.EventLeaveRoom, "")
	waitStats(t, h, Stats{Rooms: 0, Connections: 1})
	testutil.RequireSilent(t, b.Send, 50*time.Millisecond, "B after leaving")
}

func TestShutdownClosesClients(t *testing.T) {
	h := New(Options{}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	a := connect(t, h, "A")
	cancel()

	testutil.RequireClosed(t, h.Done(), wait, "hub done")
	testutil.RequireClosed(t, a.Send, wait, "client send queue")
	if got := h.Stats(); got != (Stats{}) {
		t.Errorf("Stats after shutdown = %+v", got)
	}
}

// The remaining tests call the handlers directly from the test goroutine,
// standing in for the hub loop.

func TestDispatchReportsDrops(t *testing.T) {
	h := New(Options{}, quietLogger())
	slow := fakeClient(h, "slow", 1)
	h.handleRegister(slow) // welcome fills the buffer

	d := h.dispatch([]signaling.Outbound{
		{To: signaling.Unicast("slow"), Event: signaling.EventRoomCount, Payload: 1},
		{To: signaling.Unicast("gone"), Event: signaling.EventRoomCount, Payload: 1},
	})
	if d.Delivered != 0 || len(d.Dropped) != 2 {
		t.Fatalf("Delivery = %+v, want two drops", d)
	}
	if !errors.Is(d.Dropped[0].Err, ErrSlowConsumer) {
		t.Errorf("slow drop error = %v", d.Dropped[0].Err)
	}
	if !errors.Is(d.Dropped[1].Err, ErrGone) {
		t.Errorf("gone drop error = %v", d.Dropped[1].Err)
	}
}

func TestFailedNotificationStillMutates(t *testing.T) {
	h := New(Options{}, quietLogger())
	a := fakeClient(h, "A", 1)
	b := fakeClient(h, "B", 16)
	h.handleRegister(a) // A's buffer is now full
	h.handleRegister(b)

	h.handleInbound(a, &signaling.Message{Type: signaling.EventJoinRoom, Payload: json.RawMessage(`"r1"`)})
	h.handleInbound(b, &signaling.Message{Type: signaling.EventJoinRoom, Payload: json.RawMessage(`"r1"`)})
	if members, _ := h.state.Members("r1"); len(members) != 2 {
		t.Fatalf("r1 has %d members, want 2", len(members))
	}

	h.handleUnregister(b)
	members, _ := h.state.Members("r1")
	if len(members) != 1 || members[0].Conn != "A" {
		t.Errorf("r1 members = %+v, want [A]", members)
	}
	if err := h.state.Verify(); err != nil {
		t.Fatal(err)
	}

	// A second unregister for the same client is ignored.
	h.handleUnregister(b)
	if err := h.state.Verify(); err != nil {
		t.Fatal(err)
	}
}
