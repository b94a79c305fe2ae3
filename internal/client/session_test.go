package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BioHazard786/duo/internal/hub"
	"github.com/BioHazard786/duo/internal/server"
	"github.com/BioHazard786/duo/internal/signaling"
	"github.com/BioHazard786/duo/internal/testutil"
)

const wait = 2 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startRelay(t *testing.T) string {
	t.Helper()
	h := hub.New(hub.Options{}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(server.NewRouter(h, server.NewOriginPolicy(nil), quietLogger()))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Done()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s, err := Dial(ctx, url, quietLogger())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func join(t *testing.T, s *Session, room, peer string) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return s.Join(ctx, room, peer)
}

func TestSessionLifecycle(t *testing.T) {
	url := startRelay(t)
	a := dial(t, url)
	b := dial(t, url)
	c := dial(t, url)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("connection ids %q and %q", a.ID, b.ID)
	}

	if n, err := join(t, a, "den", "alice"); err != nil || n != 1 {
		t.Fatalf("A join = %d, %v", n, err)
	}
	if n, err := join(t, b, "den", "bob"); err != nil || n != 2 {
		t.Fatalf("B join = %d, %v", n, err)
	}
	joined := testutil.RequireReceive(t, a.Handler.PeerJoined, wait, "A waiting for bob")
	if joined.PeerID != "bob" || joined.ConnectionID != b.ID {
		t.Errorf("PeerJoined = %+v", joined)
	}

	_, err := join(t, c, "den", "carol")
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("C join error = %v, want ErrRoomFull", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != "join room" {
		t.Errorf("C join error = %#v, want OpError", err)
	}

	if err := b.Client.SendSignal(signaling.EventOffer, "", "den", map[string]any{"sdp": "x"}); err != nil {
		t.Fatal(err)
	}
	offer := testutil.RequireReceive(t, a.Handler.Signal, wait, "A waiting for offer")
	if offer.Type != signaling.EventOffer || !strings.Contains(string(offer.Payload), string(b.ID)) {
		t.Errorf("offer = %s %s", offer.Type, offer.Payload)
	}

	if err := b.Leave(); err != nil {
		t.Fatal(err)
	}
	if left := testutil.RequireReceive(t, a.Handler.PeerLeft, wait, "A waiting for bob to leave"); left != "bob" {
		t.Errorf("PeerLeft = %q", left)
	}

	// The freed seat is available again.
	if n, err := join(t, c, "den", "carol"); err != nil || n != 2 {
		t.Fatalf("C second join = %d, %v", n, err)
	}
}

func TestSendAfterClose(t *testing.T) {
	url := startRelay(t)
	s := dial(t, url)
	s.Close()
	testutil.RequireClosed(t, s.Handler.Closed, wait, "handler after close")

	if err := s.Leave(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Leave after close error = %v, want ErrNotConnected", err)
	}
}

func TestDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws", quietLogger()); err == nil {
		t.Fatal("Dial to closed port succeeded")
	}
}
