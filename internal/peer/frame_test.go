package peer

import (
	"log/slog"
	"testing"
	"time"

	"github.com/pion/logging"
)

func TestFrameRoundTrip(t *testing.T) {
	data, err := EncodeFrame(FrameHello, Hello{PeerID: "alice", Version: "1.2.0"})
	if err != nil {
		t.Fatal(err)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != FrameHello {
		t.Fatalf("Type = %q", f.Type)
	}
	var h Hello
	if err := f.DecodePayload(&h); err != nil {
		t.Fatal(err)
	}
	if h.PeerID != "alice" || h.Version != "1.2.0" {
		t.Errorf("hello = %+v", h)
	}
}

func TestDecodeFrameGarbage(t *testing.T) {
	if _, err := DecodeFrame([]byte{0xc1}); err == nil {
		t.Error("reserved msgpack byte decoded without error")
	}
}

func TestPingRTT(t *testing.T) {
	sent := time.Unix(1700000000, 0)
	ping := Ping{Seq: 3, SentAt: sent.UnixNano()}

	data, err := EncodeFrame(FramePong, ping)
	if err != nil {
		t.Fatal(err)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	var echoed Ping
	if err := f.DecodePayload(&echoed); err != nil {
		t.Fatal(err)
	}
	if echoed != ping {
		t.Fatalf("pong = %+v, want %+v", echoed, ping)
	}
	if got := echoed.RTT(sent.Add(42 * time.Millisecond)); got != 42*time.Millisecond {
		t.Errorf("RTT = %v", got)
	}
}

func TestPionLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want logging.LogLevel
	}{
		{slog.LevelDebug, logging.LogLevelInfo},
		{slog.LevelInfo, logging.LogLevelWarn},
		{slog.LevelWarn, logging.LogLevelError},
		{slog.LevelError, logging.LogLevelDisabled},
	}
	for _, tt := range tests {
		if got := pionLevel(tt.in); got != tt.want {
			t.Errorf("pionLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
