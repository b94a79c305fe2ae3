package signaling

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeJoin(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    JoinRequest
		wantErr error
	}{
		{"string", `"r1"`, JoinRequest{RoomID: "r1"}, nil},
		{"array with peer", `["r1", "alice"]`, JoinRequest{RoomID: "r1", PeerID: "alice"}, nil},
		{"array without peer", `["r1"]`, JoinRequest{RoomID: "r1"}, nil},
		{"array null peer", `["r1", null]`, JoinRequest{RoomID: "r1"}, nil},
		{"object", `{"roomId":"r1","peerId":"alice"}`, JoinRequest{RoomID: "r1", PeerID: "alice"}, nil},
		{"object extra fields", ` {"roomId":"r1","extra":true} `, JoinRequest{RoomID: "r1"}, nil},
		{"empty", ``, JoinRequest{}, ErrMissingRoom},
		{"null", `null`, JoinRequest{}, ErrMissingRoom},
		{"empty string", `""`, JoinRequest{}, ErrMissingRoom},
		{"empty array", `[]`, JoinRequest{}, ErrMissingRoom},
		{"object without room", `{"peerId":"alice"}`, JoinRequest{}, ErrMissingRoom},
		{"number", `42`, JoinRequest{}, ErrMalformed},
		{"array of numbers", `[1, 2]`, JoinRequest{}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJoin(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeJoin(%s) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJoin(%s): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("DecodeJoin(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeSignal(t *testing.T) {
	sig, err := DecodeSignal(EventICECandidate, json.RawMessage(`{"roomId":"R","targetConnectionId":"B","candidate":{"candidate":"c"}}`))
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}
	if sig.RoomID != "R" || sig.Target != "B" || sig.Kind != EventICECandidate {
		t.Errorf("DecodeSignal = %+v", sig)
	}

	for _, raw := range []string{``, `"x"`, `[1]`, `{"roomId":5}`} {
		if _, err := DecodeSignal(EventOffer, json.RawMessage(raw)); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeSignal(%q) error = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(EventRoomCount, 2)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.Type != EventRoomCount || string(msg.Payload) != "2" {
		t.Errorf("NewMessage = %+v", msg)
	}

	msg, err = NewMessage(EventLeaveRoom, nil)
	if err != nil {
		t.Fatalf("NewMessage(nil): %v", err)
	}
	b, _ := json.Marshal(msg)
	if string(b) != `{"type":"leave-room"}` {
		t.Errorf("encoded = %s", b)
	}
}
