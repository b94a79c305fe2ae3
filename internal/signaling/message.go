package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

// Outbound event types.
const (
	EventWelcome          = "welcome"
	EventRoomFull         = "room-full"
	EventRoomCount        = "room-count"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
)

// ConnID identifies one live transport link. The transport assigns it and
// never reuses it while the link is open.
type ConnID string

// JoinRequest is the normalized form of a join-room payload.
type JoinRequest struct {
	RoomID string
	PeerID string
}

// Welcome is sent once per connection so the client learns its own id.
type Welcome struct {
	ConnectionID ConnID `json:"connectionId"`
}

// UserConnected is sent to the other member of a room when someone joins.
type UserConnected struct {
	PeerID       string `json:"peerId"`
	ConnectionID ConnID `json:"connectionId"`
}

// Signal is an offer, answer or ice-candidate as received from a sender.
// Payload is the complete JSON object; RoomID and Target are the routing
// hints read out of it.
type Signal struct {
	Kind    string
	RoomID  string
	Target  ConnID
	Payload json.RawMessage
}

// keyFrom is the payload key an offer is stamped with.
const keyFrom = "fromConnectionId"

// DecodeJoin accepts the three shapes clients send for join-room:
//
//	"room"
//	["room", "peer"]
//	{"roomId": "room", "peerId": "peer"}
//
// PeerID is left empty when absent; the state machine defaults it.
func DecodeJoin(raw json.RawMessage) (JoinRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return JoinRequest{}, ErrMissingRoom
	}

	var req JoinRequest
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &req.RoomID); err != nil {
			return JoinRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

	case '[':
		var args []*string
		if err := json.Unmarshal(raw, &args); err != nil {
			return JoinRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(args) > 0 && args[0] != nil {
			req.RoomID = *args[0]
		}
		if len(args) > 1 && args[1] != nil {
			req.PeerID = *args[1]
		}

	case '{':
		var obj struct {
			RoomID string `json:"roomId"`
			PeerID string `json:"peerId"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return JoinRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		req.RoomID, req.PeerID = obj.RoomID, obj.PeerID

	default:
		return JoinRequest{}, fmt.Errorf("%w: join payload must be a string, array or object", ErrMalformed)
	}

	if req.RoomID == "" {
		return JoinRequest{}, ErrMissingRoom
	}
	return req, nil
}

// DecodeSignal reads the routing hints out of a signaling payload without
// touching the rest of it.
func DecodeSignal(kind string, raw json.RawMessage) (Signal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Signal{}, fmt.Errorf("%w: %s payload must be an object", ErrMalformed, kind)
	}

	var hints struct {
		RoomID string `json:"roomId"`
		Target ConnID `json:"targetConnectionId"`
	}
	if err := json.Unmarshal(raw, &hints); err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return Signal{
		Kind:    kind,
		RoomID:  hints.RoomID,
		Target:  hints.Target,
		Payload: raw,
	}, nil
}

// NewMessage encodes payload and wraps it in a Message of the given type.
func NewMessage(t string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: t}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return &Message{Type: t, Payload: b}, nil
}
