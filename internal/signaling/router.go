package signaling

import (
	"encoding/json"
	"fmt"
)

// IsSignal reports whether t is one of the relayed signaling kinds.
func IsSignal(t string) bool {
	switch t {
	case EventOffer, EventAnswer, EventICECandidate:
		return true
	}
	return false
}

// Route decides where a signaling message goes. A target connection wins
// over a room; neither membership nor target existence is checked.
// Offers are stamped with the sender's id so the recipient can answer it
// directly; answers and candidates pass through untouched.
func Route(from ConnID, sig Signal) (Outbound, error) {
	if !IsSignal(sig.Kind) {
		return Outbound{}, fmt.Errorf("%w: %q", ErrUnknownKind, sig.Kind)
	}

	var to Selector
	switch {
	case sig.Target != "":
		to = Unicast(sig.Target)
	case sig.RoomID != "":
		to = RoomExcept(sig.RoomID, from)
	default:
		return Outbound{}, fmt.Errorf("%w: %s from %s", ErrNoDestination, sig.Kind, from)
	}

	payload := sig.Payload
	if sig.Kind == EventOffer {
		stamped, err := stampSender(payload, from)
		if err != nil {
			return Outbound{}, err
		}
		payload = stamped
	}

	return Outbound{To: to, Event: sig.Kind, Payload: payload}, nil
}

// stampSender sets fromConnectionId on a JSON object, overwriting any value
// the sender supplied.
func stampSender(payload json.RawMessage, from ConnID) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}

	id, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	fields[keyFrom] = id

	return json.Marshal(fields)
}
