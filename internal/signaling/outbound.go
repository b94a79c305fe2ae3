package signaling

// SelectorKind says how a Selector picks its recipients.
type SelectorKind int

const (
	// ToConnection delivers to exactly one connection.
	ToConnection SelectorKind = iota

	// ToRoomExcept delivers to every member of a room except one.
	ToRoomExcept
)

func (k SelectorKind) String() string {
	switch k {
	case ToConnection:
		return "unicast"
	case ToRoomExcept:
		return "room"
	default:
		return "unknown"
	}
}

// Selector names the recipients of an outbound event.
type Selector struct {
	Kind   SelectorKind
	Conn   ConnID // ToConnection
	Room   string // ToRoomExcept
	Except ConnID // ToRoomExcept
}

// Unicast selects a single connection.
func Unicast(id ConnID) Selector {
	return Selector{Kind: ToConnection, Conn: id}
}

// RoomExcept selects every member of room other than except.
func RoomExcept(room string, except ConnID) Selector {
	return Selector{Kind: ToRoomExcept, Room: room, Except: except}
}

// Outbound is one event the transport must emit on behalf of the core.
// Payload is encoded as JSON by the transport.
type Outbound struct {
	To      Selector
	Event   string
	Payload any
}
