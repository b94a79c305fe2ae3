package signaling

import (
	"fmt"
	"sort"
)

// Connection is the registry entry for one live link. Room is empty while
// the connection is not joined to anything.
type Connection struct {
	ID     ConnID
	Room   string
	PeerID string
}

// Joined reports whether the connection currently holds a seat in a room.
func (c Connection) Joined() bool {
	return c.Room != ""
}

// State holds the connection registry and the room table.
//
// State is not safe for concurrent use. The hub owns it from a single
// goroutine, which is what makes each operation atomic.
type State struct {
	conns map[ConnID]*Connection
	rooms map[string]*Room
}

// NewState creates an empty registry and room table.
func NewState() *State {
	return &State{
		conns: make(map[ConnID]*Connection),
		rooms: make(map[string]*Room),
	}
}

// Register adds a new, unjoined connection.
func (s *State) Register(id ConnID) error {
	if _, ok := s.conns[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	s.conns[id] = &Connection{ID: id}
	return nil
}

// Connection returns a copy of the registry entry for id.
func (s *State) Connection(id ConnID) (Connection, bool) {
	c, ok := s.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Members returns the membership of a room in join order.
func (s *State) Members(roomID string) ([]Member, bool) {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return r.Members(), true
}

// RoomCount returns the number of rooms in the table.
func (s *State) RoomCount() int {
	return len(s.rooms)
}

// ConnectionCount returns the number of registered connections.
func (s *State) ConnectionCount() int {
	return len(s.conns)
}

// RoomIDs returns the ids of all rooms, sorted.
func (s *State) RoomIDs() []string {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Recipients resolves a selector against the current room table. Unicast
// selectors are returned as-is without checking the registry; a missing
// target is the transport's problem.
func (s *State) Recipients(sel Selector) []ConnID {
	switch sel.Kind {
	case ToConnection:
		return []ConnID{sel.Conn}
	case ToRoomExcept:
		r, ok := s.rooms[sel.Room]
		if !ok {
			return nil
		}
		out := make([]ConnID, 0, len(r.members))
		for _, m := range r.members {
			if m.Conn != sel.Except {
				out = append(out, m.Conn)
			}
		}
		return out
	default:
		return nil
	}
}

// Verify checks that the registry and room table agree with each other.
func (s *State) Verify() error {
	seen := make(map[ConnID]string)
	for id, r := range s.rooms {
		if r.ID != id {
			return fmt.Errorf("%w: room %q stored under %q", ErrInconsistent, r.ID, id)
		}
		if r.Size() == 0 {
			return fmt.Errorf("%w: room %q is empty", ErrInconsistent, id)
		}
		if r.Size() > RoomCapacity {
			return fmt.Errorf("%w: room %q has %d members", ErrInconsistent, id, r.Size())
		}
		for _, m := range r.members {
			if other, dup := seen[m.Conn]; dup {
				return fmt.Errorf("%w: %s is in rooms %q and %q", ErrInconsistent, m.Conn, other, id)
			}
			seen[m.Conn] = id

			c, ok := s.conns[m.Conn]
			if !ok {
				return fmt.Errorf("%w: room %q holds unregistered %s", ErrInconsistent, id, m.Conn)
			}
			if c.Room != id {
				return fmt.Errorf("%w: %s sits in %q but points at %q", ErrInconsistent, m.Conn, id, c.Room)
			}
		}
	}

	for id, c := range s.conns {
		if !c.Joined() {
			continue
		}
		if seen[id] != c.Room {
			return fmt.Errorf("%w: %s points at %q but is not a member", ErrInconsistent, id, c.Room)
		}
	}
	return nil
}
