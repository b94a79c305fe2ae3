package signaling

// RoomCapacity is the maximum number of connections in a room.
const RoomCapacity = 2

// Member is one connection's seat in a room.
type Member struct {
	Conn   ConnID
	PeerID string
}

// Room represents a single room where two peers can find each other.
// Members are kept in join order.
type Room struct {
	// ID is the application-chosen room name.
	ID string

	members []Member
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make([]Member, 0, RoomCapacity)}
}

// Size returns the current number of members.
func (r *Room) Size() int {
	return len(r.members)
}

// Full reports whether another join would exceed capacity.
func (r *Room) Full() bool {
	return len(r.members) >= RoomCapacity
}

// Members returns a copy of the membership in join order.
func (r *Room) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Room) has(id ConnID) bool {
	for _, m := range r.members {
		if m.Conn == id {
			return true
		}
	}
	return false
}

func (r *Room) add(m Member) {
	r.members = append(r.members, m)
}

func (r *Room) remove(id ConnID) (Member, bool) {
	for i, m := range r.members {
		if m.Conn == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return m, true
		}
	}
	return Member{}, false
}
