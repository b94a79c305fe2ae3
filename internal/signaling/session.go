package signaling

import "fmt"

// Join seats a connection in a room, creating the room on demand.
//
// A full room rejects the join with a room-full event and nothing changes,
// including the connection's current membership. Otherwise a connection
// that is already joined somewhere leaves first, with the usual
// user-disconnected notification. This holds even when the target is the
// room it already sits in, so a sole member re-joining goes through a
// vacate and re-create.
func (s *State) Join(id ConnID, req JoinRequest) ([]Outbound, error) {
	conn, ok := s.conns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if req.RoomID == "" {
		return nil, ErrMissingRoom
	}

	peerID := req.PeerID
	if peerID == "" {
		peerID = string(id)
	}

	if r, ok := s.rooms[req.RoomID]; ok && r.Full() {
		return []Outbound{{To: Unicast(id), Event: EventRoomFull, Payload: req.RoomID}}, nil
	}

	var out []Outbound
	if conn.Joined() {
		out = append(out, s.vacate(conn)...)
	}

	// Looked up again: vacating may have removed the target room.
	r, ok := s.rooms[req.RoomID]
	if !ok {
		r = newRoom(req.RoomID)
		s.rooms[req.RoomID] = r
	}
	r.add(Member{Conn: id, PeerID: peerID})
	conn.Room, conn.PeerID = req.RoomID, peerID

	if r.Size() > 1 {
		out = append(out, Outbound{
			To:      RoomExcept(r.ID, id),
			Event:   EventUserConnected,
			Payload: UserConnected{PeerID: peerID, ConnectionID: id},
		})
	}
	out = append(out, Outbound{To: Unicast(id), Event: EventRoomCount, Payload: r.Size()})

	return out, nil
}

// Leave takes a connection out of its room. It is a no-op for a
// connection that is not joined.
func (s *State) Leave(id ConnID) ([]Outbound, error) {
	conn, ok := s.conns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}
	if !conn.Joined() {
		return nil, nil
	}
	return s.vacate(conn), nil
}

// Disconnect is Leave followed by removal from the registry. Unknown ids
// are ignored so a late or repeated close is harmless.
func (s *State) Disconnect(id ConnID) []Outbound {
	conn, ok := s.conns[id]
	if !ok {
		return nil
	}
	var out []Outbound
	if conn.Joined() {
		out = s.vacate(conn)
	}
	delete(s.conns, id)
	return out
}

// vacate removes conn from its current room and deletes the room if it
// ends up empty. The remaining member, if any, is told who left.
func (s *State) vacate(conn *Connection) []Outbound {
	roomID, peerID := conn.Room, conn.PeerID
	conn.Room, conn.PeerID = "", ""

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}

	var out []Outbound
	if r.Size() > 1 {
		out = append(out, Outbound{
			To:      RoomExcept(roomID, conn.ID),
			Event:   EventUserDisconnected,
			Payload: peerID,
		})
	}

	r.remove(conn.ID)
	if r.Size() == 0 {
		delete(s.rooms, roomID)
	}
	return out
}
