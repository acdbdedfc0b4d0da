package core

import "sort"

// Room is the live roster of connections joined to one channel.
type Room struct {
	Name    ChannelID
	members map[string]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(name ChannelID) *Room {
	return &Room{
		Name:    name,
		members: make(map[string]struct{}),
	}
}

// Add inserts a connection into the room. Returns true if newly added.
func (r *Room) Add(connID string) bool {
	if _, exists := r.members[connID]; exists {
		return false
	}
	r.members[connID] = struct{}{}
	return true
}

// Remove deletes a connection from the room. Returns true if removed.
func (r *Room) Remove(connID string) bool {
	if _, exists := r.members[connID]; !exists {
		return false
	}
	delete(r.members, connID)
	return true
}

// Size returns the number of connections in the room.
func (r *Room) Size() int {
	return len(r.members)
}

// Empty returns true if no connections are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// Members returns the connection ids in the room, sorted.
func (r *Room) Members() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rooms is the channel primitive: which connections are online and which
// rooms they sit in. Empty rooms are dropped, so a missing room means the
// channel does not exist.
type Rooms struct {
	online map[string]struct{}
	rooms  map[ChannelID]*Room
}

// NewRooms creates an empty set of rooms.
func NewRooms() *Rooms {
	return &Rooms{
		online: make(map[string]struct{}),
		rooms:  make(map[ChannelID]*Room),
	}
}

// Connect marks a connection as live.
func (rs *Rooms) Connect(connID string) {
	rs.online[connID] = struct{}{}
}

// Disconnect marks a connection as gone. Room membership is cleared separately.
func (rs *Rooms) Disconnect(connID string) {
	delete(rs.online, connID)
}

// Online reports whether the connection is live.
func (rs *Rooms) Online(connID string) bool {
	_, ok := rs.online[connID]
	return ok
}

// Join adds a connection to the named room, creating it on first use.
func (rs *Rooms) Join(connID string, name ChannelID) {
	room, ok := rs.rooms[name]
	if !ok {
		room = NewRoom(name)
		rs.rooms[name] = room
	}
	room.Add(connID)
}

// Leave removes a connection from the named room.
func (rs *Rooms) Leave(connID string, name ChannelID) {
	room, ok := rs.rooms[name]
	if !ok {
		return
	}
	room.Remove(connID)
	if room.Empty() {
		delete(rs.rooms, name)
	}
}

// Get returns the room for name if it has at least one member.
func (rs *Rooms) Get(name ChannelID) (*Room, bool) {
	room, ok := rs.rooms[name]
	return room, ok
}

// Active reports whether anyone is currently joined to name.
func (rs *Rooms) Active(name ChannelID) bool {
	_, ok := rs.rooms[name]
	return ok
}

// Members returns the connections joined to name.
func (rs *Rooms) Members(name ChannelID) []string {
	room, ok := rs.rooms[name]
	if !ok {
		return nil
	}
	return room.Members()
}

// Len returns the number of non-empty rooms.
func (rs *Rooms) Len() int {
	return len(rs.rooms)
}

// OnlineCount returns the number of live connections.
func (rs *Rooms) OnlineCount() int {
	return len(rs.online)
}
