package core

// Membership records the single channel each connection currently sits in and
// keeps the room rosters in step with it.
type Membership struct {
	rooms   *Rooms
	current map[string]ChannelID
}

// NewMembership creates a tracker that mirrors joins and leaves into rooms.
func NewMembership(rooms *Rooms) *Membership {
	return &Membership{
		rooms:   rooms,
		current: make(map[string]ChannelID),
	}
}

// Current returns the channel connID is in.
func (m *Membership) Current(connID string) (ChannelID, bool) {
	ch, ok := m.current[connID]
	return ch, ok
}

// SwitchTo leaves the previous channel (if any) and joins ch.
func (m *Membership) SwitchTo(connID string, ch ChannelID) {
	if prev, ok := m.current[connID]; ok && prev != ch {
		m.rooms.Leave(connID, prev)
	}
	m.rooms.Join(connID, ch)
	m.current[connID] = ch
}

// Clear leaves the current channel and forgets it. Returns the channel left.
func (m *Membership) Clear(connID string) (ChannelID, bool) {
	ch, ok := m.current[connID]
	if !ok {
		return "", false
	}
	m.rooms.Leave(connID, ch)
	delete(m.current, connID)
	return ch, true
}

// Len returns the number of connections in some channel.
func (m *Membership) Len() int {
	return len(m.current)
}
