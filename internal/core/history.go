package core

import "sort"

// History keeps the ordered message log of each channel in memory.
// A positive limit caps every log, evicting the oldest messages first.
//
// A capped log may hold up to twice its limit internally; the visible window
// is always the newest limit messages. Compaction runs once per limit
// appends, so Append stays O(1) amortized.
type History struct {
	limit int
	logs  map[ChannelID][]Message
}

// NewHistory creates an empty store. limit <= 0 means unbounded.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{
		limit: limit,
		logs:  make(map[ChannelID][]Message),
	}
}

// Append adds msg to the end of ch's log.
func (h *History) Append(ch ChannelID, msg Message) {
	log := append(h.logs[ch], msg)
	if h.limit > 0 && len(log) >= 2*h.limit {
		n := copy(log, log[len(log)-h.limit:])
		clear(log[n:])
		log = log[:n]
	}
	h.logs[ch] = log
}

// window returns the visible part of ch's log.
func (h *History) window(ch ChannelID) []Message {
	log := h.logs[ch]
	if h.limit > 0 && len(log) > h.limit {
		return log[len(log)-h.limit:]
	}
	return log
}

// Get returns a copy of ch's log, oldest first. Never nil.
func (h *History) Get(ch ChannelID) []Message {
	log := h.window(ch)
	out := make([]Message, len(log))
	copy(out, log)
	return out
}

// Last returns the newest message of ch.
func (h *History) Last(ch ChannelID) (Message, bool) {
	log := h.logs[ch]
	if len(log) == 0 {
		return Message{}, false
	}
	return log[len(log)-1], true
}

// Len returns how many messages ch holds.
func (h *History) Len(ch ChannelID) int {
	return len(h.window(ch))
}

// ChannelIDs returns every channel with a log, sorted.
func (h *History) ChannelIDs() []ChannelID {
	ids := make([]ChannelID, 0, len(h.logs))
	for id := range h.logs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Total returns the number of messages across all channels.
func (h *History) Total() int {
	n := 0
	for ch := range h.logs {
		n += h.Len(ch)
	}
	return n
}
