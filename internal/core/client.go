package core

// DefaultClientBuffer is the event buffer used when none is configured.
const DefaultClientBuffer = 32

// Client is a live connection as seen by the core layer.
// The hub is the only writer of Events and closes it on unregister.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}
