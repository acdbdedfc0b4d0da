package core

import (
	"context"

	"github.com/rs/zerolog"
)

const inboxSize = 256

// envelope is one unit of work for the hub loop. Exactly one field is set.
type envelope struct {
	register   *Client
	unregister string
	command    *Command
	query      func(*Broker)
}

// Hub runs the broker on a single goroutine and fans its deliveries out to
// client event channels. Everything reaches the broker through one inbox, so
// commands from a connection are handled in the order they were submitted.
type Hub struct {
	broker  *Broker
	clients map[string]*Client
	inbox   chan envelope
	done    chan struct{}
	log     *zerolog.Logger
}

// NewHub creates a hub around broker. Call Run to start it.
func NewHub(broker *Broker, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		broker:  broker,
		clients: make(map[string]*Client),
		inbox:   make(chan envelope, inboxSize),
		done:    make(chan struct{}),
		log:     logger,
	}
}

// Run processes the inbox until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int("clients", len(h.clients)).Msg("hub shutting down")
			for id, c := range h.clients {
				close(c.Events)
				delete(h.clients, id)
			}
			return
		case env := <-h.inbox:
			h.handle(env)
		}
	}
}

func (h *Hub) handle(env envelope) {
	switch {
	case env.register != nil:
		c := env.register
		if old, ok := h.clients[c.ID]; ok && old != c {
			close(old.Events)
		}
		h.clients[c.ID] = c
		h.broker.Connect(c.ID)
		h.log.Debug().Str("conn_id", c.ID).Msg("client registered")
	case env.unregister != "":
		id := env.unregister
		if c, ok := h.clients[id]; ok {
			delete(h.clients, id)
			close(c.Events)
		}
		h.deliver(h.broker.Disconnect(id))
		h.log.Debug().Str("conn_id", id).Msg("client unregistered")
	case env.command != nil:
		if _, ok := h.clients[env.command.Conn]; !ok {
			h.log.Debug().Str("conn_id", env.command.Conn).Str("event", string(env.command.Kind)).Msg("command from unknown connection dropped")
			return
		}
		h.deliver(h.broker.Handle(env.command))
	case env.query != nil:
		env.query(h.broker)
	}
}

func (h *Hub) deliver(deliveries []Delivery) {
	for _, d := range deliveries {
		switch d.Target {
		case TargetCaller:
			h.send(d.Conn, d.Event)
		case TargetChannelRest, TargetChannelAll:
			for _, id := range h.broker.Members(d.Chat) {
				if d.Target == TargetChannelRest && id == d.Conn {
					continue
				}
				h.send(id, d.Event)
			}
		}
	}
}

func (h *Hub) send(connID string, ev *Event) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", connID).Str("event", string(ev.Kind)).Msg("client buffer full, event dropped")
	}
}

func (h *Hub) post(env envelope) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.inbox <- env:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// RegisterClient makes c reachable for deliveries.
func (h *Hub) RegisterClient(c *Client) error {
	return h.post(envelope{register: c})
}

// UnregisterClient runs the disconnect path for c.
func (h *Hub) UnregisterClient(c *Client) {
	_ = h.ForceDisconnect(c.ID)
}

// ForceDisconnect runs the disconnect path for connID. Transports call it when
// a connection is found dead without a clean close.
func (h *Hub) ForceDisconnect(connID string) error {
	if connID == "" {
		return nil
	}
	return h.post(envelope{unregister: connID})
}

// Submit queues a command for the broker.
func (h *Hub) Submit(cmd *Command) error {
	return h.post(envelope{command: cmd})
}

// Stats reads broker counters through the hub loop.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := h.post(envelope{query: func(b *Broker) { reply <- b.Stats() }}); err != nil {
		return Stats{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}
