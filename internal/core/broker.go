package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options tunes a Broker. Zero values are usable.
type Options struct {
	// HistoryLimit caps messages kept per channel; 0 keeps everything.
	HistoryLimit int
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

type handlerFunc func(b *Broker, cmd *Command) []Delivery

// Broker owns all session state and turns commands into deliveries.
// It does no I/O and is not safe for concurrent use; Hub serializes access.
type Broker struct {
	users    *Registry
	rooms    *Rooms
	members  *Membership
	history  *History
	lister   *Lister
	handlers map[CommandKind]handlerFunc

	now   func() time.Time
	newID func() string
	log   *zerolog.Logger
}

// NewBroker creates a broker with fresh state.
func NewBroker(opts Options, logger *zerolog.Logger) *Broker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	users := NewRegistry()
	rooms := NewRooms()
	history := NewHistory(opts.HistoryLimit)

	return &Broker{
		users:   users,
		rooms:   rooms,
		members: NewMembership(rooms),
		history: history,
		lister:  NewLister(users, history, rooms),
		handlers: map[CommandKind]handlerFunc{
			CommandShopRegister:          (*Broker).registerShop,
			CommandCustomerJoin:          (*Broker).registerCustomer,
			CommandJoinShop:              (*Broker).joinShop,
			CommandShopJoinChat:          (*Broker).shopJoinChat,
			CommandLeave:                 (*Broker).leave,
			CommandSendMessage:           (*Broker).sendMessage,
			CommandMessagesRead:          (*Broker).messagesRead,
			CommandTypingStart:           (*Broker).typingStart,
			CommandTypingStop:            (*Broker).typingStop,
			CommandShopConversations:     (*Broker).shopConversations,
			CommandCustomerConversations: (*Broker).customerConversations,
		},
		now:   opts.Now,
		newID: opts.NewID,
		log:   logger,
	}
}

// Connect records a new live connection. It has no user until it registers.
func (b *Broker) Connect(conn string) {
	b.rooms.Connect(conn)
}

// Handle dispatches cmd to its handler.
func (b *Broker) Handle(cmd *Command) []Delivery {
	h, ok := b.handlers[cmd.Kind]
	if !ok {
		return errorTo(cmd.Conn, errUnknownEvent)
	}
	return h(b, cmd)
}

// Disconnect drops every trace of conn and tells the rest of its channel.
// Calling it for an unknown or already removed connection is a no-op.
func (b *Broker) Disconnect(conn string) []Delivery {
	user, hadUser := b.users.Find(conn)
	ch, inChat := b.members.Clear(conn)
	b.users.Remove(conn)
	b.rooms.Disconnect(conn)

	if !hadUser {
		return nil
	}
	b.log.Info().
		Str("conn_id", conn).
		Str("role", string(user.Role())).
		Str("user", user.DisplayName).
		Msg("user disconnected")

	if !inChat {
		return nil
	}
	return []Delivery{toRest(conn, ch, &Event{
		Kind: EventUserDisconnected,
		Chat: ch,
		User: user.DisplayName,
	})}
}

// Members returns the roster of ch.
func (b *Broker) Members(ch ChannelID) []string {
	return b.rooms.Members(ch)
}

// Stats is a point-in-time summary of broker state.
type Stats struct {
	Connections    int `json:"connections"`
	Users          int `json:"users"`
	InChat         int `json:"in_chat"`
	ActiveChannels int `json:"active_channels"`
	Conversations  int `json:"conversations"`
	Messages       int `json:"messages"`
}

// Stats reports current counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Connections:    b.rooms.OnlineCount(),
		Users:          b.users.Len(),
		InChat:         b.members.Len(),
		ActiveChannels: b.rooms.Len(),
		Conversations:  len(b.history.ChannelIDs()),
		Messages:       b.history.Total(),
	}
}
