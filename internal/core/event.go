package core

import "time"

// EventKind is a notification the core emits to connections.
// Values match the wire event names.
type EventKind string

const (
	EventShopRegistered        EventKind = "shop:registered"
	EventCustomerJoined        EventKind = "customer:joined"
	EventError                 EventKind = "error"
	EventHistory               EventKind = "chat:messages"
	EventChatJoined            EventKind = "chat:joined"
	EventUserLeft              EventKind = "chat:user-left"
	EventMessageReceived       EventKind = "chat:message-received"
	EventMessagesRead          EventKind = "chat:messages-read"
	EventTyping                EventKind = "chat:typing"
	EventUserDisconnected      EventKind = "chat:user-disconnected"
	EventShopConversations     EventKind = "shop:conversations"
	EventCustomerConversations EventKind = "customer:conversations"
)

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Chat     ChannelID
	User     string // display name of the acting user
	UserID   string // connection id, for registration confirmations
	ShopID   string
	ShopName string
	Typing   bool
	At       time.Time
	Message  Message
	Messages []Message // For EventHistory
	Error    *CoreError

	ShopConversations     []ShopConversation
	CustomerConversations []CustomerConversation
}

// Target selects who receives a Delivery.
type Target int

const (
	// TargetCaller delivers to the connection that issued the command.
	TargetCaller Target = iota
	// TargetChannelRest delivers to the channel roster minus the caller.
	TargetChannelRest
	// TargetChannelAll delivers to the whole channel roster.
	TargetChannelAll
)

// Delivery pairs an event with its audience.
type Delivery struct {
	Target Target
	Conn   string
	Chat   ChannelID
	Event  *Event
}

func toCaller(conn string, ev *Event) Delivery {
	return Delivery{Target: TargetCaller, Conn: conn, Event: ev}
}

func toRest(conn string, ch ChannelID, ev *Event) Delivery {
	return Delivery{Target: TargetChannelRest, Conn: conn, Chat: ch, Event: ev}
}

func toAll(conn string, ch ChannelID, ev *Event) Delivery {
	return Delivery{Target: TargetChannelAll, Conn: conn, Chat: ch, Event: ev}
}

func errorTo(conn string, err *CoreError) []Delivery {
	return []Delivery{toCaller(conn, &Event{Kind: EventError, Error: err})}
}
