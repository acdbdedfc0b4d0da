package core

import "time"

// LastMessage summarises the newest message of a conversation.
type LastMessage struct {
	Message   string
	Timestamp time.Time
}

// ShopConversation is one entry of a shop's conversation list.
type ShopConversation struct {
	Chat         ChannelID
	CustomerID   string
	CustomerName string
	Active       bool
	Last         *LastMessage
}

// CustomerConversation is one entry of a customer's conversation list.
type CustomerConversation struct {
	Chat     ChannelID
	ShopID   string
	ShopName string
	Active   bool
	Last     *LastMessage
}

const (
	unknownCustomerName = "Unknown"
	unknownShopName     = "Shop"
)

// Lister derives conversation lists from history, identities and rosters.
type Lister struct {
	users   *Registry
	history *History
	rooms   *Rooms
}

// NewLister builds a lister over the given state.
func NewLister(users *Registry, history *History, rooms *Rooms) *Lister {
	return &Lister{users: users, history: history, rooms: rooms}
}

// ForShop lists every channel with history that belongs to shopID.
func (l *Lister) ForShop(shopID string) []ShopConversation {
	out := make([]ShopConversation, 0)
	for _, ch := range l.history.ChannelIDs() {
		customerID, ok := ch.CustomerOf(shopID)
		if !ok {
			continue
		}
		name := unknownCustomerName
		if u, found := l.users.FindCustomer(customerID); found {
			name = u.DisplayName
		}
		out = append(out, ShopConversation{
			Chat:         ch,
			CustomerID:   customerID,
			CustomerName: name,
			Active:       l.rooms.Active(ch),
			Last:         l.last(ch),
		})
	}
	return out
}

// ForCustomer lists every non-empty channel opened by customerID.
//
// Channels are matched on "<customerID>-", where customerID is the id the
// customer resolved on its first join (an explicit customerId, else its
// connection id). Matching on the connection id alone would hide chats opened
// with an explicit customerId.
func (l *Lister) ForCustomer(customerID string) []CustomerConversation {
	out := make([]CustomerConversation, 0)
	for _, ch := range l.history.ChannelIDs() {
		shopID, ok := ch.ShopOf(customerID)
		if !ok || l.history.Len(ch) == 0 {
			continue
		}
		name := unknownShopName
		if u, found := l.users.FindShop(shopID); found {
			name = u.DisplayName
		}
		out = append(out, CustomerConversation{
			Chat:     ch,
			ShopID:   shopID,
			ShopName: name,
			Active:   l.rooms.Active(ch),
			Last:     l.last(ch),
		})
	}
	return out
}

func (l *Lister) last(ch ChannelID) *LastMessage {
	msg, ok := l.history.Last(ch)
	if !ok {
		return nil
	}
	return &LastMessage{Message: msg.Body, Timestamp: msg.Timestamp}
}
