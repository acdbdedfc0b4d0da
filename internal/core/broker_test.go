package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestBroker(t *testing.T, opts Options) *Broker {
	t.Helper()

	seq := 0
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.NewID == nil {
		opts.NewID = func() string {
			seq++
			return fmt.Sprintf("msg-%d", seq)
		}
	}
	return NewBroker(opts, nil)
}

// seedScenario connects shop "shop1" (LojaX, m1) and customer "c1" (Ana) and
// has Ana join the shop's channel.
func seedScenario(t *testing.T, b *Broker) {
	t.Helper()

	b.Connect("shop1")
	b.Connect("c1")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop1", DisplayName: "LojaX", ShopID: "m1"})
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1", DisplayName: "Ana"})
	ds := b.Handle(&Command{Kind: CommandJoinShop, Conn: "c1", ShopID: "m1"})
	require.Len(t, ds, 2)
}

func requireError(t *testing.T, ds []Delivery, conn string, want *CoreError) {
	t.Helper()

	require.Len(t, ds, 1)
	assert.Equal(t, TargetCaller, ds[0].Target)
	assert.Equal(t, conn, ds[0].Conn)
	require.Equal(t, EventError, ds[0].Event.Kind)
	assert.Equal(t, want.Code, ds[0].Event.Error.Code)
	assert.Equal(t, want.Message, ds[0].Event.Error.Message)
}

func TestBrokerRegistration(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("s")
	b.Connect("c")

	ds := b.Handle(&Command{Kind: CommandShopRegister, Conn: "s", DisplayName: "LojaX", ShopID: "m1"})
	require.Len(t, ds, 1)
	assert.Equal(t, TargetCaller, ds[0].Target)
	assert.Equal(t, EventShopRegistered, ds[0].Event.Kind)
	assert.Equal(t, "s", ds[0].Event.UserID)
	assert.Equal(t, "LojaX", ds[0].Event.User)
	assert.Equal(t, "m1", ds[0].Event.ShopID)

	ds = b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c", DisplayName: "Ana"})
	require.Len(t, ds, 1)
	assert.Equal(t, EventCustomerJoined, ds[0].Event.Kind)
	assert.Equal(t, "c", ds[0].Event.UserID)

	ds = b.Handle(&Command{Kind: CommandShopRegister, Conn: "x", DisplayName: "NoID"})
	requireError(t, ds, "x", errShopIDRequired)
	_, ok := b.users.Find("x")
	assert.False(t, ok)
}

func TestBrokerCustomerJoinsShop(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("shop1")
	b.Connect("c1")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop1", DisplayName: "LojaX", ShopID: "m1"})
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1", DisplayName: "Ana"})

	ds := b.Handle(&Command{Kind: CommandJoinShop, Conn: "c1", ShopID: "m1"})
	require.Len(t, ds, 2)

	history := ds[0]
	assert.Equal(t, TargetCaller, history.Target)
	assert.Equal(t, "c1", history.Conn)
	assert.Equal(t, EventHistory, history.Event.Kind)
	assert.NotNil(t, history.Event.Messages)
	assert.Empty(t, history.Event.Messages)

	joined := ds[1]
	assert.Equal(t, TargetCaller, joined.Target)
	assert.Equal(t, EventChatJoined, joined.Event.Kind)
	assert.Equal(t, ChannelID("c1-m1"), joined.Event.Chat)
	assert.Equal(t, "m1", joined.Event.ShopID)
	assert.Equal(t, "LojaX", joined.Event.ShopName)

	for _, conn := range []string{"c1", "shop1"} {
		ch, ok := b.members.Current(conn)
		require.True(t, ok, conn)
		assert.Equal(t, ChannelID("c1-m1"), ch, conn)
	}
	u, _ := b.users.Find("c1")
	assert.Equal(t, "c1", u.CustomerID())
}

func TestBrokerJoinShopWithExplicitCustomerID(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("shop1")
	b.Connect("conn-9")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop1", DisplayName: "LojaX", ShopID: "m1"})
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "conn-9", DisplayName: "Ana"})

	ds := b.Handle(&Command{Kind: CommandJoinShop, Conn: "conn-9", ShopID: "m1", CustomerID: "u42"})
	require.Len(t, ds, 2)
	assert.Equal(t, ChannelID("u42-m1"), ds[1].Event.Chat)

	u, _ := b.users.Find("conn-9")
	assert.Equal(t, "u42", u.CustomerID())

	b.Handle(&Command{Kind: CommandSendMessage, Conn: "conn-9", Text: "oi"})
	ds = b.Handle(&Command{Kind: CommandCustomerConversations, Conn: "conn-9"})
	require.Len(t, ds, 1)
	list := ds[0].Event.CustomerConversations
	require.Len(t, list, 1, "listing must key on the resolved customer id, not the connection id")
	assert.Equal(t, ChannelID("u42-m1"), list[0].Chat)
	assert.Equal(t, "LojaX", list[0].ShopName)
}

func TestBrokerJoinShopRejections(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("shop1")
	b.Connect("c1")
	b.Connect("anon")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop1", DisplayName: "LojaX", ShopID: "m1"})
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1", DisplayName: "Ana"})

	tests := []struct {
		name string
		cmd  *Command
		want *CoreError
	}{
		{name: "unregistered caller", cmd: &Command{Kind: CommandJoinShop, Conn: "anon", ShopID: "m1"}, want: errOnlyCustomersJoin},
		{name: "shop caller", cmd: &Command{Kind: CommandJoinShop, Conn: "shop1", ShopID: "m1"}, want: errOnlyCustomersJoin},
		{name: "unknown shop", cmd: &Command{Kind: CommandJoinShop, Conn: "c1", ShopID: "m404"}, want: errShopNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, b.Handle(tt.cmd), tt.cmd.Conn, tt.want)
			_, ok := b.members.Current(tt.cmd.Conn)
			assert.False(t, ok, "rejected join must not create a membership")
			assert.Zero(t, b.rooms.Len())
		})
	}
}

func TestBrokerShopFollowsLatestCustomer(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	b.Connect("c2")
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c2", DisplayName: "Bia"})
	b.Handle(&Command{Kind: CommandJoinShop, Conn: "c2", ShopID: "m1"})

	ch, _ := b.members.Current("shop1")
	assert.Equal(t, ChannelID("c2-m1"), ch)
	assert.Equal(t, []string{"c1"}, b.Members("c1-m1"))
	assert.Equal(t, []string{"c2", "shop1"}, b.Members("c2-m1"))
}

func TestBrokerShopJoinChat(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})

	b.Connect("shop2")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop2", DisplayName: "LojaY", ShopID: "m2"})

	ds := b.Handle(&Command{Kind: CommandShopJoinChat, Conn: "shop2", Chat: "c1-m1"})
	requireError(t, ds, "shop2", errChatNotOwned)
	_, ok := b.members.Current("shop2")
	assert.False(t, ok)
	assert.Equal(t, []string{"c1", "shop1"}, b.Members("c1-m1"))

	ds = b.Handle(&Command{Kind: CommandShopJoinChat, Conn: "c1", Chat: "c1-m1"})
	requireError(t, ds, "c1", errOnlyShopsJoin)

	// The owning shop re-enters the chat after leaving it and gets the history.
	b.Handle(&Command{Kind: CommandLeave, Conn: "shop1"})
	ds = b.Handle(&Command{Kind: CommandShopJoinChat, Conn: "shop1", Chat: "c1-m1"})
	require.Len(t, ds, 1)
	assert.Equal(t, EventHistory, ds[0].Event.Kind)
	require.Len(t, ds[0].Event.Messages, 1)
	assert.Equal(t, "oi", ds[0].Event.Messages[0].Body)
	ch, _ := b.members.Current("shop1")
	assert.Equal(t, ChannelID("c1-m1"), ch)
}

func TestBrokerSendMessage(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	ds := b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})
	require.Len(t, ds, 1)
	d := ds[0]
	assert.Equal(t, TargetChannelAll, d.Target)
	assert.Equal(t, ChannelID("c1-m1"), d.Chat)
	assert.Equal(t, EventMessageReceived, d.Event.Kind)
	assert.Equal(t, Message{
		ID:        "msg-1",
		Chat:      "c1-m1",
		Username:  "Ana",
		Body:      "oi",
		Timestamp: fixedNow,
	}, d.Event.Message)

	assert.Equal(t, []string{"c1", "shop1"}, b.Members("c1-m1"))
	assert.Equal(t, 1, b.history.Len("c1-m1"))
}

func TestBrokerSendMessageRejections(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Connect("idle")
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "idle", DisplayName: "Idle"})

	requireError(t, b.Handle(&Command{Kind: CommandSendMessage, Conn: "ghost", Text: "x"}), "ghost", errNotRegistered)
	requireError(t, b.Handle(&Command{Kind: CommandSendMessage, Conn: "idle", Text: "x"}), "idle", errNotInChat)
	assert.Zero(t, b.history.Total())
}

func TestBrokerSendBlockedOverCapacity(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})

	// A second connection claiming the same customer id lands in the same room.
	b.Connect("c1-bis")
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1-bis", DisplayName: "Ana 2"})
	b.Handle(&Command{Kind: CommandJoinShop, Conn: "c1-bis", ShopID: "m1", CustomerID: "c1"})
	require.Len(t, b.Members("c1-m1"), 3)

	requireError(t, b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "hello?"}), "c1", errTooManyParticipants)
	history := b.history.Get("c1-m1")
	require.Len(t, history, 1)
	assert.Equal(t, "oi", history[0].Body)
}

func TestBrokerLeave(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	ds := b.Handle(&Command{Kind: CommandLeave, Conn: "c1"})
	require.Len(t, ds, 1)
	assert.Equal(t, TargetChannelRest, ds[0].Target)
	assert.Equal(t, "c1", ds[0].Conn)
	assert.Equal(t, EventUserLeft, ds[0].Event.Kind)
	assert.Equal(t, "Ana", ds[0].Event.User)
	assert.Equal(t, ChannelID("c1-m1"), ds[0].Event.Chat)
	assert.Equal(t, []string{"shop1"}, b.Members("c1-m1"))

	assert.Empty(t, b.Handle(&Command{Kind: CommandLeave, Conn: "c1"}), "leaving twice is silent")
	assert.Empty(t, b.Handle(&Command{Kind: CommandLeave, Conn: "ghost"}), "unknown caller is silent")
}

func TestBrokerMessagesRead(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	requireError(t, b.Handle(&Command{Kind: CommandMessagesRead, Conn: "ghost", Chat: "c1-m1"}), "ghost", errNotRegistered)
	requireError(t, b.Handle(&Command{Kind: CommandMessagesRead, Conn: "shop1", Chat: "nope-m1"}), "shop1", errChatNotFound)

	ds := b.Handle(&Command{Kind: CommandMessagesRead, Conn: "shop1", Chat: "c1-m1"})
	require.Len(t, ds, 1)
	assert.Equal(t, TargetChannelAll, ds[0].Target)
	assert.Equal(t, EventMessagesRead, ds[0].Event.Kind)
	assert.Equal(t, "LojaX", ds[0].Event.User)
	assert.Equal(t, fixedNow, ds[0].Event.At)
}

func TestBrokerTyping(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	ds := b.Handle(&Command{Kind: CommandTypingStart, Conn: "c1"})
	require.Len(t, ds, 1)
	assert.Equal(t, TargetChannelRest, ds[0].Target)
	assert.Equal(t, EventTyping, ds[0].Event.Kind)
	assert.True(t, ds[0].Event.Typing)
	assert.Equal(t, "Ana", ds[0].Event.User)

	ds = b.Handle(&Command{Kind: CommandTypingStop, Conn: "c1"})
	require.Len(t, ds, 1)
	assert.False(t, ds[0].Event.Typing)

	b.Handle(&Command{Kind: CommandLeave, Conn: "c1"})
	assert.Empty(t, b.Handle(&Command{Kind: CommandTypingStart, Conn: "c1"}))
	assert.Empty(t, b.Handle(&Command{Kind: CommandTypingStart, Conn: "ghost"}))
}

func TestBrokerDisconnect(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	ds := b.Disconnect("c1")
	require.Len(t, ds, 1)
	assert.Equal(t, TargetChannelRest, ds[0].Target)
	assert.Equal(t, EventUserDisconnected, ds[0].Event.Kind)
	assert.Equal(t, "Ana", ds[0].Event.User)
	assert.Equal(t, ChannelID("c1-m1"), ds[0].Event.Chat)

	_, ok := b.users.Find("c1")
	assert.False(t, ok)
	_, ok = b.members.Current("c1")
	assert.False(t, ok)
	assert.False(t, b.rooms.Online("c1"))
	assert.Equal(t, []string{"shop1"}, b.Members("c1-m1"))

	assert.Empty(t, b.Disconnect("c1"), "second disconnect is a no-op")
}

func TestBrokerDisconnectOutsideChannel(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("c1")
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1", DisplayName: "Ana"})

	assert.Empty(t, b.Disconnect("c1"))
	assert.Zero(t, b.users.Len())
}

func TestBrokerShopNotJoinedWhenOffline(t *testing.T) {
	b := newTestBroker(t, Options{})
	b.Connect("c1")
	// Registered without a live connection.
	b.users.RegisterShop("shop1", "LojaX", "m1")
	b.Handle(&Command{Kind: CommandCustomerJoin, Conn: "c1", DisplayName: "Ana"})

	ds := b.Handle(&Command{Kind: CommandJoinShop, Conn: "c1", ShopID: "m1"})
	require.Len(t, ds, 2)
	_, ok := b.members.Current("shop1")
	assert.False(t, ok)
	assert.Equal(t, []string{"c1"}, b.Members("c1-m1"))
}

func TestBrokerShopConversations(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})

	ds := b.Handle(&Command{Kind: CommandShopConversations, Conn: "shop1"})
	require.Len(t, ds, 1)
	assert.Equal(t, TargetCaller, ds[0].Target)
	assert.Equal(t, EventShopConversations, ds[0].Event.Kind)

	list := ds[0].Event.ShopConversations
	require.Len(t, list, 1)
	assert.Equal(t, ChannelID("c1-m1"), list[0].Chat)
	assert.Equal(t, "c1", list[0].CustomerID)
	assert.Equal(t, "Ana", list[0].CustomerName)
	assert.True(t, list[0].Active)
	require.NotNil(t, list[0].Last)
	assert.Equal(t, "oi", list[0].Last.Message)
	assert.Equal(t, fixedNow, list[0].Last.Timestamp)

	// After both parties go away the conversation is still listed, inactive
	// and with an unknown customer.
	b.Disconnect("c1")
	b.Handle(&Command{Kind: CommandLeave, Conn: "shop1"})
	list = b.Handle(&Command{Kind: CommandShopConversations, Conn: "shop1"})[0].Event.ShopConversations
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)
	assert.Equal(t, "Unknown", list[0].CustomerName)

	requireError(t, b.Handle(&Command{Kind: CommandShopConversations, Conn: "ghost"}), "ghost", errOnlyShopsList)
}

func TestBrokerShopConversationsOnlyOwnShop(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})

	b.Connect("shop2")
	b.Handle(&Command{Kind: CommandShopRegister, Conn: "shop2", DisplayName: "LojaY", ShopID: "m2"})
	list := b.Handle(&Command{Kind: CommandShopConversations, Conn: "shop2"})[0].Event.ShopConversations
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestBrokerCustomerConversations(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)

	ds := b.Handle(&Command{Kind: CommandCustomerConversations, Conn: "c1"})
	require.Len(t, ds, 1)
	assert.Empty(t, ds[0].Event.CustomerConversations, "channels without messages are not conversations")

	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})
	list := b.Handle(&Command{Kind: CommandCustomerConversations, Conn: "c1"})[0].Event.CustomerConversations
	require.Len(t, list, 1)
	assert.Equal(t, ChannelID("c1-m1"), list[0].Chat)
	assert.Equal(t, "m1", list[0].ShopID)
	assert.Equal(t, "LojaX", list[0].ShopName)
	assert.True(t, list[0].Active)
	require.NotNil(t, list[0].Last)
	assert.Equal(t, "oi", list[0].Last.Message)

	b.Disconnect("shop1")
	list = b.Handle(&Command{Kind: CommandCustomerConversations, Conn: "c1"})[0].Event.CustomerConversations
	require.Len(t, list, 1)
	assert.Equal(t, "Shop", list[0].ShopName)

	requireError(t, b.Handle(&Command{Kind: CommandCustomerConversations, Conn: "shop1"}), "shop1", errOnlyCustomersList)
}

func TestBrokerUnknownCommand(t *testing.T) {
	b := newTestBroker(t, Options{})
	requireError(t, b.Handle(&Command{Kind: "chat:explode", Conn: "c1"}), "c1", errUnknownEvent)
}

func TestBrokerHistoryLimit(t *testing.T) {
	b := newTestBroker(t, Options{HistoryLimit: 2})
	seedScenario(t, b)
	for _, text := range []string{"a", "b", "c"} {
		b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: text})
	}

	ds := b.Handle(&Command{Kind: CommandJoinShop, Conn: "c1", ShopID: "m1"})
	msgs := ds[0].Event.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].Body)
	assert.Equal(t, "c", msgs[1].Body)
}

func TestBrokerStats(t *testing.T) {
	b := newTestBroker(t, Options{})
	seedScenario(t, b)
	b.Handle(&Command{Kind: CommandSendMessage, Conn: "c1", Text: "oi"})

	assert.Equal(t, Stats{
		Connections:    2,
		Users:          2,
		InChat:         2,
		ActiveChannels: 1,
		Conversations:  1,
		Messages:       1,
	}, b.Stats())

	b.Handle(&Command{Kind: CommandLeave, Conn: "c1"})
	stats := b.Stats()
	assert.Equal(t, 1, stats.InChat)
	assert.Equal(t, 1, stats.ActiveChannels)

	b.Disconnect("shop1")
	stats = b.Stats()
	assert.Equal(t, 0, stats.InChat)
	assert.Equal(t, 0, stats.ActiveChannels)
	assert.Equal(t, 1, stats.Conversations)
}
