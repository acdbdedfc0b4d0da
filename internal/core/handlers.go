package core

func (b *Broker) registerShop(cmd *Command) []Delivery {
	if cmd.ShopID == "" {
		return errorTo(cmd.Conn, errShopIDRequired)
	}
	u := b.users.RegisterShop(cmd.Conn, cmd.DisplayName, cmd.ShopID)
	b.log.Info().Str("conn_id", cmd.Conn).Str("user", u.DisplayName).Str("shop_id", cmd.ShopID).Msg("shop registered")

	return []Delivery{toCaller(cmd.Conn, &Event{
		Kind:   EventShopRegistered,
		UserID: cmd.Conn,
		User:   u.DisplayName,
		ShopID: cmd.ShopID,
	})}
}

func (b *Broker) registerCustomer(cmd *Command) []Delivery {
	u := b.users.RegisterCustomer(cmd.Conn, cmd.DisplayName)
	b.log.Info().Str("conn_id", cmd.Conn).Str("user", u.DisplayName).Msg("customer registered")

	return []Delivery{toCaller(cmd.Conn, &Event{
		Kind:   EventCustomerJoined,
		UserID: cmd.Conn,
		User:   u.DisplayName,
	})}
}

// joinShop opens (or reopens) the caller's channel with a shop. The shop's
// live connection is moved into the channel too, but it is not told about the
// join; it learns of the conversation from the first message.
func (b *Broker) joinShop(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errOnlyCustomersJoin)
	}
	if _, isCustomer := u.Customer(); !isCustomer {
		return errorTo(cmd.Conn, errOnlyCustomersJoin)
	}

	shop, ok := b.users.FindShop(cmd.ShopID)
	if !ok {
		return errorTo(cmd.Conn, errShopNotFound)
	}

	customerID := cmd.CustomerID
	if customerID == "" {
		customerID = cmd.Conn
	}
	ch := DeriveChannelID(customerID, cmd.ShopID)

	b.members.SwitchTo(cmd.Conn, ch)
	b.users.SetCustomerID(cmd.Conn, customerID)
	if b.rooms.Online(shop.ConnID) {
		b.members.SwitchTo(shop.ConnID, ch)
	}

	b.log.Info().Str("conn_id", cmd.Conn).Str("user", u.DisplayName).Str("chat_id", ch.String()).Msg("customer joined shop chat")

	return []Delivery{
		toCaller(cmd.Conn, &Event{Kind: EventHistory, Chat: ch, Messages: b.history.Get(ch)}),
		toCaller(cmd.Conn, &Event{
			Kind:     EventChatJoined,
			Chat:     ch,
			ShopID:   cmd.ShopID,
			ShopName: shop.DisplayName,
		}),
	}
}

func (b *Broker) shopJoinChat(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errOnlyShopsJoin)
	}
	shop, isShop := u.Shop()
	if !isShop {
		return errorTo(cmd.Conn, errOnlyShopsJoin)
	}
	if !cmd.Chat.BelongsToShop(shop.ShopID) {
		return errorTo(cmd.Conn, errChatNotOwned)
	}

	b.members.SwitchTo(cmd.Conn, cmd.Chat)
	b.log.Info().Str("conn_id", cmd.Conn).Str("user", u.DisplayName).Str("chat_id", cmd.Chat.String()).Msg("shop joined chat")

	return []Delivery{toCaller(cmd.Conn, &Event{Kind: EventHistory, Chat: cmd.Chat, Messages: b.history.Get(cmd.Chat)})}
}

func (b *Broker) leave(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return nil
	}
	ch, ok := b.members.Clear(cmd.Conn)
	if !ok {
		return nil
	}

	b.log.Info().Str("conn_id", cmd.Conn).Str("user", u.DisplayName).Str("chat_id", ch.String()).Msg("user left chat")
	return []Delivery{toRest(cmd.Conn, ch, &Event{Kind: EventUserLeft, Chat: ch, User: u.DisplayName})}
}

func (b *Broker) sendMessage(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errNotRegistered)
	}
	ch, ok := b.members.Current(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errNotInChat)
	}
	room, ok := b.rooms.Get(ch)
	if !ok {
		return errorTo(cmd.Conn, errChatNotFound)
	}
	if room.Size() > 2 {
		b.log.Warn().Str("chat_id", ch.String()).Int("participants", room.Size()).Msg("send rejected: roster over capacity")
		return errorTo(cmd.Conn, errTooManyParticipants)
	}

	msg := Message{
		ID:        b.newID(),
		Chat:      ch,
		Username:  u.DisplayName,
		Body:      cmd.Text,
		Timestamp: b.now(),
	}
	b.history.Append(ch, msg)

	b.log.Debug().Str("chat_id", ch.String()).Str("user", u.DisplayName).Int("participants", room.Size()).Msg("message sent")
	return []Delivery{toAll(cmd.Conn, ch, &Event{Kind: EventMessageReceived, Chat: ch, User: u.DisplayName, Message: msg})}
}

// messagesRead targets the chat named in the command, which need not be the
// caller's current one.
func (b *Broker) messagesRead(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errNotRegistered)
	}
	if !b.rooms.Active(cmd.Chat) {
		return errorTo(cmd.Conn, errChatNotFound)
	}

	return []Delivery{toAll(cmd.Conn, cmd.Chat, &Event{
		Kind: EventMessagesRead,
		Chat: cmd.Chat,
		User: u.DisplayName,
		At:   b.now(),
	})}
}

func (b *Broker) typingStart(cmd *Command) []Delivery {
	return b.typing(cmd, true)
}

func (b *Broker) typingStop(cmd *Command) []Delivery {
	return b.typing(cmd, false)
}

func (b *Broker) typing(cmd *Command, typing bool) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return nil
	}
	ch, ok := b.members.Current(cmd.Conn)
	if !ok {
		return nil
	}
	return []Delivery{toRest(cmd.Conn, ch, &Event{Kind: EventTyping, Chat: ch, User: u.DisplayName, Typing: typing})}
}

func (b *Broker) shopConversations(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errOnlyShopsList)
	}
	shop, isShop := u.Shop()
	if !isShop {
		return errorTo(cmd.Conn, errOnlyShopsList)
	}
	return []Delivery{toCaller(cmd.Conn, &Event{
		Kind:              EventShopConversations,
		ShopConversations: b.lister.ForShop(shop.ShopID),
	})}
}

func (b *Broker) customerConversations(cmd *Command) []Delivery {
	u, ok := b.users.Find(cmd.Conn)
	if !ok {
		return errorTo(cmd.Conn, errOnlyCustomersList)
	}
	if _, isCustomer := u.Customer(); !isCustomer {
		return errorTo(cmd.Conn, errOnlyCustomersList)
	}
	return []Delivery{toCaller(cmd.Conn, &Event{
		Kind:                  EventCustomerConversations,
		CustomerConversations: b.lister.ForCustomer(u.CustomerID()),
	})}
}
