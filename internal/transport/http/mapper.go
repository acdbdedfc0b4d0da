package http

import (
	"bytes"
	"encoding/json"

	"github.com/vovakirdan/shopchat-server/internal/core"
	"github.com/vovakirdan/shopchat-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Message: msg}
}

// decode unmarshals an optional payload. Missing or null data leaves v zeroed.
func decode(data json.RawMessage, v any) *proto.Error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("invalid payload")
	}
	return nil
}

func inboundToCommand(connID string, inbound proto.Inbound) (*core.Command, *proto.Error) {
	kind := core.CommandKind(inbound.Type)
	cmd := &core.Command{Kind: kind, Conn: connID}

	switch kind {
	case core.CommandShopRegister:
		var data proto.ShopRegisterData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.ShopID == "" {
			return nil, badRequest("shopId is required")
		}
		cmd.DisplayName = data.DisplayName
		cmd.ShopID = data.ShopID
	case core.CommandCustomerJoin:
		var data proto.CustomerJoinData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		cmd.DisplayName = data.DisplayName
	case core.CommandJoinShop:
		var data proto.JoinShopData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.ShopID == "" {
			return nil, badRequest("shopId is required")
		}
		cmd.ShopID = data.ShopID
		cmd.CustomerID = data.CustomerID
	case core.CommandShopJoinChat:
		var data proto.ShopJoinChatData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.ChatID == "" {
			return nil, badRequest("chatId is required")
		}
		cmd.Chat = core.ChannelID(data.ChatID)
	case core.CommandSendMessage:
		var data proto.SendMessageData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		cmd.Text = data.Message
	case core.CommandMessagesRead:
		var data proto.MessagesReadData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.ChatID == "" {
			return nil, badRequest("chatId is required")
		}
		cmd.Chat = core.ChannelID(data.ChatID)
	case core.CommandLeave,
		core.CommandTypingStart,
		core.CommandTypingStop,
		core.CommandShopConversations,
		core.CommandCustomerConversations:
		// no payload
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownEvent, Message: "unknown event"}
	}
	return cmd, nil
}

func messageToProto(msg core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:        msg.ID,
		Chat:      msg.Chat.String(),
		Username:  msg.Username,
		Message:   msg.Body,
		Timestamp: msg.Timestamp,
	}
}

func lastToProto(last *core.LastMessage) *proto.LastMessage {
	if last == nil {
		return nil
	}
	return &proto.LastMessage{Message: last.Message, Timestamp: last.Timestamp}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: string(event.Kind)}

	switch event.Kind {
	case core.EventShopRegistered, core.EventCustomerJoined:
		out.Data = proto.Registered{UserID: event.UserID, DisplayName: event.User, ShopID: event.ShopID}
	case core.EventHistory:
		messages := make([]proto.ChatMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageToProto(msg))
		}
		out.Data = messages
	case core.EventChatJoined:
		out.Data = proto.ChatJoined{
			ChatID:          event.Chat.String(),
			ShopID:          event.ShopID,
			ShopDisplayName: event.ShopName,
		}
	case core.EventMessageReceived:
		out.Data = messageToProto(event.Message)
	case core.EventUserLeft, core.EventUserDisconnected:
		out.Data = proto.UserNotice{Username: event.User, ChatID: event.Chat.String()}
	case core.EventMessagesRead:
		out.Data = proto.MessagesRead{ChatID: event.Chat.String(), ReadBy: event.User, ReadAt: event.At}
	case core.EventTyping:
		out.Data = proto.Typing{ChatID: event.Chat.String(), Username: event.User, IsTyping: event.Typing}
	case core.EventShopConversations:
		list := make([]proto.ShopConversation, 0, len(event.ShopConversations))
		for _, c := range event.ShopConversations {
			list = append(list, proto.ShopConversation{
				ChatID:          c.Chat.String(),
				ClienteID:       c.CustomerID,
				ClienteUsername: c.CustomerName,
				IsActive:        c.Active,
				LastMessage:     lastToProto(c.Last),
			})
		}
		out.Data = list
	case core.EventCustomerConversations:
		list := make([]proto.CustomerConversation, 0, len(event.CustomerConversations))
		for _, c := range event.CustomerConversations {
			list = append(list, proto.CustomerConversation{
				ChatID:          c.Chat.String(),
				ShopID:          c.ShopID,
				ShopDisplayName: c.ShopName,
				IsActive:        c.Active,
				LastMessage:     lastToProto(c.Last),
			})
		}
		out.Data = list
	case core.EventError:
		if event.Error == nil {
			out.Data = proto.Error{Code: "unknown", Message: "unknown error"}
			break
		}
		out.Data = proto.Error{Code: event.Error.Code, Message: event.Error.Message}
	}
	return out
}
