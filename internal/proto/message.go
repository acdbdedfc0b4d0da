// Package proto defines the JSON frames exchanged over the websocket.
// Every frame is an envelope {"type": "<event name>", "data": {...}}.
package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const OutboundTypeError = "error"

// ShopRegisterData registers the connection as a shop.
type ShopRegisterData struct {
	DisplayName string `json:"displayName"`
	ShopID      string `json:"shopId"`
}

// CustomerJoinData registers the connection as a customer.
type CustomerJoinData struct {
	DisplayName string `json:"displayName"`
}

// JoinShopData asks to open the chat with a shop. CustomerID defaults to the
// connection id.
type JoinShopData struct {
	ShopID     string `json:"shopId"`
	CustomerID string `json:"customerId,omitempty"`
}

// ShopJoinChatData asks a shop connection into one of its chats.
type ShopJoinChatData struct {
	ChatID string `json:"chatId"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Message string `json:"message"`
}

// MessagesReadData marks a chat as read.
type MessagesReadData struct {
	ChatID string `json:"chatId"`
}

// Registered confirms shop:register and customer:join.
type Registered struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ShopID      string `json:"shopId,omitempty"`
}

// ChatMessage is one message, both live and in history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Chat      string    `json:"chat"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatJoined confirms chat:join-shop.
type ChatJoined struct {
	ChatID          string `json:"chatId"`
	ShopID          string `json:"shopId"`
	ShopDisplayName string `json:"shopDisplayName"`
}

// UserNotice reports that a user left or disconnected.
type UserNotice struct {
	Username string `json:"username"`
	ChatID   string `json:"chatId"`
}

// MessagesRead is the read receipt.
type MessagesRead struct {
	ChatID string    `json:"chatId"`
	ReadBy string    `json:"readBy"`
	ReadAt time.Time `json:"readAt"`
}

// Typing is the typing indicator.
type Typing struct {
	ChatID   string `json:"chatId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// LastMessage summarises a conversation's newest message.
type LastMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ShopConversation is one entry of shop:conversations.
type ShopConversation struct {
	ChatID          string       `json:"chatId"`
	ClienteID       string       `json:"clienteId"`
	ClienteUsername string       `json:"clienteUsername"`
	IsActive        bool         `json:"isActive"`
	LastMessage     *LastMessage `json:"lastMessage"`
}

// CustomerConversation is one entry of customer:conversations.
type CustomerConversation struct {
	ChatID          string       `json:"chatId"`
	ShopID          string       `json:"shopId"`
	ShopDisplayName string       `json:"shopDisplayName"`
	IsActive        bool         `json:"isActive"`
	LastMessage     *LastMessage `json:"lastMessage"`
}

// Error describes an error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
