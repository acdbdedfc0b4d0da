package core

// CommandKind names an inbound event. Values match the wire event names.
type CommandKind string

const (
	CommandShopRegister          CommandKind = "shop:register"
	CommandCustomerJoin          CommandKind = "customer:join"
	CommandJoinShop              CommandKind = "chat:join-shop"
	CommandShopJoinChat          CommandKind = "shop:join-chat"
	CommandLeave                 CommandKind = "chat:leave"
	CommandSendMessage           CommandKind = "chat:send-message"
	CommandMessagesRead          CommandKind = "chat:messages-read"
	CommandTypingStart           CommandKind = "chat:typing-start"
	CommandTypingStop            CommandKind = "chat:typing-stop"
	CommandShopConversations     CommandKind = "shop:conversations"
	CommandCustomerConversations CommandKind = "customer:conversations"
)

// Command represents an action requested by a connection.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind        CommandKind
	Conn        string
	DisplayName string
	ShopID      string
	CustomerID  string
	Chat        ChannelID
	Text        string
}
