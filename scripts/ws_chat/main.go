package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/shopchat-server/internal/proto"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	role := flag.String("role", "customer", "customer or shop")
	name := flag.String("name", "cli-user", "display name")
	shopID := flag.String("shop", "", "shop id (registered as a shop, or joined as a customer)")
	customerID := flag.String("customer-id", "", "customer id used to derive the chat")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	switch *role {
	case "shop":
		if *shopID == "" {
			return errors.New("-shop is required for the shop role")
		}
		if err := send(ctx, conn, "shop:register", proto.ShopRegisterData{DisplayName: *name, ShopID: *shopID}); err != nil {
			return err
		}
		fmt.Println("Commands: /chats, /join <chatId>, /read <chatId>, /leave. Other lines are sent as messages.")
	case "customer":
		if err := send(ctx, conn, "customer:join", proto.CustomerJoinData{DisplayName: *name}); err != nil {
			return err
		}
		if *shopID != "" {
			if err := send(ctx, conn, "chat:join-shop", proto.JoinShopData{ShopID: *shopID, CustomerID: *customerID}); err != nil {
				return err
			}
		}
		fmt.Println("Commands: /chats, /shop <shopId>, /leave. Other lines are sent as messages.")
	default:
		return fmt.Errorf("unknown role %q", *role)
	}

	fmt.Printf("Connected to %s as %s (%s). Ctrl+C to exit.\n", *addr, *name, *role)

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *role)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	var payload json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		payload = raw
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		render(f)
	}
}

func render(f frame) {
	switch f.Type {
	case "chat:message-received":
		var msg proto.ChatMessage
		if err := json.Unmarshal(f.Data, &msg); err == nil {
			fmt.Printf("[%s] %s: %s\n", msg.Chat, msg.Username, msg.Message)
			return
		}
	case "chat:messages":
		var history []proto.ChatMessage
		if err := json.Unmarshal(f.Data, &history); err == nil {
			fmt.Printf("-- %d earlier messages --\n", len(history))
			for _, msg := range history {
				fmt.Printf("[%s] %s: %s\n", msg.Chat, msg.Username, msg.Message)
			}
			return
		}
	case "chat:typing":
		var typing proto.Typing
		if err := json.Unmarshal(f.Data, &typing); err == nil {
			if typing.IsTyping {
				fmt.Printf("[%s] %s is typing\n", typing.ChatID, typing.Username)
			}
			return
		}
	case "chat:user-left", "chat:user-disconnected":
		var notice proto.UserNotice
		if err := json.Unmarshal(f.Data, &notice); err == nil {
			fmt.Printf("[%s] %s left\n", notice.ChatID, notice.Username)
			return
		}
	case proto.OutboundTypeError:
		var perr proto.Error
		if err := json.Unmarshal(f.Data, &perr); err == nil {
			fmt.Printf("error (%s): %s\n", perr.Code, perr.Message)
			return
		}
	}
	fmt.Printf("%s %s\n", f.Type, string(f.Data))
}

func writeLoop(ctx context.Context, conn *websocket.Conn, role string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := dispatch(ctx, conn, role, text); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func dispatch(ctx context.Context, conn *websocket.Conn, role, text string) error {
	cmd, arg, _ := strings.Cut(text, " ")
	switch cmd {
	case "/chats":
		return send(ctx, conn, role+":conversations", nil)
	case "/leave":
		return send(ctx, conn, "chat:leave", nil)
	case "/join":
		return send(ctx, conn, "shop:join-chat", proto.ShopJoinChatData{ChatID: arg})
	case "/read":
		return send(ctx, conn, "chat:messages-read", proto.MessagesReadData{ChatID: arg})
	case "/shop":
		return send(ctx, conn, "chat:join-shop", proto.JoinShopData{ShopID: arg})
	}
	return send(ctx, conn, "chat:send-message", proto.SendMessageData{Message: text})
}
