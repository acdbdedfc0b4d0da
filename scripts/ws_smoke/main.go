package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/shopchat-server/internal/proto"
)

// frame is an outbound envelope with its data left raw.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	shopID := flag.String("shop", "m1", "shop id to register")
	shopName := flag.String("shop-name", "LojaX", "shop display name")
	customer := flag.String("customer", "Ana", "customer display name")
	customerID := flag.String("customer-id", "c1", "customer id used to derive the chat")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	shop, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer shop.Close(websocket.StatusNormalClosure, "bye")

	client, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer client.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, shop, "shop:register", proto.ShopRegisterData{DisplayName: *shopName, ShopID: *shopID}); err != nil {
		return err
	}
	if _, err := await(ctx, shop, "shop:registered"); err != nil {
		return err
	}

	if err := send(ctx, client, "customer:join", proto.CustomerJoinData{DisplayName: *customer}); err != nil {
		return err
	}
	if _, err := await(ctx, client, "customer:joined"); err != nil {
		return err
	}

	if err := send(ctx, client, "chat:join-shop", proto.JoinShopData{ShopID: *shopID, CustomerID: *customerID}); err != nil {
		return err
	}
	raw, err := await(ctx, client, "chat:joined")
	if err != nil {
		return err
	}
	var joined proto.ChatJoined
	if err := json.Unmarshal(raw, &joined); err != nil {
		return fmt.Errorf("unmarshal chat:joined: %w", err)
	}
	fmt.Printf("Joined chat=%s shop=%s (%s)\n", joined.ChatID, joined.ShopID, joined.ShopDisplayName)

	if err := send(ctx, client, "chat:send-message", proto.SendMessageData{Message: *text}); err != nil {
		return err
	}
	raw, err = await(ctx, shop, "chat:message-received")
	if err != nil {
		return err
	}
	var msg proto.ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	fmt.Printf("Shop received: chat=%s user=%s text=%q ts=%s\n", msg.Chat, msg.Username, msg.Message, msg.Timestamp.Format(time.RFC3339))
	return nil
}

func dial(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// await skips frames until one of the wanted type arrives. An error frame aborts.
func await(ctx context.Context, conn *websocket.Conn, typ string) (json.RawMessage, error) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		switch f.Type {
		case typ:
			return f.Data, nil
		case proto.OutboundTypeError:
			var perr proto.Error
			_ = json.Unmarshal(f.Data, &perr)
			return nil, fmt.Errorf("server error %s: %s", perr.Code, perr.Message)
		default:
			fmt.Printf("Received %s\n", f.Type)
		}
	}
}
