package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/shopchat-server/internal/config"
	"github.com/vovakirdan/shopchat-server/internal/core"
	"github.com/vovakirdan/shopchat-server/internal/proto"
)

// Hub is the part of core.Hub the transport drives.
type Hub interface {
	RegisterClient(c *core.Client) error
	UnregisterClient(c *core.Client)
	Submit(cmd *core.Command) error
	Stats(ctx context.Context) (core.Stats, error)
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub          Hub
	log          *zerolog.Logger
	accept       *websocket.AcceptOptions
	clientBuffer int
	pingInterval time.Duration
	pingTimeout  time.Duration
	ratePerMin   int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	accept := &websocket.AcceptOptions{OriginPatterns: cfg.AllowedOrigins}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		accept = &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = cfg.PingInterval
	}
	return &WSHandler{
		hub:          hub,
		log:          logger,
		accept:       accept,
		clientBuffer: cfg.ClientBuffer,
		pingInterval: cfg.PingInterval,
		pingTimeout:  pingTimeout,
		ratePerMin:   cfg.RateLimitPerMinute,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), h.clientBuffer)
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Msg("rejecting connection")
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)
	h.log.Debug().Str("conn_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.pingLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutines
	<-errCh
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerMin)
	for {
		typ, payload, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			if err := h.writeError(ctx, conn, badRequest("text frames only")); err != nil {
				return err
			}
			continue
		}
		if !limiter.allow() {
			h.log.Debug().Str("conn_id", client.ID).Msg("inbound frame rate limited")
			if err := h.writeError(ctx, conn, &proto.Error{Code: "rate_limited", Message: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(payload, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("malformed ws frame")
			if err := h.writeError(ctx, conn, badRequest("malformed frame")); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(client.ID, inbound)
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if err := h.hub.Submit(cmd); err != nil {
			return fmt.Errorf("submit %s: %w", cmd.Kind, err)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pingLoop detects connections that vanished without a close frame. When a
// ping goes unanswered the handler returns and the hub runs the disconnect path.
func (h *WSHandler) pingLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	if h.pingInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("liveness ping failed")
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Data: perr})
}
