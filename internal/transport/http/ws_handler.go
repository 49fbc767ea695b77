package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/engine"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to engine connections.
type WSHandler struct {
	gateway       *engine.Gateway
	auth          *auth.Service
	msgsPerMinute int
	log           *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gw *engine.Gateway, authService *auth.Service, msgsPerMinute int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gw, auth: authService, msgsPerMinute: msgsPerMinute, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := h.gateway.NewConn()
	h.gateway.Attach(client)
	defer client.Close()

	limiter := newRateLimiter(h.msgsPerMinute)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel()
	<-errCh
	// Both loops have exited, so nothing can write Commands anymore; closing
	// lets the gateway process the disconnect and close Events.
	client.Close()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *engine.Conn, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if inbound.Type == proto.InboundTypeMsg && !limiter.allow() {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many messages"},
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		cmd, protoErr, err := h.inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			client.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *engine.Conn) error {
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
