package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/auth"
	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/proto"
	"github.com/talkline/talkline-server/internal/service/delivery"
	"github.com/talkline/talkline-server/internal/service/reads"
)

// WSHandler upgrades HTTP connections and bridges them to live sessions.
type WSHandler struct {
	engine      *delivery.Engine
	reads       *reads.Calculator
	authService *auth.Service
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(engine *delivery.Engine, calc *reads.Calculator, authService *auth.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{engine: engine, reads: calc, authService: authService, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		stdhttp.Error(w, "missing token", stdhttp.StatusUnauthorized)
		return
	}
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws auth rejected")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	session := core.NewSession(uuid.NewString(), claims.UserID)
	if err := h.engine.SignIn(ctx, session); err != nil {
		h.log.Error().Err(err).Int64("user_id", claims.UserID).Msg("sign in failed")
		conn.Close(websocket.StatusInternalError, "sign in failed")
		return
	}
	defer h.engine.Disconnect(context.WithoutCancel(ctx), session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

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

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if err := h.dispatch(ctx, conn, session, inbound); err != nil {
			return err
		}
	}
}

// dispatch executes one inbound frame. Domain errors are reported back on the
// socket; only transport failures terminate the connection.
func (h *WSHandler) dispatch(ctx context.Context, conn *websocket.Conn, session *core.Session, inbound proto.Inbound) error {
	var opErr error
	switch inbound.Type {
	case proto.InboundTypeEnter:
		var data proto.EnterData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed enter_chat data")
		}
		opErr = h.engine.EnterChat(ctx, session, data.ChatID)
	case proto.InboundTypeLeave:
		var data proto.EnterData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed leave_chat data")
		}
		h.engine.LeaveChat(ctx, session, data.ChatID)
	case proto.InboundTypeMsg:
		var data proto.MsgData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed msg data")
		}
		_, opErr = h.engine.SendMessage(ctx, data.ChatID, session.UserID, data.Text, data.FilePath, data.ReplyTo)
	case proto.InboundTypeHistory:
		var data proto.HistoryData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed history data")
		}
		var history []core.MessagePayload
		history, opErr = h.reads.History(ctx, session.UserID, data.ChatID)
		if opErr == nil {
			return wsjson.Write(ctx, conn, outboundFromEvent(core.Event{
				Kind:     core.EventHistory,
				ChatID:   data.ChatID,
				Messages: history,
			}))
		}
	case proto.InboundTypeMarkRead:
		var data proto.MarkReadData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed mark_read data")
		}
		_, opErr = h.reads.MarkRead(ctx, session.UserID, data.ChatID)
	case proto.InboundTypeMarkOneRead:
		var data proto.MarkOneReadData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed mark_one_read data")
		}
		opErr = h.reads.MarkOneRead(ctx, data.MessageID, session.UserID)
	default:
		return h.writeError(ctx, conn, "invalid_message", "unknown message type")
	}

	if opErr != nil {
		h.log.Debug().Err(opErr).
			Str("session_id", session.ID).
			Str("inbound", inbound.Type).
			Msg("inbound rejected")
		ce := core.ErrorFrom(opErr)
		return h.writeError(ctx, conn, ce.Code, ce.Message)
	}
	return nil
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case event, ok := <-session.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
