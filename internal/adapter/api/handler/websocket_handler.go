package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/middleware"
	"estatechat/internal/adapter/view"
	"estatechat/internal/domain/entity"
	"estatechat/internal/infrastructure/ratelimit"
	ws "estatechat/internal/infrastructure/websocket"
	"estatechat/pkg/errors"
	"estatechat/pkg/logger"
	"estatechat/pkg/response"
)

const sendAction = "send_message"

// WebSocketHandler serves the realtime messaging screen. Every connection
// owns a view.Shell and receives a full state frame on each change.
type WebSocketHandler struct {
	ctx            context.Context
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	chats          view.ChatService
	limiter        *ratelimit.RateLimiter
	wideDefault    bool
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler binds connection lifetimes to ctx. allowedOrigins
// containing "*" accepts any origin.
func NewWebSocketHandler(
	ctx context.Context,
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	chats view.ChatService,
	limiter *ratelimit.RateLimiter,
	wideDefault bool,
	allowedOrigins []string,
) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:            ctx,
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		chats:          chats,
		limiter:        limiter,
		wideDefault:    wideDefault,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || candidate == origin {
				return true
			}
		}
		return false
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return response.Error(c, err)
	}
	identity, err := h.authMiddleware.IdentityFromToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return nil
	}

	wide := h.wideDefault
	if c.QueryParam("layout") == "wide" {
		wide = true
	}

	connCtx, cancel := context.WithCancel(h.ctx)
	shell := view.NewShell(connCtx, h.chats, *identity, wide)
	client := ws.NewClient(identity.UserID, conn, func() ([]byte, error) {
		return ws.Encode(ws.MessageTypeState, shell.State(time.Now()))
	})
	shell.OnChange(client.Refresh)

	if !h.wsManager.Attach(client) {
		shell.Close()
		cancel()
		conn.Close()
		return nil
	}

	go func() {
		<-client.Done()
		shell.Close()
		cancel()
	}()
	go client.WritePump()
	go client.ReadPump(h.wsManager, func(c *ws.Client, frame []byte) {
		h.dispatch(shell, c, *identity, frame)
	})
	client.Refresh()
	return nil
}

func (h *WebSocketHandler) dispatch(shell *view.Shell, client *ws.Client, identity entity.Identity, frame []byte) {
	msg, err := ws.Decode(frame)
	if err != nil {
		client.Queue(ws.EncodeError("", err))
		return
	}

	if err := h.handleCommand(shell, client, identity, msg); err != nil {
		if !errors.Is(err, errors.CodeBadRequest) && !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("websocket command failed", "user_id", identity.UserID, "command", msg.Type, "error", err)
		}
		client.Queue(ws.EncodeError(msg.Type, err))
	}
}

func (h *WebSocketHandler) handleCommand(shell *view.Shell, client *ws.Client, identity entity.Identity, msg ws.WSMessage) error {
	switch msg.Type {
	case ws.MessageTypePing:
		pong, err := ws.Encode(ws.MessageTypePong, map[string]string{"status": "alive"})
		if err != nil {
			return err
		}
		client.Queue(pong)
		return nil

	case ws.MessageTypeSetFilter:
		var data ws.SetFilterData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		filter, ok := view.ParseFilter(data.Filter)
		if !ok {
			return errors.BadRequest("filter must be one of: all buyers sellers", nil)
		}
		shell.SetFilter(filter)
		return nil

	case ws.MessageTypeSelectConversation:
		var data ws.SelectConversationData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		return shell.SelectConversation(data.ConversationID)

	case ws.MessageTypeOpenListingChat:
		var data ws.OpenListingChatData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		if data.ListingID == "" {
			return errors.BadRequest("listing_id is required", nil)
		}
		return shell.OpenListingChat(data.ListingID)

	case ws.MessageTypeCloseConversation:
		shell.CloseConversation()
		return nil

	case ws.MessageTypeSetDraft:
		var data ws.SetDraftData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		return shell.SetDraft(data.Draft)

	case ws.MessageTypePickQuickReply:
		var data ws.PickQuickReplyData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		return shell.PickQuickReply(data.Index)

	case ws.MessageTypeSendMessage:
		var data ws.SendMessageData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		if allowed, wait := h.limiter.Allow(identity.UserID, sendAction); !allowed {
			return errors.TooManyRequests(fmt.Sprintf("Too many messages, retry in %ds", int(math.Ceil(wait.Seconds()))))
		}
		if data.Message != "" {
			if err := shell.SetDraft(data.Message); err != nil {
				return err
			}
		}
		return shell.Send()

	case ws.MessageTypeSetLayout:
		var data ws.SetLayoutData
		if err := ws.DecodeData(msg, &data); err != nil {
			return err
		}
		shell.SetWide(data.Wide)
		return nil
	}
	return errors.BadRequest("Unknown message type", nil)
}
