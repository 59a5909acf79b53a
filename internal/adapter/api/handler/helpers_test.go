package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"estatechat/internal/adapter/api"
	"estatechat/internal/adapter/api/handler"
	"estatechat/internal/adapter/api/middleware"
	"estatechat/internal/adapter/api/router"
	"estatechat/internal/adapter/repository"
	"estatechat/internal/domain/entity"
	"estatechat/internal/infrastructure/firebase"
	"estatechat/internal/infrastructure/ratelimit"
	ws "estatechat/internal/infrastructure/websocket"
	"estatechat/internal/usecase"
	"estatechat/pkg/response"
)

var (
	buyer    = entity.Identity{UserID: "u1", DisplayName: "Asha", Email: "asha@example.com"}
	owner    = entity.Identity{UserID: "u2", DisplayName: "Ravi", Email: "ravi@example.com"}
	outsider = entity.Identity{UserID: "u9", DisplayName: "Zed"}
)

type testServer struct {
	e       *echo.Echo
	store   *repository.MemoryChatRepository
	manager *ws.Manager
}

func newTestServer(t *testing.T, sendPerMinute int) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := repository.NewMemoryChatRepository()
	listings := repository.NewMemoryListingRepository(&entity.Listing{
		ID: "p1", Title: "3BHK Sea View", Images: []string{"https://img.example.com/p1.jpg"},
		OwnerID: owner.UserID, OwnerName: owner.DisplayName, OwnerEmail: owner.Email,
	})
	chats := usecase.NewChatUseCase(store, listings, usecase.RetryPolicy{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond})

	manager := ws.NewManager()
	manager.Start(ctx)

	auth := middleware.NewAuthMiddleware(firebase.DevTokenVerifier{})
	limiter := ratelimit.NewRateLimiter(sendPerMinute)

	e := echo.New()
	e.Validator = api.NewValidator()
	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chats),
		WebSocket: handler.NewWebSocketHandler(ctx, manager, auth, chats, limiter, false, []string{"*"}),
		Health:    handler.NewHealthHandler("memory", manager),
		DevToken:  handler.NewDevTokenHandler(),
	}, auth, limiter)

	return &testServer{e: e, store: store, manager: manager}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, as *entity.Identity) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if as != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+firebase.DevToken(*as))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

type conversationList struct {
	Items []entity.Conversation `json:"items"`
	Total int                   `json:"total"`
}
