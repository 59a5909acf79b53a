package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	ws "estatechat/internal/infrastructure/websocket"
	"estatechat/pkg/response"
)

type HealthHandler struct {
	store     string
	wsManager *ws.Manager
	started   time.Time
}

type healthResponse struct {
	Status      string `json:"status"`
	Store       string `json:"store"`
	Connections int    `json:"connections"`
	Uptime      string `json:"uptime"`
	Time        string `json:"time"`
}

func NewHealthHandler(store string, wsManager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		store:     store,
		wsManager: wsManager,
		started:   time.Now(),
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	connections := 0
	if h.wsManager != nil {
		connections = h.wsManager.ConnectionCount()
	}
	return response.Success(c, healthResponse{
		Status:      "ok",
		Store:       h.store,
		Connections: connections,
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		Time:        time.Now().UTC().Format(time.RFC3339),
	})
}
