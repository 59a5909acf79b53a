package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"estatechat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 32
)

// Client is one websocket connection. Frames queued on Send are written in
// order; Refresh asks the writer to render a fresh Snapshot.
type Client struct {
	UserID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Snapshot func() ([]byte, error)

	refresh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn, snapshot func() ([]byte, error)) *Client {
	return &Client{
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Snapshot: snapshot,
		refresh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Refresh schedules a snapshot write. Never blocks; pending refreshes
// coalesce.
func (c *Client) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Queue enqueues a frame, dropping it when the client is gone or its buffer
// is full.
func (c *Client) Queue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- frame:
		return true
	default:
		logger.Warn("websocket send buffer full, dropping frame", "user_id", c.UserID)
		return false
	}
}

// Done is closed once the connection is shutting down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Manager tracks live connections per user.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	stopped    chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then closes every
// remaining connection.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.add(client)
			case client := <-m.Unregister:
				m.remove(client)
			case <-ctx.Done():
				close(m.stopped)
				m.closeAll()
				return
			}
		}
	}()
}

// Attach registers client, reporting false once the manager has stopped.
func (m *Manager) Attach(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.stopped:
		return false
	}
}

func (m *Manager) add(client *Client) {
	m.mutex.Lock()
	set, ok := m.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	m.mutex.Unlock()
	logger.Info("websocket client registered", "user_id", client.UserID)
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	if set, ok := m.clients[client.UserID]; ok {
		if _, present := set[client]; present {
			delete(set, client)
			if len(set) == 0 {
				delete(m.clients, client.UserID)
			}
		}
	}
	m.mutex.Unlock()
	client.shutdown()
	logger.Info("websocket client unregistered", "user_id", client.UserID)
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for userID, set := range m.clients {
		for client := range set {
			client.shutdown()
		}
		delete(m.clients, userID)
	}
}

func (m *Manager) ConnectionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

// ReadPump hands every inbound frame to handle until the connection fails,
// then unregisters the client.
func (c *Client) ReadPump(m *Manager, handle func(c *Client, frame []byte)) {
	defer func() {
		c.shutdown()
		select {
		case m.Unregister <- c:
		case <-m.stopped:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}
		handle(c, frame)
	}
}

// WritePump owns all writes to the connection: queued frames, snapshot
// refreshes and keepalive pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame := <-c.Send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				logger.Warn("websocket write failed", "user_id", c.UserID, "error", err)
				return
			}

		case <-c.refresh:
			if c.Snapshot == nil {
				continue
			}
			frame, err := c.Snapshot()
			if err != nil {
				logger.Error("websocket snapshot failed", "user_id", c.UserID, "error", err)
				continue
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				logger.Warn("websocket write failed", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}
