package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battleship-go/internal/services/registry"
)

// DefaultSendBuffer is the per-connection outbound queue length
const DefaultSendBuffer = 256

// Handler receives connection lifecycle events and inbound frames
type Handler interface {
	HandleOpen(ctx context.Context, conn registry.Conn)
	HandleMessage(ctx context.Context, conn registry.Conn, payload []byte)
	HandleClose(ctx context.Context, conn registry.Conn)
}

// Config holds transport settings
type Config struct {
	SendBuffer int
}

// Hub accepts WebSocket upgrades and tracks the open connections
type Hub struct {
	handler  Handler
	upgrader websocket.Upgrader
	cfg      Config
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a Hub dispatching to handler
func NewHub(handler Handler, cfg Config, logger *slog.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "ws")),
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*Client]bool),
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	client := newClient(h, conn, h.cfg.SendBuffer)
	if !h.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	h.handler.HandleOpen(h.ctx, client)
	client.readPump()
}

func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client registered",
		slog.String("conn_id", client.id),
		slog.String("remote_addr", client.conn.RemoteAddr().String()),
		slog.Int("total_clients", clientCount))
	return true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.handler.HandleClose(context.WithoutCancel(h.ctx), client)

	h.logger.Info("websocket client unregistered",
		slog.String("conn_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.cancel()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	// Closing the socket ends each read pump, which unregisters the client
	for _, client := range clients {
		_ = client.conn.Close()
	}
	h.logger.Info("websocket hub stopped", slog.Int("disconnected_clients", len(clients)))
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
