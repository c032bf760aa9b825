// Package realtime pushes table change events to browsers over websocket.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Client is one websocket subscriber.  An empty table set means every
// table.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	tables map[string]bool
}

func (c *Client) wants(table string) bool {
	return len(c.tables) == 0 || c.tables[table]
}

// Hub tracks the connected clients and fans change events out to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*Client]bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "realtime-hub"),
	}
}

// ParseTables splits a comma separated table list, dropping unknown names.
func ParseTables(raw string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		switch t = strings.TrimSpace(strings.ToLower(t)); t {
		case queue.TableBookings, queue.TableLikes, queue.TableComments:
			out[t] = true
		}
	}
	return out
}

// Serve upgrades the request and streams the events of tables until the
// connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, tables map[string]bool) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), tables: tables}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Handle is a queue.Handler broadcasting ev to interested clients.
func (h *Hub) Handle(_ context.Context, ev queue.ChangeEvent) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.wants(ev.Table) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("slow client dropped", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Info("client registered", "remote", c.conn.RemoteAddr().String(), "tables", len(c.tables))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("client unregistered", "remote", c.conn.RemoteAddr().String())
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
