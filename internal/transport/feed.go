package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const feedWriteTimeout = 5 * time.Second

// #region hub

// feedConn serializes writes; a websocket.Conn allows one writer at a time.
type feedConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans newly stored records out to the submitting client's open
// websocket connections. It implements orchestrator.Publisher.
type Hub struct {
	upgrader websocket.Upgrader
	conns    map[string]map[*feedConn]struct{}
	connMux  sync.RWMutex
	logger   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]map[*feedConn]struct{}),
		logger: logger.With().Str("component", "feed").Logger(),
	}
}

// Publish sends the entry to every connection of its client. Connections
// that fail to take the write are dropped.
func (h *Hub) Publish(entry history.Entry) {
	h.connMux.RLock()
	targets := make([]*feedConn, 0, len(h.conns[entry.ClientID]))
	for c := range h.conns[entry.ClientID] {
		targets = append(targets, c)
	}
	h.connMux.RUnlock()
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(FeedMessage{Type: "record", Record: recordView(entry.Record)})
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal feed message")
		return
	}
	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.logger.Debug().Err(err).Str("client", entry.ClientID).Msg("feed write failed")
			h.remove(entry.ClientID, c)
			c.conn.Close()
		}
	}
}

// Connections reports how many sockets are open for clientID.
func (h *Hub) Connections(clientID string) int {
	h.connMux.RLock()
	defer h.connMux.RUnlock()
	return len(h.conns[clientID])
}

func (h *Hub) add(clientID string, c *feedConn) {
	h.connMux.Lock()
	defer h.connMux.Unlock()
	set, ok := h.conns[clientID]
	if !ok {
		set = make(map[*feedConn]struct{})
		h.conns[clientID] = set
	}
	set[c] = struct{}{}
	metrics.FeedConnections.Inc()
}

func (h *Hub) remove(clientID string, c *feedConn) {
	h.connMux.Lock()
	defer h.connMux.Unlock()
	set, ok := h.conns[clientID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, clientID)
	}
	metrics.FeedConnections.Dec()
}

// #endregion hub

// #region handler

// serve upgrades the request and keeps the socket registered until the
// peer goes away. Inbound messages are read and discarded.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, clientID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &feedConn{conn: conn}
	h.add(clientID, c)
	defer func() {
		h.remove(clientID, c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// #endregion handler
