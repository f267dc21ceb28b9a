package ws

import (
	"net/http"
	"sync"

	"cabin-order-services/internal/auth"
	"cabin-order-services/internal/config"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SnapshotSource hands new connections their initial dashboard state; the
// poller satisfies it per location.
type SnapshotSource interface {
	LatestSnapshot(location string) (any, bool)
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

// Server fans poller frames out to staff dashboard connections, keyed by
// location slug.
type Server struct {
	logger    *zap.Logger
	cfg       config.Config
	snapshots SnapshotSource

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

func New(logger *zap.Logger, cfg config.Config, snapshots SnapshotSource) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		snapshots: snapshots,
		subs:      make(map[string]map[*client]struct{}),
	}
}

func (s *Server) subscribe(location string, c *client) (unsubscribe func()) {
	s.mu.Lock()
	if s.subs[location] == nil {
		s.subs[location] = make(map[*client]struct{})
	}
	s.subs[location][c] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		clients := s.subs[location]
		delete(clients, c)
		if len(clients) == 0 {
			delete(s.subs, location)
		}
		s.mu.Unlock()
	}
}

// Broadcast sends a frame to every dashboard watching the location. Write
// failures drop silently; the read loop notices the dead connection.
func (s *Server) Broadcast(location string, payload any) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.subs[location]))
	for c := range s.subs[location] {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		_ = c.writeJSON(payload)
	}
}

// StaffOrdersWS is the staff dashboard stream. The session token arrives as
// a query parameter because browsers cannot set websocket headers.
func (s *Server) StaffOrdersWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	claims, err := auth.VerifyAccessToken(r.URL.Query().Get("token"), s.cfg.JWTSecret)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}
	location := claims.Location

	c := &client{conn: conn}
	unsubscribe := s.subscribe(location, c)
	defer unsubscribe()

	// Initial snapshot immediately, so the dashboard renders before the
	// next poll tick lands.
	if snapshot, ok := s.snapshots.LatestSnapshot(location); ok {
		_ = c.writeJSON(map[string]any{"type": "snapshot", "data": snapshot})
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
	case <-r.Context().Done():
	}
}
