package notify

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrNoSession = errors.New("no connected session for user")

// WSSession wraps one websocket connection; writes are serialized.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload)
}

// WSRegistry tracks connected user sessions. One user may hold several
// connections (multiple tabs/devices); Push fans out to all of them.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string][]*WSSession
}

func NewWSRegistry() *WSRegistry {
	return &WSRegistry{sessions: make(map[string][]*WSSession)}
}

func (r *WSRegistry) Add(userID string, conn *websocket.Conn) *WSSession {
	s := &WSSession{conn: conn}
	r.mu.Lock()
	r.sessions[userID] = append(r.sessions[userID], s)
	r.mu.Unlock()
	return s
}

func (r *WSRegistry) Remove(userID string, session *WSSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := r.sessions[userID]
	for i, s := range conns {
		if s == session {
			r.sessions[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(r.sessions[userID]) == 0 {
		delete(r.sessions, userID)
	}
}

// Push sends the payload to every connection of userID. Failed connections
// are dropped from the registry.
func (r *WSRegistry) Push(userID string, payload any) error {
	r.mu.RLock()
	conns := append([]*WSSession(nil), r.sessions[userID]...)
	r.mu.RUnlock()
	if len(conns) == 0 {
		return ErrNoSession
	}
	for _, s := range conns {
		if err := s.Send(payload); err != nil {
			r.Remove(userID, s)
		}
	}
	return nil
}
