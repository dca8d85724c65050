package memory

import (
	"sync"

	"trivia-lobby-service/internal/app"
)

// LobbyStore is an in-memory implementation of app.LobbyStore.
type LobbyStore struct {
	mu      sync.RWMutex
	lobbies map[string]*app.Session
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*app.Session),
	}
}

func (s *LobbyStore) Put(code string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[code]; exists {
		return false
	}
	s.lobbies[code] = session
	return true
}

func (s *LobbyStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.lobbies[code]
	return session, ok
}

func (s *LobbyStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
}
