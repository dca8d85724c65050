package redis

import (
	"context"
	"sync"
	"time"

	"trivia-lobby-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// LobbyStore is a Redis-aware implementation of app.LobbyStore.
// Notes:
//   - It still keeps a local in-memory map of sessions: the session state
//     machine (timers, subscriber channels) is single-authority per process.
//   - Redis marks lobby-code liveness so a fleet sharing one Redis never
//     hands out the same code twice while a lobby is alive elsewhere.
type LobbyStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewLobbyStore(client *redis.Client, ttl time.Duration) *LobbyStore {
	return &LobbyStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *LobbyStore) Put(code string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[code]; exists {
		return false
	}
	ok, err := s.client.SetNX(context.Background(), s.key(code), "1", s.ttl).Result()
	if err == nil && !ok {
		// Code is live on another instance sharing this Redis.
		return false
	}
	s.sessions[code] = session
	return true
}

func (s *LobbyStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *LobbyStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return
	}
	delete(s.sessions, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *LobbyStore) key(code string) string {
	return "lobby:session:" + code
}
