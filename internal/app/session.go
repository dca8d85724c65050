package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-lobby-service/internal/domain"
)

// Settings are per-process game parameters applied to every session.
type Settings struct {
	Capacity     int
	QuestionTime time.Duration
	RevealDelay  time.Duration
	Scoring      ScoringPolicy
}

// DefaultSettings mirrors the classic configuration: four players, fifteen
// seconds per question, four seconds of answer reveal between questions.
func DefaultSettings() Settings {
	return Settings{
		Capacity:     4,
		QuestionTime: 15 * time.Second,
		RevealDelay:  4 * time.Second,
		Scoring:      DefaultScoringPolicy(),
	}
}

// Session is the state machine for one game instance. All mutation runs to
// completion under mu: inbound commands and timer callbacks each take the
// lock, so a session is never mutated concurrently and handlers never observe
// a half-applied transition. Outbound delivery is a non-blocking channel push
// per subscriber and cannot stall a handler.
type Session struct {
	code     string
	settings Settings
	now      func() time.Time
	rng      *rand.Rand

	mu               sync.Mutex
	players          []*domain.Player // insertion order = arrival order
	selectedCategory string
	questions        []domain.Question
	questionIndex    int
	state            domain.GameState
	paused           bool
	remainingOnPause time.Duration // meaningful only while paused
	questionStart    time.Time
	questionOpen     bool // a question is accepting answers
	answers          map[int]map[string]domain.AnswerRecord

	timerGen      int
	countdown     *countdown
	countdownLeft time.Duration // duration the live countdown was started with

	subscribers map[string]chan domain.Event
}

// NewSession creates a session in the waiting state.
func NewSession(code string, settings Settings) *Session {
	return NewSessionWithClock(code, settings, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock allows deterministic timestamps and shuffles in tests.
func NewSessionWithClock(code string, settings Settings, now func() time.Time, rng *rand.Rand) *Session {
	return &Session{
		code:          code,
		settings:      settings,
		now:           now,
		rng:           rng,
		questionIndex: -1,
		state:         domain.StateWaiting,
		answers:       make(map[int]map[string]domain.AnswerRecord),
		subscribers:   make(map[string]chan domain.Event),
	}
}

// Code returns the session's 6-character lobby code.
func (s *Session) Code() string {
	return s.code
}

// LobbySnapshot is the point-in-time view handed to a freshly joined
// connection. RemainingTime is set while a question is in flight or paused.
type LobbySnapshot struct {
	Code             string
	Players          []domain.PlayerInfo
	State            domain.GameState
	SelectedCategory string
	IsPaused         bool
	RemainingTime    *float64
}

// Snapshot captures the current lobby state.
func (s *Session) Snapshot() LobbySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := LobbySnapshot{
		Code:             s.code,
		Players:          s.playersLocked(),
		State:            s.state,
		SelectedCategory: s.selectedCategory,
		IsPaused:         s.paused,
	}
	switch {
	case s.paused:
		remaining := s.remainingOnPause.Seconds()
		snap.RemainingTime = &remaining
	case s.questionOpen:
		remaining := (s.settings.QuestionTime - s.now().Sub(s.questionStart)).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingTime = &remaining
	}
	return snap
}

// AddPlayer registers a new player. The first player becomes host. Joining a
// finished game is rejected; joining while active is allowed, but the joiner
// sits out the in-flight question so a late arrival can neither stall early
// convergence nor answer a question they did not see from the start.
func (s *Session) AddPlayer(playerID, name string) (domain.PlayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateFinished {
		return domain.PlayerInfo{}, domain.ErrGameFinished
	}
	if len(s.players) >= s.settings.Capacity {
		return domain.PlayerInfo{}, domain.ErrLobbyFull
	}

	if name == "" {
		name = defaultName(playerID)
	}
	player := &domain.Player{
		ID:     playerID,
		Name:   name,
		IsHost: len(s.players) == 0,
	}
	if s.state == domain.StateActive && s.questionOpen {
		player.HasAnswered = true
	}
	s.players = append(s.players, player)

	s.broadcastLocked(domain.Event{
		Type: domain.EventPlayerJoined,
		Payload: domain.PlayerJoinedPayload{
			Players:          s.playersLocked(),
			JoinedPlayerID:   playerID,
			JoinedPlayerName: name,
			SelectedCategory: s.selectedCategory,
		},
	})
	return infoOf(player), nil
}

// Departure describes the outcome of a player removal.
type Departure struct {
	Found      bool
	Empty      bool
	PlayerName string
	NewHostID  string
}

// RemovePlayer handles a disconnect: roster update, host migration to the
// next player in arrival order, and early question-end convergence when the
// departed player was the last one holding up the round.
func (s *Session) RemovePlayer(playerID string) Departure {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Departure{}
	}

	removed := s.players[idx]
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	if ch, ok := s.subscribers[playerID]; ok {
		delete(s.subscribers, playerID)
		close(ch)
	}

	dep := Departure{Found: true, PlayerName: removed.Name}
	if len(s.players) == 0 {
		s.stopCountdownLocked()
		dep.Empty = true
		return dep
	}

	s.broadcastLocked(domain.Event{
		Type: domain.EventPlayerLeft,
		Payload: domain.PlayerLeftPayload{
			Players:                s.playersLocked(),
			DisconnectedPlayerName: removed.Name,
			SelectedCategory:       s.selectedCategory,
		},
	})

	if removed.IsHost {
		s.players[0].IsHost = true
		dep.NewHostID = s.players[0].ID
		s.broadcastLocked(domain.Event{
			Type: domain.EventHostChanged,
			Payload: domain.HostChangedPayload{
				NewHostID: dep.NewHostID,
				Players:   s.playersLocked(),
			},
		})
	}

	// A departing non-answering player must not stall the round.
	if s.state == domain.StateActive && s.questionOpen && !s.paused && s.allAnsweredLocked() {
		s.stopCountdownLocked()
		s.endQuestionLocked()
	}
	return dep
}

// SetCategory records the host's category selection and broadcasts it so
// non-host clients stay consistent. An empty key is a valid unselect.
func (s *Session) SetCategory(playerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}
	s.selectedCategory = key
	s.broadcastLocked(domain.Event{
		Type:    domain.EventCategoryUpdated,
		Payload: domain.CategoryUpdatedPayload{CategoryKey: key},
	})
	return nil
}

// Subscribe returns the outbound event channel for one player's connection.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe(playerID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[playerID] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if cur, ok := s.subscribers[playerID]; ok && cur == ch {
			delete(s.subscribers, playerID)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev domain.Event) {
	for _, ch := range s.subscribers {
		sendEvent(ch, ev)
	}
}

func (s *Session) unicastLocked(playerID string, ev domain.Event) {
	if ch, ok := s.subscribers[playerID]; ok {
		sendEvent(ch, ev)
	}
}

// sendEvent pushes without blocking, dropping the oldest queued event for a
// slow consumer rather than stalling the session.
func sendEvent(ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) requireHostLocked(playerID string) error {
	p := s.findLocked(playerID)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	if !p.IsHost {
		return domain.ErrNotHost
	}
	return nil
}

func (s *Session) findLocked(playerID string) *domain.Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) allAnsweredLocked() bool {
	if len(s.players) == 0 {
		return false
	}
	for _, p := range s.players {
		if !p.HasAnswered {
			return false
		}
	}
	return true
}

func (s *Session) playersLocked() []domain.PlayerInfo {
	infos := make([]domain.PlayerInfo, 0, len(s.players))
	for _, p := range s.players {
		infos = append(infos, infoOf(p))
	}
	return infos
}

func (s *Session) scoresLocked() []domain.PlayerScore {
	scores := make([]domain.PlayerScore, 0, len(s.players))
	for _, p := range s.players {
		scores = append(scores, domain.PlayerScore{
			ID:     p.ID,
			Name:   p.Name,
			Score:  p.Score,
			Streak: p.Streak,
		})
	}
	return scores
}

func infoOf(p *domain.Player) domain.PlayerInfo {
	return domain.PlayerInfo{
		ID:          p.ID,
		Name:        p.Name,
		Score:       p.Score,
		Streak:      p.Streak,
		IsHost:      p.IsHost,
		HasAnswered: p.HasAnswered,
	}
}

func defaultName(playerID string) string {
	if len(playerID) > 4 {
		playerID = playerID[:4]
	}
	return fmt.Sprintf("Player %s", playerID)
}
