package app

import (
	"context"
	"fmt"
	"log"

	"trivia-lobby-service/internal/domain"
)

// LobbyStore abstracts how live sessions are indexed by lobby code
// (in-memory, Redis-marked, etc).
type LobbyStore interface {
	// Put stores the session under code, returning false if the code is taken.
	Put(code string, session *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string)
}

// CatalogRepository loads question categories (from cache/backing store).
type CatalogRepository interface {
	Categories(ctx context.Context) ([]string, error)
	Questions(ctx context.Context, category string) ([]domain.Question, error)
}

// LobbyService contains the core lobby use cases. It owns the registry of
// live sessions and is the only code that creates or destroys them.
type LobbyService struct {
	lobbies  LobbyStore
	catalog  CatalogRepository
	settings Settings
	codes    *codeGenerator
}

func NewLobbyService(store LobbyStore, catalog CatalogRepository, settings Settings) *LobbyService {
	return &LobbyService{
		lobbies:  store,
		catalog:  catalog,
		settings: settings,
		codes:    newCodeGenerator(),
	}
}

// Categories lists the catalog's known category keys.
func (s *LobbyService) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.Categories(ctx)
}

// CreateLobby allocates a collision-free code, creates the session, and seeds
// the creator as host. The category list is returned for the creation ack.
func (s *LobbyService) CreateLobby(ctx context.Context, playerID, playerName string) (*Session, []string, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}

	var session *Session
	for attempt := 0; ; attempt++ {
		code := s.codes.next()
		session = NewSession(code, s.settings)
		if s.lobbies.Put(code, session) {
			break
		}
		if attempt >= 10 {
			return nil, nil, fmt.Errorf("could not allocate a unique lobby code")
		}
	}

	if _, err := session.AddPlayer(playerID, playerName); err != nil {
		s.lobbies.Delete(session.Code())
		return nil, nil, err
	}
	log.Printf("lobby %s created by %s", session.Code(), playerID)
	return session, categories, nil
}

// JoinLobby adds a player to an existing lobby.
func (s *LobbyService) JoinLobby(ctx context.Context, code, playerID, playerName string) (*Session, []string, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	session, ok := s.lobbies.Get(code)
	if !ok {
		return nil, nil, domain.ErrLobbyNotFound
	}
	if _, err := session.AddPlayer(playerID, playerName); err != nil {
		return nil, nil, err
	}
	log.Printf("player %s joined lobby %s", playerID, code)
	return session, categories, nil
}

// SelectCategory validates the host's pick against the catalog and stores it
// on the session. An empty key clears the selection without validation.
func (s *LobbyService) SelectCategory(ctx context.Context, code, playerID, categoryKey string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	if categoryKey != "" {
		if _, err := s.catalog.Questions(ctx, categoryKey); err != nil {
			return err
		}
	}
	return session.SetCategory(playerID, categoryKey)
}

// StartGame resolves the category, loads its questions, and starts the run.
func (s *LobbyService) StartGame(ctx context.Context, code, playerID, categoryKey string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	category, err := session.PrepareStart(playerID, categoryKey)
	if err != nil {
		return err
	}
	questions, err := s.catalog.Questions(ctx, category)
	if err != nil {
		return err
	}
	return session.StartGame(playerID, category, questions)
}

// SubmitAnswer records a player's answer for the given question index.
func (s *LobbyService) SubmitAnswer(code, playerID string, questionIndex int, answer string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	return session.SubmitAnswer(playerID, questionIndex, answer)
}

// TogglePause pauses or resumes the in-flight question.
func (s *LobbyService) TogglePause(code, playerID string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	return session.TogglePause(playerID)
}

// SkipToEnd forces the game straight to the final leaderboard.
func (s *LobbyService) SkipToEnd(code, playerID string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	return session.SkipToEnd(playerID)
}

// PlayAgain resets a finished lobby back to the waiting state.
func (s *LobbyService) PlayAgain(ctx context.Context, code, playerID string) error {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	return session.Reset(playerID, categories)
}

// Disconnect removes a player from their lobby and destroys the lobby once
// its last player leaves.
func (s *LobbyService) Disconnect(code, playerID string) {
	session, ok := s.lobbies.Get(code)
	if !ok {
		return
	}
	departure := session.RemovePlayer(playerID)
	if departure.Found && departure.Empty {
		s.lobbies.Delete(code)
		log.Printf("lobby %s is empty, deleting", code)
	}
}
