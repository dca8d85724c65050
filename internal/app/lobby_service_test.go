package app_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"trivia-lobby-service/internal/app"
	"trivia-lobby-service/internal/domain"
	"trivia-lobby-service/internal/infra/memory"
)

var lobbyCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newTestService(t *testing.T) *app.LobbyService {
	t.Helper()
	catalog := memory.NewCatalogRepository(
		memory.NewStaticCatalogLoader(map[string][]domain.Question{
			"geography": {
				{Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, Answer: "Paris"},
				{Prompt: "Capital of Italy?", Options: []string{"Paris", "Rome"}, Answer: "Rome"},
			},
			"science": {
				{Prompt: "Chemical symbol for gold?", Options: []string{"Au", "Ag"}, Answer: "Au"},
			},
		}),
		time.Minute,
	)
	settings := app.DefaultSettings()
	settings.QuestionTime = time.Minute
	settings.RevealDelay = time.Hour
	return app.NewLobbyService(memory.NewLobbyStore(), catalog, settings)
}

func TestCreateLobbyCodeFormat(t *testing.T) {
	service := newTestService(t)

	session, categories, err := service.CreateLobby(context.Background(), "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !lobbyCodePattern.MatchString(session.Code()) {
		t.Fatalf("bad lobby code %q", session.Code())
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %v", categories)
	}

	snap := session.Snapshot()
	if len(snap.Players) != 1 || !snap.Players[0].IsHost {
		t.Fatalf("expected creator seeded as host, got %+v", snap.Players)
	}
}

func TestCreateLobbyCodesAreUnique(t *testing.T) {
	service := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, _, err := service.CreateLobby(context.Background(), "host", "Alice")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[session.Code()] {
			t.Fatalf("duplicate lobby code %q", session.Code())
		}
		seen[session.Code()] = true
	}
}

func TestJoinUnknownLobby(t *testing.T) {
	service := newTestService(t)

	if _, _, err := service.JoinLobby(context.Background(), "ZZZZZZ", "p1", "Bob"); !errors.Is(err, domain.ErrLobbyNotFound) {
		t.Fatalf("expected ErrLobbyNotFound, got %v", err)
	}
}

func TestSelectCategoryValidatesAgainstCatalog(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()

	if err := service.SelectCategory(ctx, code, "host", "astrology"); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if err := service.SelectCategory(ctx, code, "host", "geography"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := session.Snapshot().SelectedCategory; got != "geography" {
		t.Fatalf("expected stored selection, got %q", got)
	}
	// Clearing the selection needs no catalog lookup.
	if err := service.SelectCategory(ctx, code, "host", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestStartGameUsesStoredSelection(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()

	if err := service.StartGame(ctx, code, "host", ""); !errors.Is(err, domain.ErrNoCategorySelected) {
		t.Fatalf("expected ErrNoCategorySelected, got %v", err)
	}
	if err := service.SelectCategory(ctx, code, "host", "science"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := service.StartGame(ctx, code, "host", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := session.Snapshot()
	if snap.State != domain.StateActive {
		t.Fatalf("expected active, got %s", snap.State)
	}
	if snap.SelectedCategory != "science" {
		t.Fatalf("expected stored selection used, got %q", snap.SelectedCategory)
	}
	if err := service.StartGame(ctx, code, "host", ""); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress on double start, got %v", err)
	}
	if err := service.SkipToEnd(code, "host"); err != nil {
		t.Fatalf("cleanup skip: %v", err)
	}
}

func TestStartGameUnknownCategory(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.StartGame(ctx, session.Code(), "host", "astrology"); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if got := session.Snapshot().State; got != domain.StateWaiting {
		t.Fatalf("expected still waiting, got %s", got)
	}
}

func TestFullRoundThroughService(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if _, _, err := service.JoinLobby(ctx, code, "p2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.StartGame(ctx, code, "host", "science"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.SubmitAnswer(code, "host", 0, "Au"); err != nil {
		t.Fatalf("host answer: %v", err)
	}
	if err := service.SubmitAnswer(code, "p2", 0, "Ag"); err != nil {
		t.Fatalf("p2 answer: %v", err)
	}
	if err := service.SkipToEnd(code, "host"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if got := session.Snapshot().State; got != domain.StateFinished {
		t.Fatalf("expected finished, got %s", got)
	}

	if err := service.PlayAgain(ctx, code, "host"); err != nil {
		t.Fatalf("play again: %v", err)
	}
	snap := session.Snapshot()
	if snap.State != domain.StateWaiting {
		t.Fatalf("expected waiting after play again, got %s", snap.State)
	}
	if snap.SelectedCategory != "" {
		t.Fatalf("expected selection cleared after play again, got %q", snap.SelectedCategory)
	}
}

func TestDisconnectDeletesEmptyLobby(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()

	service.Disconnect(code, "host")

	if _, _, err := service.JoinLobby(ctx, code, "p2", "Bob"); !errors.Is(err, domain.ErrLobbyNotFound) {
		t.Fatalf("expected lobby deleted after last disconnect, got %v", err)
	}
}

func TestDisconnectKeepsPopulatedLobby(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	session, _, err := service.CreateLobby(ctx, "host", "Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	code := session.Code()
	if _, _, err := service.JoinLobby(ctx, code, "p2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	service.Disconnect(code, "host")

	joined, _, err := service.JoinLobby(ctx, code, "p3", "Cleo")
	if err != nil {
		t.Fatalf("expected lobby to survive, got %v", err)
	}
	snap := joined.Snapshot()
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 players, got %+v", snap.Players)
	}
	if snap.Players[0].ID != "p2" || !snap.Players[0].IsHost {
		t.Fatalf("expected p2 promoted to host, got %+v", snap.Players)
	}
}
