package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"trivia-lobby-service/internal/app"
	"trivia-lobby-service/internal/domain"
	"trivia-lobby-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

var lobbyCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog := memory.NewCatalogRepository(
		memory.NewStaticCatalogLoader(map[string][]domain.Question{
			"science": {
				{Prompt: "Chemical symbol for gold?", Options: []string{"Au", "Ag"}, Answer: "Au"},
				{Prompt: "Planet closest to the sun?", Options: []string{"Mercury", "Venus"}, Answer: "Mercury"},
			},
		}),
		time.Minute,
	)
	settings := app.DefaultSettings()
	settings.QuestionTime = time.Minute
	settings.RevealDelay = time.Hour
	service := app.NewLobbyService(memory.NewLobbyStore(), catalog, settings)

	handler := NewWSHandler(service)
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(inboundMessage{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// awaitEvent reads frames until one with the wanted type arrives, skipping
// interleaved broadcasts like timer ticks.
func awaitEvent(t *testing.T, conn *websocket.Conn, eventType string) wsEnvelope {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		if env.Type == eventType {
			return env
		}
	}
}

func createLobby(t *testing.T, conn *websocket.Conn, name string) domain.LobbyCreatedPayload {
	t.Helper()
	sendMessage(t, conn, msgCreateLobby, createLobbyPayload{PlayerName: name})
	env := awaitEvent(t, conn, domain.EventLobbyCreated)
	var created domain.LobbyCreatedPayload
	if err := json.Unmarshal(env.Payload, &created); err != nil {
		t.Fatalf("decode lobbyCreated: %v", err)
	}
	return created
}

func TestCreateLobbyOverWebsocket(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	created := createLobby(t, conn, "Alice")
	if !lobbyCodePattern.MatchString(created.LobbyID) {
		t.Fatalf("bad lobby code %q", created.LobbyID)
	}
	if created.PlayerID == "" {
		t.Fatalf("expected a player identity")
	}
	if len(created.Players) != 1 || !created.Players[0].IsHost {
		t.Fatalf("expected creator as host, got %+v", created.Players)
	}
	if len(created.AvailableCategories) != 1 || created.AvailableCategories[0] != "science" {
		t.Fatalf("unexpected categories %v", created.AvailableCategories)
	}
}

func TestJoinBroadcastsToExistingMembers(t *testing.T) {
	server := newTestServer(t)
	hostConn := dial(t, server)
	created := createLobby(t, hostConn, "Alice")

	joinerConn := dial(t, server)
	sendMessage(t, joinerConn, msgJoinLobby, joinLobbyPayload{LobbyID: created.LobbyID, PlayerName: "Bob"})

	env := awaitEvent(t, joinerConn, domain.EventJoinedLobby)
	var joined domain.JoinedLobbyPayload
	if err := json.Unmarshal(env.Payload, &joined); err != nil {
		t.Fatalf("decode joinedLobby: %v", err)
	}
	if joined.LobbyID != created.LobbyID || len(joined.Players) != 2 {
		t.Fatalf("unexpected join ack: %+v", joined)
	}
	if joined.GameState != domain.StateWaiting {
		t.Fatalf("expected waiting state, got %s", joined.GameState)
	}

	env = awaitEvent(t, hostConn, domain.EventPlayerJoined)
	var notice domain.PlayerJoinedPayload
	if err := json.Unmarshal(env.Payload, &notice); err != nil {
		t.Fatalf("decode playerJoined: %v", err)
	}
	if notice.JoinedPlayerName != "Bob" {
		t.Fatalf("expected Bob in broadcast, got %+v", notice)
	}
}

func TestJoinUnknownLobbyReturnsError(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	sendMessage(t, conn, msgJoinLobby, joinLobbyPayload{LobbyID: "ZZZZZZ", PlayerName: "Bob"})
	env := awaitEvent(t, conn, domain.EventLobbyError)
	var payload domain.ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Message == "" {
		t.Fatalf("expected an error message")
	}
}

func TestCategorySelectionReachesAllMembers(t *testing.T) {
	server := newTestServer(t)
	hostConn := dial(t, server)
	created := createLobby(t, hostConn, "Alice")

	joinerConn := dial(t, server)
	sendMessage(t, joinerConn, msgJoinLobby, joinLobbyPayload{LobbyID: created.LobbyID, PlayerName: "Bob"})
	awaitEvent(t, joinerConn, domain.EventJoinedLobby)

	sendMessage(t, hostConn, msgSelectCategory, categoryPayload{LobbyID: created.LobbyID, CategoryKey: "science"})

	env := awaitEvent(t, joinerConn, domain.EventCategoryUpdated)
	var updated domain.CategoryUpdatedPayload
	if err := json.Unmarshal(env.Payload, &updated); err != nil {
		t.Fatalf("decode categoryUpdated: %v", err)
	}
	if updated.CategoryKey != "science" {
		t.Fatalf("expected science, got %q", updated.CategoryKey)
	}
}

func TestStartGameFlowOverWebsocket(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)
	created := createLobby(t, conn, "Alice")

	sendMessage(t, conn, msgStartGame, categoryPayload{LobbyID: created.LobbyID, CategoryKey: "science"})

	awaitEvent(t, conn, domain.EventGameStarted)
	env := awaitEvent(t, conn, domain.EventNewQuestion)
	var question domain.NewQuestionPayload
	if err := json.Unmarshal(env.Payload, &question); err != nil {
		t.Fatalf("decode newQuestion: %v", err)
	}
	if question.QuestionIndex != 0 || question.TotalQuestions != 2 {
		t.Fatalf("unexpected question payload: %+v", question)
	}
	awaitEvent(t, conn, domain.EventTimerUpdate)

	sendMessage(t, conn, msgSubmitAnswer, submitAnswerPayload{
		LobbyID:       created.LobbyID,
		QuestionIndex: 0,
		Answer:        "Mercury",
	})
	env = awaitEvent(t, conn, domain.EventAnswerResult)
	var result domain.AnswerResultPayload
	if err := json.Unmarshal(env.Payload, &result); err != nil {
		t.Fatalf("decode answerResult: %v", err)
	}
	if result.CorrectAnswer == "" {
		t.Fatalf("expected the correct answer revealed to the submitter")
	}
	awaitEvent(t, conn, domain.EventQuestionOver)
}

func TestStartWithoutCategoryReturnsStartError(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)
	created := createLobby(t, conn, "Alice")

	sendMessage(t, conn, msgStartGame, categoryPayload{LobbyID: created.LobbyID})
	env := awaitEvent(t, conn, domain.EventStartGameError)
	var payload domain.ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Message == "" {
		t.Fatalf("expected an error message")
	}
}
