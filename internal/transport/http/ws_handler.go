package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-lobby-service/internal/app"
	"trivia-lobby-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler is the broadcast gateway: it turns websocket frames into lobby
// commands and pumps session events back out. Each connection gets a stable
// player identity for its lifetime.
type WSHandler struct {
	service  *app.LobbyService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LobbyService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound message types.
const (
	msgCreateLobby    = "createLobby"
	msgJoinLobby      = "joinLobby"
	msgSelectCategory = "hostSelectedCategory"
	msgStartGame      = "startGame"
	msgSubmitAnswer   = "submitAnswer"
	msgTogglePause    = "hostTogglePause"
	msgSkipToEnd      = "hostSkipToEnd"
	msgPlayAgain      = "playAgain"
)

type createLobbyPayload struct {
	PlayerName string `json:"playerName"`
}

type joinLobbyPayload struct {
	LobbyID    string `json:"lobbyId"`
	PlayerName string `json:"playerName"`
}

type categoryPayload struct {
	LobbyID     string `json:"lobbyId"`
	CategoryKey string `json:"categoryKey"`
}

type submitAnswerPayload struct {
	LobbyID       string `json:"lobbyId"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the lobby
// use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	playerID := uuid.NewString()
	ctx := r.Context()

	send := make(chan domain.Event, 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for ev := range send {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var (
		lobbyCode   string
		cancelSub   func()
		updatesDone chan struct{}
	)

	// attach pumps one session's event stream into this connection's writer.
	attach := func(session *app.Session) {
		updates, cancel := session.Subscribe(playerID)
		cancelSub = cancel
		updatesDone = make(chan struct{})
		go func(ch <-chan domain.Event, done chan struct{}) {
			defer close(done)
			for {
				select {
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case send <- ev:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}(updates, updatesDone)
	}

	fail := func(eventType string, err error) {
		send <- domain.Event{
			Type:    eventType,
			Payload: domain.ErrorPayload{Message: err.Error()},
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case msgCreateLobby:
			if lobbyCode != "" {
				fail(domain.EventLobbyError, errors.New("already in a lobby"))
				continue
			}
			var payload createLobbyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.EventLobbyError, errors.New("invalid createLobby payload"))
				continue
			}
			session, categories, err := h.service.CreateLobby(ctx, playerID, payload.PlayerName)
			if err != nil {
				fail(domain.EventLobbyError, err)
				continue
			}
			lobbyCode = session.Code()
			attach(session)
			snap := session.Snapshot()
			send <- domain.Event{
				Type: domain.EventLobbyCreated,
				Payload: domain.LobbyCreatedPayload{
					LobbyID:             snap.Code,
					PlayerID:            playerID,
					Players:             snap.Players,
					AvailableCategories: categories,
				},
			}

		case msgJoinLobby:
			if lobbyCode != "" {
				fail(domain.EventLobbyError, errors.New("already in a lobby"))
				continue
			}
			var payload joinLobbyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.EventLobbyError, errors.New("invalid joinLobby payload"))
				continue
			}
			session, categories, err := h.service.JoinLobby(ctx, payload.LobbyID, playerID, payload.PlayerName)
			if err != nil {
				fail(domain.EventLobbyError, err)
				continue
			}
			lobbyCode = session.Code()
			attach(session)
			snap := session.Snapshot()
			send <- domain.Event{
				Type: domain.EventJoinedLobby,
				Payload: domain.JoinedLobbyPayload{
					LobbyID:             snap.Code,
					PlayerID:            playerID,
					Players:             snap.Players,
					GameState:           snap.State,
					SelectedCategory:    snap.SelectedCategory,
					AvailableCategories: categories,
					IsPaused:            snap.IsPaused,
					RemainingTime:       snap.RemainingTime,
				},
			}

		case msgSelectCategory:
			var payload categoryPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.EventLobbyError, errors.New("invalid category payload"))
				continue
			}
			if err := h.service.SelectCategory(ctx, lobbyCode, playerID, payload.CategoryKey); err != nil {
				fail(domain.EventLobbyError, err)
			}

		case msgStartGame:
			var payload categoryPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.EventStartGameError, errors.New("invalid startGame payload"))
				continue
			}
			if err := h.service.StartGame(ctx, lobbyCode, playerID, payload.CategoryKey); err != nil {
				fail(domain.EventStartGameError, err)
			}

		case msgSubmitAnswer:
			var payload submitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.EventLobbyError, errors.New("invalid answer payload"))
				continue
			}
			if err := h.service.SubmitAnswer(lobbyCode, playerID, payload.QuestionIndex, payload.Answer); err != nil {
				fail(domain.EventLobbyError, err)
			}

		case msgTogglePause:
			if err := h.service.TogglePause(lobbyCode, playerID); err != nil {
				fail(domain.EventLobbyError, err)
			}

		case msgSkipToEnd:
			if err := h.service.SkipToEnd(lobbyCode, playerID); err != nil {
				fail(domain.EventLobbyError, err)
			}

		case msgPlayAgain:
			if err := h.service.PlayAgain(ctx, lobbyCode, playerID); err != nil {
				fail(domain.EventLobbyError, err)
			}

		default:
			fail(domain.EventLobbyError, errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	if cancelSub != nil {
		cancelSub()
		<-updatesDone
	}
	close(send)
	<-writerDone

	if lobbyCode != "" {
		h.service.Disconnect(lobbyCode, playerID)
	}
}
