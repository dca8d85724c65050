package domain

// Event is one outbound message destined for a lobby member. Type names match
// the client protocol; Payload is one of the typed payload structs below.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Outbound event types.
const (
	EventLobbyCreated    = "lobbyCreated"
	EventJoinedLobby     = "joinedLobby"
	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventHostChanged     = "hostChanged"
	EventCategoryUpdated = "categoryUpdatedByHost"
	EventLobbyError      = "lobbyError"
	EventStartGameError  = "startGameError"
	EventGameStarted     = "gameStarted"
	EventNewQuestion     = "newQuestion"
	EventUpdateScores    = "updateScores"
	EventTimerUpdate     = "timerUpdate"
	EventAnswerResult    = "answerResult"
	EventQuestionOver    = "questionOver"
	EventGamePaused      = "gamePaused"
	EventGameResumed     = "gameResumed"
	EventGameOver        = "gameOver"
	EventLobbyReset      = "lobbyResetForPlayAgain"
)

// LobbyCreatedPayload acknowledges lobby creation to the host connection.
type LobbyCreatedPayload struct {
	LobbyID             string       `json:"lobbyId"`
	PlayerID            string       `json:"playerId"`
	Players             []PlayerInfo `json:"players"`
	AvailableCategories []string     `json:"availableCategories"`
}

// JoinedLobbyPayload acknowledges a join to the joining connection. The
// pause fields let late joiners render an in-flight question correctly.
type JoinedLobbyPayload struct {
	LobbyID             string       `json:"lobbyId"`
	PlayerID            string       `json:"playerId"`
	Players             []PlayerInfo `json:"players"`
	GameState           GameState    `json:"gameState"`
	SelectedCategory    string       `json:"selectedCategory,omitempty"`
	AvailableCategories []string     `json:"availableCategories"`
	IsPaused            bool         `json:"isPaused"`
	RemainingTime       *float64     `json:"remainingTime,omitempty"`
}

// PlayerJoinedPayload notifies existing members about a new arrival.
type PlayerJoinedPayload struct {
	Players          []PlayerInfo `json:"players"`
	JoinedPlayerID   string       `json:"joinedPlayerId"`
	JoinedPlayerName string       `json:"joinedPlayerName"`
	SelectedCategory string       `json:"selectedCategory,omitempty"`
}

// PlayerLeftPayload notifies members that a player disconnected.
type PlayerLeftPayload struct {
	Players                []PlayerInfo `json:"players"`
	DisconnectedPlayerName string       `json:"disconnectedPlayerName"`
	SelectedCategory       string       `json:"selectedCategory,omitempty"`
}

// HostChangedPayload announces host migration, distinct from the roster update.
type HostChangedPayload struct {
	NewHostID string       `json:"newHostId"`
	Players   []PlayerInfo `json:"players"`
}

// CategoryUpdatedPayload carries the host's (possibly cleared) selection.
type CategoryUpdatedPayload struct {
	CategoryKey string `json:"categoryKey"`
}

// ErrorPayload carries a recoverable error back to the originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// GameStartedPayload announces a game start to all members.
type GameStartedPayload struct {
	Category string       `json:"category"`
	Players  []PlayerInfo `json:"players"`
}

// NewQuestionPayload broadcasts the next question. The correct answer is
// deliberately absent.
type NewQuestionPayload struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	QuestionIndex  int      `json:"questionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	TimeLimit      float64  `json:"timeLimit"`
	Category       string   `json:"category"`
}

// UpdateScoresPayload refreshes the live scoreboard.
type UpdateScoresPayload struct {
	Players []PlayerScore `json:"players"`
}

// TimerUpdatePayload is the once-per-second countdown broadcast.
type TimerUpdatePayload struct {
	SecondsLeft int `json:"secondsLeft"`
}

// AnswerResultPayload is unicast to the submitter after scoring.
type AnswerResultPayload struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Streak        int    `json:"streak"`
	PointsEarned  int    `json:"pointsEarned"`
}

// QuestionOverPayload reveals the answer and current standings.
type QuestionOverPayload struct {
	CorrectAnswer string        `json:"correctAnswer"`
	Scores        []PlayerScore `json:"scores"`
}

// GamePausedPayload freezes client timers at the captured remainder.
type GamePausedPayload struct {
	RemainingTime float64 `json:"remainingTime"`
}

// GameResumedPayload signals the countdown restarting.
type GameResumedPayload struct{}

// GameOverPayload carries the final leaderboard, sorted by score with ties
// broken by original join order.
type GameOverPayload struct {
	FinalScores []FinalScore `json:"finalScores"`
}

// LobbyResetPayload returns the lobby to the waiting state for another round.
type LobbyResetPayload struct {
	LobbyID             string       `json:"lobbyId"`
	Players             []PlayerInfo `json:"players"`
	GameState           GameState    `json:"gameState"`
	AvailableCategories []string     `json:"availableCategories"`
	SelectedCategory    string       `json:"selectedCategory,omitempty"`
}
