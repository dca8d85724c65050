package domain

// GameState is the lifecycle phase of a lobby session.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StateActive   GameState = "active"
	StateFinished GameState = "finished"
)

// Player is one connected participant, owned by exactly one session.
// ID is connection-scoped and stable for the connection's lifetime.
type Player struct {
	ID          string
	Name        string
	Score       int
	Streak      int
	IsHost      bool
	HasAnswered bool
}

// Question models an MCQ question whose answer equals exactly one option.
// Catalog content is immutable; sessions shuffle their own copy.
type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// AnswerRecord is the write-once result of one player's submission for one
// question index. Duplicates are rejected, never overwritten.
type AnswerRecord struct {
	Answer    string
	Correct   bool
	Points    int
	TimeTaken float64 // seconds
}

// PlayerInfo is the wire-friendly view of a player used in rosters.
type PlayerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Streak      int    `json:"streak"`
	IsHost      bool   `json:"isHost"`
	HasAnswered bool   `json:"hasAnswered"`
}

// PlayerScore is the compact scoreboard entry broadcast between questions.
type PlayerScore struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

// FinalScore is one row of the end-of-game leaderboard. OriginalID lets
// clients identify themselves in the standings.
type FinalScore struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	OriginalID string `json:"originalId"`
}
