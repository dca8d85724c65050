package domain

import "errors"

var (
	// ErrLobbyNotFound is returned when no live lobby matches the given code.
	ErrLobbyNotFound = errors.New("lobby not found")
	// ErrLobbyFull is returned when a join would exceed the lobby capacity.
	ErrLobbyFull = errors.New("lobby is full")
	// ErrGameFinished rejects joins into a finished game.
	ErrGameFinished = errors.New("game already finished")
	// ErrNotHost rejects privileged actions from non-host players.
	ErrNotHost = errors.New("only the host may do that")
	// ErrGameNotActive rejects in-game actions outside the active state.
	ErrGameNotActive = errors.New("game is not active")
	// ErrGameInProgress rejects start/restart while a game is running.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrInvalidCategory indicates an unknown category key.
	ErrInvalidCategory = errors.New("unknown question category")
	// ErrNoCategorySelected indicates start was requested without a category.
	ErrNoCategorySelected = errors.New("no category selected")
	// ErrEmptyCategory indicates the category resolved but has zero questions.
	ErrEmptyCategory = errors.New("category has no questions")
	// ErrStaleAnswer rejects submissions for a question that is not current.
	ErrStaleAnswer = errors.New("answer is for a different question")
	// ErrDuplicateAnswer rejects a second submission for the same question.
	ErrDuplicateAnswer = errors.New("already answered this question")
	// ErrPlayerNotFound is returned when a player ID is not in the session.
	ErrPlayerNotFound = errors.New("player not found in lobby")
	// ErrNotPausable rejects pause toggles outside the active state.
	ErrNotPausable = errors.New("game cannot be paused right now")
	// ErrPaused rejects actions that require an unpaused game.
	ErrPaused = errors.New("game is paused")
)
