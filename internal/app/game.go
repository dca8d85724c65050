package app

import (
	"log"
	"sort"
	"time"

	"trivia-lobby-service/internal/domain"
)

// PrepareStart resolves which category a start request should use: the
// session's stored selection wins, falling back to the key the client sent.
// Only the host may start, and only from the waiting state.
func (s *Session) PrepareStart(playerID, clientKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return "", err
	}
	if s.state != domain.StateWaiting {
		return "", domain.ErrGameInProgress
	}
	category := s.selectedCategory
	if category == "" {
		category = clientKey
	}
	if category == "" {
		return "", domain.ErrNoCategorySelected
	}
	return category, nil
}

// StartGame begins a new run with a freshly shuffled copy of the category's
// questions. Every player's score, streak, and answered flag reset, then the
// session advances straight into the first question. An empty question list
// clears the selection so the host has to pick again.
func (s *Session) StartGame(playerID, category string, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}
	if s.state != domain.StateWaiting {
		return domain.ErrGameInProgress
	}
	if len(questions) == 0 {
		s.selectedCategory = ""
		s.broadcastLocked(domain.Event{
			Type:    domain.EventCategoryUpdated,
			Payload: domain.CategoryUpdatedPayload{CategoryKey: ""},
		})
		return domain.ErrEmptyCategory
	}

	s.selectedCategory = category
	s.questions = make([]domain.Question, len(questions))
	copy(s.questions, questions)
	s.rng.Shuffle(len(s.questions), func(i, j int) {
		s.questions[i], s.questions[j] = s.questions[j], s.questions[i]
	})

	for _, p := range s.players {
		p.Score = 0
		p.Streak = 0
		p.HasAnswered = false
	}
	s.state = domain.StateActive
	s.questionIndex = -1
	s.answers = make(map[int]map[string]domain.AnswerRecord)

	s.broadcastLocked(domain.Event{
		Type: domain.EventGameStarted,
		Payload: domain.GameStartedPayload{
			Category: category,
			Players:  s.playersLocked(),
		},
	})
	s.advanceLocked()
	return nil
}

// advanceLocked moves the session to the next question, or to the finished
// state once the shuffled list is exhausted.
func (s *Session) advanceLocked() {
	if s.state != domain.StateActive {
		return
	}
	if len(s.questions) == 0 {
		// Broken state: active with no questions. End cleanly rather than hang.
		log.Printf("lobby %s: no questions while active, forcing game over", s.code)
		s.finishLocked()
		return
	}

	for _, p := range s.players {
		p.HasAnswered = false
	}
	s.questionIndex++
	if s.questionIndex >= len(s.questions) {
		s.finishLocked()
		return
	}

	question := s.questions[s.questionIndex]
	s.questionOpen = true
	s.questionStart = s.now()

	s.broadcastLocked(domain.Event{
		Type: domain.EventNewQuestion,
		Payload: domain.NewQuestionPayload{
			Question:       question.Prompt,
			Options:        question.Options,
			QuestionIndex:  s.questionIndex,
			TotalQuestions: len(s.questions),
			TimeLimit:      s.settings.QuestionTime.Seconds(),
			Category:       s.selectedCategory,
		},
	})
	s.broadcastLocked(domain.Event{
		Type:    domain.EventUpdateScores,
		Payload: domain.UpdateScoresPayload{Players: s.scoresLocked()},
	})
	s.startCountdownLocked(s.settings.QuestionTime)
}

// SubmitAnswer scores one player's answer for the current question. When the
// last unanswered player submits, the countdown is cancelled and question-end
// processing fires immediately instead of waiting out the clock.
func (s *Session) SubmitAnswer(playerID string, questionIndex int, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return domain.ErrGameNotActive
	}
	if s.paused {
		return domain.ErrPaused
	}
	if !s.questionOpen || questionIndex != s.questionIndex {
		return domain.ErrStaleAnswer
	}
	player := s.findLocked(playerID)
	if player == nil {
		return domain.ErrPlayerNotFound
	}
	if player.HasAnswered {
		return domain.ErrDuplicateAnswer
	}
	if _, exists := s.answers[questionIndex][playerID]; exists {
		return domain.ErrDuplicateAnswer
	}

	question := s.questions[s.questionIndex]
	elapsed := s.now().Sub(s.questionStart)
	correct := answer == question.Answer
	points, streak := s.settings.Scoring.Score(correct, elapsed, s.settings.QuestionTime, player.Streak)
	player.Streak = streak
	player.Score += points
	if player.Score < 0 {
		player.Score = 0
	}
	player.HasAnswered = true

	if s.answers[questionIndex] == nil {
		s.answers[questionIndex] = make(map[string]domain.AnswerRecord)
	}
	s.answers[questionIndex][playerID] = domain.AnswerRecord{
		Answer:    answer,
		Correct:   correct,
		Points:    points,
		TimeTaken: elapsed.Seconds(),
	}

	s.unicastLocked(playerID, domain.Event{
		Type: domain.EventAnswerResult,
		Payload: domain.AnswerResultPayload{
			IsCorrect:     correct,
			CorrectAnswer: question.Answer,
			Score:         player.Score,
			Streak:        player.Streak,
			PointsEarned:  points,
		},
	})

	if s.allAnsweredLocked() {
		s.stopCountdownLocked()
		s.endQuestionLocked()
	}
	return nil
}

// endQuestionLocked reveals the answer and schedules the next advance after
// the reveal delay. The questionOpen flag guarantees it runs at most once per
// question regardless of which trigger got here first.
func (s *Session) endQuestionLocked() {
	if s.state != domain.StateActive || !s.questionOpen {
		return
	}
	s.questionOpen = false

	question := s.questions[s.questionIndex]
	s.broadcastLocked(domain.Event{
		Type: domain.EventQuestionOver,
		Payload: domain.QuestionOverPayload{
			CorrectAnswer: question.Answer,
			Scores:        s.scoresLocked(),
		},
	})

	gen := s.timerGen
	time.AfterFunc(s.settings.RevealDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.timerGen || s.state != domain.StateActive {
			return
		}
		s.advanceLocked()
	})
}

// TogglePause freezes or resumes the in-flight question. Pausing captures the
// remaining time; resuming synthesizes a question start such that exactly the
// captured remainder is left on the clock.
func (s *Session) TogglePause(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}
	if s.state != domain.StateActive || !s.questionOpen {
		return domain.ErrNotPausable
	}

	if !s.paused {
		s.stopCountdownLocked()
		remaining := s.settings.QuestionTime - s.now().Sub(s.questionStart)
		if remaining < 0 {
			remaining = 0
		}
		s.paused = true
		s.remainingOnPause = remaining
		s.broadcastLocked(domain.Event{
			Type:    domain.EventGamePaused,
			Payload: domain.GamePausedPayload{RemainingTime: remaining.Seconds()},
		})
		return nil
	}

	remaining := s.remainingOnPause
	s.paused = false
	s.remainingOnPause = 0
	s.questionStart = s.now().Add(-(s.settings.QuestionTime - remaining))
	s.broadcastLocked(domain.Event{
		Type:    domain.EventGameResumed,
		Payload: domain.GameResumedPayload{},
	})
	s.startCountdownLocked(remaining)
	return nil
}

// SkipToEnd lets the host abandon the remaining questions and jump straight
// to the final leaderboard.
func (s *Session) SkipToEnd(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}
	if s.state != domain.StateActive {
		return domain.ErrGameNotActive
	}
	if s.paused {
		return domain.ErrPaused
	}
	s.finishLocked()
	return nil
}

// finishLocked computes the final leaderboard (score descending, ties broken
// by original join order) and moves the session to the finished state.
func (s *Session) finishLocked() {
	s.stopCountdownLocked()
	s.questionOpen = false
	s.paused = false
	s.remainingOnPause = 0
	s.state = domain.StateFinished

	final := make([]domain.FinalScore, 0, len(s.players))
	for _, p := range s.players {
		final = append(final, domain.FinalScore{
			Name:       p.Name,
			Score:      p.Score,
			OriginalID: p.ID,
		})
	}
	sort.SliceStable(final, func(i, j int) bool {
		return final[i].Score > final[j].Score
	})

	s.broadcastLocked(domain.Event{
		Type:    domain.EventGameOver,
		Payload: domain.GameOverPayload{FinalScores: final},
	})
}

// Reset returns the lobby to the waiting state for another round. Scores,
// streaks, the question list, and the selected category are all cleared; the
// host has to pick a category again.
func (s *Session) Reset(playerID string, availableCategories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}
	if s.state == domain.StateActive {
		return domain.ErrGameInProgress
	}

	s.stopCountdownLocked()
	for _, p := range s.players {
		p.Score = 0
		p.Streak = 0
		p.HasAnswered = false
	}
	s.questions = nil
	s.questionIndex = -1
	s.selectedCategory = ""
	s.paused = false
	s.remainingOnPause = 0
	s.questionOpen = false
	s.answers = make(map[int]map[string]domain.AnswerRecord)
	s.state = domain.StateWaiting

	s.broadcastLocked(domain.Event{
		Type: domain.EventLobbyReset,
		Payload: domain.LobbyResetPayload{
			LobbyID:             s.code,
			Players:             s.playersLocked(),
			GameState:           s.state,
			AvailableCategories: availableCategories,
			SelectedCategory:    "",
		},
	})
	return nil
}
