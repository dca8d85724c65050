package app

import (
	"math"
	"sync"
	"time"

	"trivia-lobby-service/internal/domain"
)

// countdown is the cancellable per-question timer. At most one instance is
// live per session; every state transition stops the old one before anything
// new is scheduled.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// startCountdownLocked broadcasts an immediate tick carrying the ceiling of
// the duration, then drives the per-second ticks and the final deadline from
// a dedicated goroutine. Callbacks carry the generation they were scheduled
// under and re-validate it inside the session lock, so a countdown that was
// cancelled mid-flight can never act on a later question or state.
func (s *Session) startCountdownLocked(d time.Duration) {
	s.stopCountdownLocked()
	gen := s.timerGen
	c := &countdown{stop: make(chan struct{})}
	s.countdown = c
	s.countdownLeft = d

	secs := int(math.Ceil(d.Seconds()))
	s.broadcastLocked(domain.Event{
		Type:    domain.EventTimerUpdate,
		Payload: domain.TimerUpdatePayload{SecondsLeft: secs},
	})
	go s.runCountdown(c, gen, secs, d)
}

// stopCountdownLocked invalidates all previously scheduled timer work by
// bumping the generation, then halts the running countdown goroutine.
func (s *Session) stopCountdownLocked() {
	s.timerGen++
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.countdownLeft = 0
}

func (s *Session) runCountdown(c *countdown, gen, secondsLeft int, d time.Duration) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			secondsLeft--
			if secondsLeft >= 0 {
				s.onTick(gen, secondsLeft)
			}
		case <-deadline.C:
			s.onDeadline(gen)
			return
		}
	}
}

func (s *Session) onTick(gen, secondsLeft int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.paused || s.state != domain.StateActive {
		return
	}
	s.broadcastLocked(domain.Event{
		Type:    domain.EventTimerUpdate,
		Payload: domain.TimerUpdatePayload{SecondsLeft: secondsLeft},
	})
}

// onDeadline fires question-end processing unless the generation is stale,
// meaning the question already ended through the all-answered path or a state
// transition. The generation check makes the two triggers mutually exclusive.
func (s *Session) onDeadline(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.paused || s.state != domain.StateActive || !s.questionOpen {
		return
	}
	s.stopCountdownLocked()
	s.endQuestionLocked()
}
