package app

import "time"

// ScoringPolicy computes points from correctness, response time, and the
// player's consecutive-correct streak. The weights are configuration, not a
// contract: any monotonically time-decreasing, streak-increasing combination
// behaves correctly as long as incorrect answers score zero.
type ScoringPolicy struct {
	BasePoints         int
	TimeBonusPerSecond int
	StreakBonus        int
}

// DefaultScoringPolicy matches the classic weights: 100 base, 5 per second
// remaining, 25 per consecutive correct answer after the first.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		BasePoints:         100,
		TimeBonusPerSecond: 5,
		StreakBonus:        25,
	}
}

// Score returns the points earned and the player's new streak. streakBefore
// is the streak prior to this answer; an incorrect answer resets it to zero
// and earns nothing.
func (p ScoringPolicy) Score(correct bool, elapsed, limit time.Duration, streakBefore int) (points, newStreak int) {
	if !correct {
		return 0, 0
	}
	newStreak = streakBefore + 1
	points = p.BasePoints
	if remaining := limit - elapsed; remaining > 0 {
		points += int(remaining.Seconds() * float64(p.TimeBonusPerSecond))
	}
	if newStreak > 1 {
		points += (newStreak - 1) * p.StreakBonus
	}
	return points, newStreak
}
