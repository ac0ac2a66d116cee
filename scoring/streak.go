package scoring

import (
	"fmt"
	"strings"
)

// StreakPolicy decides what happens to a streak when activity resumes after
// more than one idle day.
type StreakPolicy string

const (
	// StreakReset starts over at 1 after a gap.
	StreakReset StreakPolicy = "reset"
	// StreakFreeze keeps the streak as it was.
	StreakFreeze StreakPolicy = "freeze"
	// StreakIncrement counts any later day, gap or not.
	StreakIncrement StreakPolicy = "increment"
)

const secondsPerDay = 86400

// ParseStreakPolicy maps a config value to a policy; empty means StreakReset.
func ParseStreakPolicy(s string) (StreakPolicy, error) {
	switch p := StreakPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return StreakReset, nil
	case StreakReset, StreakFreeze, StreakIncrement:
		return p, nil
	default:
		return "", fmt.Errorf("unknown streak policy %q", s)
	}
}

// NextStreak returns the streak after an activity at now (unix seconds) given
// the previous activity at last. Days are UTC calendar days. now < last is
// treated as the same instant.
func (p StreakPolicy) NextStreak(streak uint64, last, now int64) uint64 {
	if now < last {
		now = last
	}
	lastDay, nowDay := last/secondsPerDay, now/secondsPerDay
	switch gap := nowDay - lastDay; {
	case gap == 0:
		return streak
	case gap == 1:
		return streak + 1
	}
	switch p {
	case StreakFreeze:
		return streak
	case StreakIncrement:
		return streak + 1
	default:
		return 1
	}
}
