package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty is the learner's own rating of how hard a card was to recall.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyConfusing Difficulty = "confusing"
	DifficultyHard      Difficulty = "hard"
)

// ErrInvalidDifficulty is returned by ParseDifficulty for unknown ratings.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// Difficulties lists the accepted ratings, easiest first.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyConfusing, DifficultyHard}

func (d Difficulty) String() string {
	return string(d)
}

// IsValid reports whether d is one of easy, confusing or hard.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyConfusing, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty accepts a rating case-insensitively and rejects anything else.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// ReviewScheduleEntry is the next due review of one card.
type ReviewScheduleEntry struct {
	CardID      string     `json:"cardId"`
	Difficulty  Difficulty `json:"difficulty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
}

// ReviewCounts buckets schedule entries by calendar day relative to a base time.
type ReviewCounts struct {
	TodayCount    int `json:"todayCount"`
	UpcomingCount int `json:"upcomingCount"`
	OverdueCount  int `json:"overdueCount"`
}
