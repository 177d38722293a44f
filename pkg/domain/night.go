package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// GameMode selects between self-reported and device-verified play.
type GameMode string

// Game modes.
const (
	ModeCozy     GameMode = "cozy"
	ModeVerified GameMode = "verified"
)

// DisplayName returns the human readable label.
func (m GameMode) DisplayName() string {
	if m == ModeVerified {
		return "Verified"
	}
	return "Cozy"
}

// ParseGameMode validates a mode name.
func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(s) {
	case ModeCozy, ModeVerified:
		return GameMode(s), nil
	}
	return "", fmt.Errorf("unknown game mode %q", s)
}

// UnmarshalJSON rejects unknown modes.
func (m *GameMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseGameMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// NightSuccessLevel grades a night from zero to three stars.
type NightSuccessLevel int

// Night levels.
const (
	ZeroStars NightSuccessLevel = iota
	OneStar
	TwoStars
	ThreeStars
)

// Valid reports whether l is within zero to three stars.
func (l NightSuccessLevel) Valid() bool { return l >= ZeroStars && l <= ThreeStars }

// DisplayTitle returns the summary shown after a night is logged.
func (l NightSuccessLevel) DisplayTitle() string {
	switch l {
	case ThreeStars:
		return "Great night"
	case TwoStars:
		return "Okay night"
	case OneStar:
		return "Slipped"
	default:
		return "Rough night"
	}
}

// StarsText renders the level as stars.
func (l NightSuccessLevel) StarsText() string {
	switch l {
	case ThreeStars:
		return "⭐⭐⭐"
	case TwoStars:
		return "⭐⭐"
	case OneStar:
		return "⭐"
	default:
		return "☆"
	}
}

// KeepsStreak reports whether the night keeps the sleep streak alive.
func (l NightSuccessLevel) KeepsStreak() bool { return l >= TwoStars }

// Coins returns the coin reward for a night at this level.
func (l NightSuccessLevel) Coins() int {
	switch l {
	case ThreeStars:
		return 10
	case TwoStars:
		return 6
	case OneStar:
		return 2
	default:
		return 0
	}
}

// UnmarshalJSON rejects out-of-range levels.
func (l *NightSuccessLevel) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	lvl := NightSuccessLevel(n)
	if !lvl.Valid() {
		return fmt.Errorf("invalid night level %d", n)
	}
	*l = lvl
	return nil
}

// NightResult is the most recently logged night.
type NightResult struct {
	Date  time.Time         `json:"date"`
	Level NightSuccessLevel `json:"level"`
}
