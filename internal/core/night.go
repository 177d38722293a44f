package core

import (
	"time"

	"countingsheep/internal/signals"
	"countingsheep/pkg/domain"
)

// LogNight records last night's rating, extends or resets the night streak,
// and pays out the rating's coins.
func (e Engine) LogNight(s domain.State, level domain.NightSuccessLevel, now time.Time) domain.State {
	out := s.Clone()
	out.LastNightResult = &domain.NightResult{Date: now, Level: level}
	if level.KeepsStreak() {
		out.Streak++
	} else {
		out.Streak = 0
	}
	out.Coins += level.Coins()
	return out
}

// LogNightFromUsageMinutes rates the night with policy, remembers the raw
// reading and logs the night.
func (e Engine) LogNightFromUsageMinutes(s domain.State, minutes int, policy signals.UsagePolicy, now time.Time) (domain.State, domain.NightSuccessLevel) {
	level := policy.Level(minutes)
	out := e.LogNight(s, level, now)
	m := minutes
	out.LastUsageMinutes = &m
	return out, level
}
