// Package core applies the habit rules to the game state and owns the single
// live copy of that state for a process.
package core

import (
	"time"

	"countingsheep/pkg/domain"
)

// Engine applies check-ins, shearing and night logs to state snapshots. Every
// method returns a new state and leaves its input untouched. Engine
// operations are total: unknown habit ids and failed gates are no-ops.
type Engine struct {
	Calendar domain.Calendar
}

// NewEngine returns an engine resolving day boundaries with cal.
func NewEngine(cal domain.Calendar) Engine {
	return Engine{Calendar: cal}
}

// ApplyCheckIn credits or resets each habit named in results and then
// advances the aggregate check-in streak once. Habits absent from results
// are not touched; ids that match no habit are ignored.
func (e Engine) ApplyCheckIn(s domain.State, results map[string]bool, now time.Time) domain.State {
	out := s.Clone()
	for i := range out.Habits {
		didIt, ok := results[out.Habits[i].HabitID]
		if !ok {
			continue
		}
		applyResult(&out.Habits[i], didIt, now, e.Calendar)
	}
	e.advanceStreak(&out, now)
	return out
}

// MarkHabitCompletedToday credits one habit. It returns the input unchanged,
// and false, when the habit is unknown or already completed today.
func (e Engine) MarkHabitCompletedToday(s domain.State, habitID string, now time.Time) (domain.State, bool) {
	i := s.HabitIndex(habitID)
	if i < 0 || s.Habits[i].CompletedOn(now, e.Calendar) {
		return s, false
	}
	out := s.Clone()
	out.Habits[i].Credit(now, e.Calendar)
	e.advanceStreak(&out, now)
	return out, true
}

// RecordHabitResult applies one habit's result and advances the streak. An
// unknown habit leaves the state unchanged and returns false.
func (e Engine) RecordHabitResult(s domain.State, habitID string, didIt bool, now time.Time) (domain.State, bool) {
	i := s.HabitIndex(habitID)
	if i < 0 {
		return s, false
	}
	out := s.Clone()
	applyResult(&out.Habits[i], didIt, now, e.Calendar)
	e.advanceStreak(&out, now)
	return out, true
}

func applyResult(h *domain.HabitRecord, didIt bool, now time.Time, cal domain.Calendar) {
	if didIt {
		h.Credit(now, cal)
		return
	}
	h.Miss()
}

// advanceStreak: same day keeps the streak, the day after extends it, any
// other gap (or no previous check-in) restarts it at one.
func (e Engine) advanceStreak(s *domain.State, now time.Time) {
	prev := s.LastCheckInDate
	at := now
	s.LastCheckInDate = &at
	switch {
	case prev == nil:
		s.CheckInStreak = 1
	case e.Calendar.SameDay(*prev, now):
	case e.Calendar.IsYesterday(*prev, now):
		s.CheckInStreak++
	default:
		s.CheckInStreak = 1
	}
}
