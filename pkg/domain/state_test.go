package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultState(t *testing.T) {
	now := time.Date(2026, time.October, 14, 15, 4, 0, 0, time.UTC)
	s := DefaultState(utcCal, now)
	assert.Equal(t, ModeCozy, s.Mode)
	assert.Equal(t, time.Date(2026, time.October, 14, 22, 30, 0, 0, time.UTC), s.BedtimeStart)
	assert.Equal(t, time.Date(2026, time.October, 14, 7, 0, 0, 0, time.UTC), s.BedtimeEnd)
	assert.Equal(t, 8.0, s.SleepGoalHours)
	assert.NotNil(t, s.Habits)
	assert.Equal(t, 1, s.SheepCount())
}

func TestStateCloneIsolation(t *testing.T) {
	s := DefaultState(utcCal, time.Now())
	s.Habits = append(s.Habits, NewHabitRecord("a", "A", "", 0))
	cp := s.Clone()
	cp.Habits[0].WoolKg = 99
	cp.Habits = append(cp.Habits, NewHabitRecord("b", "B", "", 0))
	assert.Equal(t, 0, s.Habits[0].WoolKg)
	assert.Len(t, s.Habits, 1)
}

func TestDueHabitsKeepsOrder(t *testing.T) {
	sat := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	s := State{Habits: []HabitRecord{
		{HabitID: "a", Schedule: EveryDay()},
		{HabitID: "b", Schedule: Weekdays()},
		{HabitID: "c", Schedule: Custom(Saturday)},
	}}
	due := s.DueHabits(sat)
	require.Len(t, due, 2)
	assert.Equal(t, "a", due[0].HabitID)
	assert.Equal(t, "c", due[1].HabitID)
}

func TestNeedsCheckInToday(t *testing.T) {
	now := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	s := State{}
	assert.False(t, s.NeedsCheckInToday(now, utcCal), "no habits")
	s.Habits = []HabitRecord{{HabitID: "a"}}
	assert.True(t, s.NeedsCheckInToday(now, utcCal), "never checked in")
	earlier := now.Add(-2 * time.Hour)
	s.LastCheckInDate = &earlier
	assert.False(t, s.NeedsCheckInToday(now, utcCal))
	yesterday := now.AddDate(0, 0, -1)
	s.LastCheckInDate = &yesterday
	assert.True(t, s.NeedsCheckInToday(now, utcCal))
}

func TestVerifiedScreenHabits(t *testing.T) {
	s := State{Habits: []HabitRecord{
		{HabitID: "phone_away_10pm", UseVerifiedTracking: true},
		{HabitID: "no_blue_light_8pm"},
		{HabitID: "read", UseVerifiedTracking: true},
	}}
	assert.Equal(t, []string{"phone_away_10pm"}, s.VerifiedScreenHabitIDs())
	assert.True(t, s.HasAnyVerifiedScreenHabit())
}

func TestRewardGating(t *testing.T) {
	s := State{Mode: ModeCozy}
	assert.Equal(t, 1.0, s.RewardMultiplier())
	assert.False(t, s.IsVerifiedEligible())
	s.Mode = ModeVerified
	assert.Equal(t, 1.2, s.RewardMultiplier())
	assert.False(t, s.IsVerifiedEligible())
	minutes := 3
	s.LastUsageMinutes = &minutes
	assert.True(t, s.IsVerifiedEligible())
}

func TestNightLevelTables(t *testing.T) {
	assert.Equal(t, []int{0, 2, 6, 10}, []int{ZeroStars.Coins(), OneStar.Coins(), TwoStars.Coins(), ThreeStars.Coins()})
	assert.False(t, OneStar.KeepsStreak())
	assert.True(t, TwoStars.KeepsStreak())
	assert.Equal(t, "Great night", ThreeStars.DisplayTitle())
	assert.Equal(t, "☆", ZeroStars.StarsText())
}

func TestSleepRecordEfficiency(t *testing.T) {
	r := SleepRecord{TotalMinutes: 420, InBedMinutes: 480}
	assert.InDelta(t, 0.875, r.Efficiency(), 1e-9)
	assert.True(t, r.MetGoal(7))
	assert.False(t, r.MetGoal(7.5))
	assert.Zero(t, SleepRecord{TotalMinutes: 60}.Efficiency())
	assert.Equal(t, 1.0, SleepRecord{TotalMinutes: 500, InBedMinutes: 400}.Efficiency())
}
