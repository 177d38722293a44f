package domain

import "time"

// Default bedtime window and sleep goal for a fresh install.
const (
	DefaultBedtimeStartHour   = 22
	DefaultBedtimeStartMinute = 30
	DefaultBedtimeEndHour     = 7
	DefaultBedtimeEndMinute   = 0
	DefaultSleepGoalHours     = 8.0
)

// ScreenHabitIDs are the habits that device usage data can verify.
var ScreenHabitIDs = []string{"phone_away_10pm", "no_blue_light_8pm", "phone_out_of_bedroom"}

// State is the single source of truth for one player.
type State struct {
	Coins                int           `json:"coins"`
	Streak               int           `json:"streak"`
	LastNightResult      *NightResult  `json:"lastNightResult,omitempty"`
	Mode                 GameMode      `json:"mode"`
	BedtimeStart         time.Time     `json:"bedtimeStart"`
	BedtimeEnd           time.Time     `json:"bedtimeEnd"`
	NotificationsEnabled bool          `json:"notificationsEnabled"`
	LastUsageMinutes     *int          `json:"lastUsageMinutes,omitempty"`
	Habits               []HabitRecord `json:"habitSheep"`
	LastCheckInDate      *time.Time    `json:"lastCheckInDate,omitempty"`
	CheckInStreak        int           `json:"checkInStreak"`
	HealthKitAuthorized  bool          `json:"healthKitAuthorized"`
	SleepGoalHours       float64       `json:"sleepGoalHours"`
	SleepRecords         []SleepRecord `json:"-"`
}

// DefaultState returns the state of a first launch on now's day.
func DefaultState(cal Calendar, now time.Time) State {
	return State{
		Mode:           ModeCozy,
		BedtimeStart:   cal.At(now, DefaultBedtimeStartHour, DefaultBedtimeStartMinute),
		BedtimeEnd:     cal.At(now, DefaultBedtimeEndHour, DefaultBedtimeEndMinute),
		Habits:         []HabitRecord{},
		SleepGoalHours: DefaultSleepGoalHours,
	}
}

// Clone returns a deep copy that shares no mutable memory with s.
func (s State) Clone() State {
	cp := s
	cp.Habits = make([]HabitRecord, len(s.Habits))
	for i, h := range s.Habits {
		cp.Habits[i] = h.Clone()
	}
	cp.SleepRecords = append([]SleepRecord(nil), s.SleepRecords...)
	cp.LastCheckInDate = cloneTime(s.LastCheckInDate)
	if s.LastNightResult != nil {
		v := *s.LastNightResult
		cp.LastNightResult = &v
	}
	if s.LastUsageMinutes != nil {
		v := *s.LastUsageMinutes
		cp.LastUsageMinutes = &v
	}
	return cp
}

// HabitIndex returns the position of habitID, or -1.
func (s State) HabitIndex(habitID string) int {
	for i := range s.Habits {
		if s.Habits[i].HabitID == habitID {
			return i
		}
	}
	return -1
}

// Habit looks up a habit by id.
func (s State) Habit(habitID string) (HabitRecord, bool) {
	if i := s.HabitIndex(habitID); i >= 0 {
		return s.Habits[i], true
	}
	return HabitRecord{}, false
}

// SheepCount is the number of sheep shown on the farm; never less than one.
func (s State) SheepCount() int { return max(1, len(s.Habits)) }

// DueHabits returns the habits scheduled on date, in display order.
func (s State) DueHabits(date time.Time) []HabitRecord {
	var out []HabitRecord
	for _, h := range s.Habits {
		if h.Schedule.IsScheduled(date) {
			out = append(out, h)
		}
	}
	return out
}

// NeedsCheckInToday reports whether habits exist and no check-in happened today.
func (s State) NeedsCheckInToday(now time.Time, cal Calendar) bool {
	if len(s.Habits) == 0 {
		return false
	}
	if s.LastCheckInDate == nil {
		return true
	}
	return !cal.SameDay(*s.LastCheckInDate, now)
}

// VerifiedScreenHabitIDs lists habits that opted into verified tracking and
// can be verified from screen usage.
func (s State) VerifiedScreenHabitIDs() []string {
	var out []string
	for _, h := range s.Habits {
		if h.UseVerifiedTracking && isScreenHabit(h.HabitID) {
			out = append(out, h.HabitID)
		}
	}
	return out
}

// HasAnyVerifiedScreenHabit reports whether bedtime monitoring is needed.
func (s State) HasAnyVerifiedScreenHabit() bool {
	return len(s.VerifiedScreenHabitIDs()) > 0
}

// RewardMultiplier boosts rewards in verified mode.
func (s State) RewardMultiplier() float64 {
	if s.Mode == ModeVerified {
		return 1.2
	}
	return 1.0
}

// IsVerifiedEligible reports whether verified rewards apply to the last night.
func (s State) IsVerifiedEligible() bool {
	return s.Mode == ModeVerified && s.LastUsageMinutes != nil
}

func isScreenHabit(id string) bool {
	for _, sid := range ScreenHabitIDs {
		if sid == id {
			return true
		}
	}
	return false
}
