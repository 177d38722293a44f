// Package domain defines the habit sheep entities, the aggregate game state
// and the pure rules (schedules, growth, wool) shared by the engine and the
// persistence layer.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"
)

// HabitRecord is one adopted habit and its full lifecycle state.
type HabitRecord struct {
	HabitID             string
	Title               string
	SystemImage         string
	GrowthStage         GrowthStage
	ConsecutiveDaysDone int
	LastCheckedDate     *time.Time
	// CompletionDates holds one start-of-day entry per completed calendar day, ascending.
	CompletionDates []time.Time

	CustomTitle           *string
	Schedule              Schedule
	RemindersEnabled      bool
	SmartRemindersEnabled bool
	TargetTime            *time.Time
	GoalMinutes           *int
	UseVerifiedTracking   bool
	SpriteSeed            int64

	WoolKg          int
	LastShearedDate *time.Time
}

// NewHabitRecord returns a freshly adopted habit: needs care, zero counters,
// due every day, reminders on.
func NewHabitRecord(habitID, title, systemImage string, spriteSeed int64) HabitRecord {
	return HabitRecord{
		HabitID:          habitID,
		Title:            title,
		SystemImage:      systemImage,
		GrowthStage:      StageNeedsCare,
		CompletionDates:  []time.Time{},
		Schedule:         EveryDay(),
		RemindersEnabled: true,
		SpriteSeed:       spriteSeed,
	}
}

// DefaultSpriteSeed derives a stable sprite seed from the habit id.
func DefaultSpriteSeed(habitID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(habitID))
	return int64(h.Sum64() >> 1)
}

// DisplayTitle returns the custom title when it is non-blank, else the title.
func (h HabitRecord) DisplayTitle() string {
	if h.CustomTitle != nil && strings.TrimSpace(*h.CustomTitle) != "" {
		return *h.CustomTitle
	}
	return h.Title
}

// CompletedOn reports whether the habit was completed on date's calendar day.
func (h HabitRecord) CompletedOn(date time.Time, cal Calendar) bool {
	day := cal.StartOfDay(date)
	for _, d := range h.CompletionDates {
		if cal.StartOfDay(d).Equal(day) {
			return true
		}
	}
	return false
}

// CompletionRate returns the percentage of the trailing window of days
// (ending today, inclusive) on which the habit was completed. It returns
// false when days is not positive.
func (h HabitRecord) CompletionRate(now time.Time, days int, cal Calendar) (float64, bool) {
	if days <= 0 {
		return 0, false
	}
	today := cal.StartOfDay(now)
	start := cal.AddDays(now, -(days - 1))
	completed := 0
	seen := make(map[int64]struct{}, len(h.CompletionDates))
	for _, d := range h.CompletionDates {
		day := cal.StartOfDay(d)
		if day.Before(start) || day.After(today) {
			continue
		}
		if _, ok := seen[day.Unix()]; ok {
			continue
		}
		seen[day.Unix()] = struct{}{}
		completed++
	}
	return float64(completed) / float64(days) * 100, true
}

// WeightKg is the display-facing body weight, a surrogate for habit strength.
func (h HabitRecord) WeightKg() int {
	d := h.ConsecutiveDaysDone
	switch h.GrowthStage {
	case StageGrowing:
		return 38 + min(d*2, 20)
	case StageThriving:
		return 58 + min(d*2, 42)
	default:
		return 28 + min(d, 6)
	}
}

// Clone returns a deep copy of the record.
func (h HabitRecord) Clone() HabitRecord {
	cp := h
	cp.CompletionDates = append([]time.Time(nil), h.CompletionDates...)
	if cp.CompletionDates == nil {
		cp.CompletionDates = []time.Time{}
	}
	cp.LastCheckedDate = cloneTime(h.LastCheckedDate)
	cp.LastShearedDate = cloneTime(h.LastShearedDate)
	cp.TargetTime = cloneTime(h.TargetTime)
	if h.CustomTitle != nil {
		v := *h.CustomTitle
		cp.CustomTitle = &v
	}
	if h.GoalMinutes != nil {
		v := *h.GoalMinutes
		cp.GoalMinutes = &v
	}
	cp.Schedule = Schedule{kind: h.Schedule.kind, days: h.Schedule.Days()}
	return cp
}

// addCompletion records day (already normalized) keeping the log sorted.
func (h *HabitRecord) addCompletion(day time.Time) {
	h.CompletionDates = append(h.CompletionDates, day)
	sort.Slice(h.CompletionDates, func(i, j int) bool {
		return h.CompletionDates[i].Before(h.CompletionDates[j])
	})
}

// Credit applies a fresh completion for today's calendar day. It returns
// false, leaving the record untouched, when today is already recorded.
func (h *HabitRecord) Credit(now time.Time, cal Calendar) bool {
	if h.CompletedOn(now, cal) {
		return false
	}
	at := now
	h.ConsecutiveDaysDone++
	h.LastCheckedDate = &at
	h.GrowthStage = StageFor(h.ConsecutiveDaysDone)
	h.WoolKg += WoolGain(h.GrowthStage)
	h.addCompletion(cal.StartOfDay(now))
	return true
}

// Miss resets the run without touching history or banked wool.
func (h *HabitRecord) Miss() {
	h.ConsecutiveDaysDone = 0
	h.GrowthStage = StageNeedsCare
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type habitWire struct {
	HabitID               *string         `json:"habitId"`
	Title                 *string         `json:"title"`
	SystemImage           *string         `json:"systemImage"`
	GrowthStage           *GrowthStage    `json:"growthStage"`
	ConsecutiveDaysDone   *int            `json:"consecutiveDaysDone"`
	LastCheckedDate       *time.Time      `json:"lastCheckedDate,omitempty"`
	CompletionDates       []time.Time     `json:"completionDates"`
	CustomTitle           *string         `json:"customTitle,omitempty"`
	Schedule              *Schedule       `json:"schedule"`
	RemindersEnabled      *bool           `json:"remindersEnabled"`
	SmartRemindersEnabled *bool           `json:"smartRemindersEnabled"`
	TargetTime            *time.Time      `json:"targetTime,omitempty"`
	GoalMinutes           *int            `json:"goalMinutes,omitempty"`
	UseVerifiedTracking   *bool           `json:"useVerifiedTracking"`
	SpriteSeed            *int64          `json:"spriteSeed"`
	WoolKg                json.RawMessage `json:"woolKg"`
	LastShearedDate       *time.Time      `json:"lastShearedDate,omitempty"`
}

// MarshalJSON writes every field; optional values are omitted when unset.
func (h HabitRecord) MarshalJSON() ([]byte, error) {
	dates := h.CompletionDates
	if dates == nil {
		dates = []time.Time{}
	}
	wool, err := json.Marshal(h.WoolKg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(habitWire{
		HabitID:               &h.HabitID,
		Title:                 &h.Title,
		SystemImage:           &h.SystemImage,
		GrowthStage:           &h.GrowthStage,
		ConsecutiveDaysDone:   &h.ConsecutiveDaysDone,
		LastCheckedDate:       h.LastCheckedDate,
		CompletionDates:       dates,
		CustomTitle:           h.CustomTitle,
		Schedule:              &h.Schedule,
		RemindersEnabled:      &h.RemindersEnabled,
		SmartRemindersEnabled: &h.SmartRemindersEnabled,
		TargetTime:            h.TargetTime,
		GoalMinutes:           h.GoalMinutes,
		UseVerifiedTracking:   &h.UseVerifiedTracking,
		SpriteSeed:            &h.SpriteSeed,
		WoolKg:                wool,
		LastShearedDate:       h.LastShearedDate,
	})
}

// UnmarshalJSON requires the identity and progress fields and fills defaults
// for fields added in later releases. A record written before woolKg existed
// gets an estimated balance; an explicit null is treated as zero.
func (h *HabitRecord) UnmarshalJSON(data []byte) error {
	var w habitWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.HabitID == nil:
		return missingField("habitId")
	case w.Title == nil:
		return missingField("title")
	case w.SystemImage == nil:
		return missingField("systemImage")
	case w.GrowthStage == nil:
		return missingField("growthStage")
	case w.ConsecutiveDaysDone == nil:
		return missingField("consecutiveDaysDone")
	}
	rec := HabitRecord{
		HabitID:             *w.HabitID,
		Title:               *w.Title,
		SystemImage:         *w.SystemImage,
		GrowthStage:         *w.GrowthStage,
		ConsecutiveDaysDone: *w.ConsecutiveDaysDone,
		LastCheckedDate:     w.LastCheckedDate,
		CompletionDates:     w.CompletionDates,
		CustomTitle:         w.CustomTitle,
		Schedule:            EveryDay(),
		RemindersEnabled:    true,
		TargetTime:          w.TargetTime,
		GoalMinutes:         w.GoalMinutes,
		LastShearedDate:     w.LastShearedDate,
	}
	if rec.CompletionDates == nil {
		rec.CompletionDates = []time.Time{}
	}
	if w.Schedule != nil {
		rec.Schedule = *w.Schedule
	}
	if w.RemindersEnabled != nil {
		rec.RemindersEnabled = *w.RemindersEnabled
	}
	if w.SmartRemindersEnabled != nil {
		rec.SmartRemindersEnabled = *w.SmartRemindersEnabled
	}
	if w.UseVerifiedTracking != nil {
		rec.UseVerifiedTracking = *w.UseVerifiedTracking
	}
	if w.SpriteSeed != nil {
		rec.SpriteSeed = *w.SpriteSeed
	} else {
		rec.SpriteSeed = DefaultSpriteSeed(rec.HabitID)
	}
	switch raw := bytes.TrimSpace(w.WoolKg); {
	case len(raw) == 0:
		rec.WoolKg = EstimatedLegacyWool(rec.ConsecutiveDaysDone)
	case bytes.Equal(raw, []byte("null")):
		rec.WoolKg = 0
	default:
		if err := json.Unmarshal(raw, &rec.WoolKg); err != nil {
			return fmt.Errorf("habit %s: woolKg: %w", rec.HabitID, err)
		}
	}
	*h = rec
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("habit: missing required field %q", name)
}
