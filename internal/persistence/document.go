package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"countingsheep/pkg/domain"
)

// baseDocument is the v1 layout. Pointers distinguish missing fields from
// zero values.
type baseDocument struct {
	Coins                *int                `json:"coins"`
	Streak               *int                `json:"streak"`
	LastNightResult      *domain.NightResult `json:"lastNightResult,omitempty"`
	Mode                 *domain.GameMode    `json:"mode"`
	BedtimeStart         *time.Time          `json:"bedtimeStart"`
	BedtimeEnd           *time.Time          `json:"bedtimeEnd"`
	NotificationsEnabled *bool               `json:"notificationsEnabled"`
	LastUsageMinutes     *int                `json:"lastUsageMinutes,omitempty"`
}

// document is shared by v2 through v4; later fields are optional so every
// revision in that range decodes with it.
type document struct {
	baseDocument
	Habits              *[]domain.HabitRecord `json:"habitSheep,omitempty"`
	LastCheckInDate     *time.Time            `json:"lastCheckInDate,omitempty"`
	CheckInStreak       *int                  `json:"checkInStreak,omitempty"`
	HealthKitAuthorized *bool                 `json:"healthKitAuthorized,omitempty"`
	SleepGoalHours      *float64              `json:"sleepGoalHours,omitempty"`
}

func (b baseDocument) validate() error {
	switch {
	case b.Coins == nil:
		return missing("coins")
	case b.Streak == nil:
		return missing("streak")
	case b.Mode == nil:
		return missing("mode")
	case b.BedtimeStart == nil:
		return missing("bedtimeStart")
	case b.BedtimeEnd == nil:
		return missing("bedtimeEnd")
	case b.NotificationsEnabled == nil:
		return missing("notificationsEnabled")
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("missing required field %q", field)
}

func decodeV1(data []byte) (document, error) {
	var b baseDocument
	if err := json.Unmarshal(data, &b); err != nil {
		return document{}, err
	}
	if err := b.validate(); err != nil {
		return document{}, err
	}
	return document{baseDocument: b}, nil
}

func decodeDocument(data []byte) (document, error) {
	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return document{}, err
	}
	if err := d.validate(); err != nil {
		return document{}, err
	}
	return d, nil
}

func upgradeV1(d *document) {
	if d.Habits == nil {
		d.Habits = &[]domain.HabitRecord{}
	}
}

func upgradeV2(d *document) {
	if d.CheckInStreak == nil {
		zero := 0
		d.CheckInStreak = &zero
	}
}

func upgradeV3(d *document) {
	if d.HealthKitAuthorized == nil {
		authorized := false
		d.HealthKitAuthorized = &authorized
	}
	if d.SleepGoalHours == nil {
		goal := domain.DefaultSleepGoalHours
		d.SleepGoalHours = &goal
	}
}

// state converts a validated document. Optional fields still unset fall back
// to their defaults.
func (d document) state() domain.State {
	s := domain.State{
		Coins:                *d.Coins,
		Streak:               *d.Streak,
		LastNightResult:      d.LastNightResult,
		Mode:                 *d.Mode,
		BedtimeStart:         *d.BedtimeStart,
		BedtimeEnd:           *d.BedtimeEnd,
		NotificationsEnabled: *d.NotificationsEnabled,
		LastUsageMinutes:     d.LastUsageMinutes,
		Habits:               []domain.HabitRecord{},
		LastCheckInDate:      d.LastCheckInDate,
		SleepGoalHours:       domain.DefaultSleepGoalHours,
	}
	if d.Habits != nil && len(*d.Habits) > 0 {
		s.Habits = *d.Habits
	}
	if d.CheckInStreak != nil {
		s.CheckInStreak = *d.CheckInStreak
	}
	if d.HealthKitAuthorized != nil {
		s.HealthKitAuthorized = *d.HealthKitAuthorized
	}
	if d.SleepGoalHours != nil {
		s.SleepGoalHours = *d.SleepGoalHours
	}
	return s
}

// fromState builds the current-version document. An empty habit list is
// omitted from the output.
func fromState(s domain.State) document {
	s = s.Clone()
	d := document{
		baseDocument: baseDocument{
			Coins:                &s.Coins,
			Streak:               &s.Streak,
			LastNightResult:      s.LastNightResult,
			Mode:                 &s.Mode,
			BedtimeStart:         &s.BedtimeStart,
			BedtimeEnd:           &s.BedtimeEnd,
			NotificationsEnabled: &s.NotificationsEnabled,
			LastUsageMinutes:     s.LastUsageMinutes,
		},
		LastCheckInDate:     s.LastCheckInDate,
		CheckInStreak:       &s.CheckInStreak,
		HealthKitAuthorized: &s.HealthKitAuthorized,
		SleepGoalHours:      &s.SleepGoalHours,
	}
	if len(s.Habits) > 0 {
		d.Habits = &s.Habits
	}
	return d
}
