package domain

import "time"

// SleepRecord is one night of sleep attributed to the morning the user woke up.
// Durations are minutes.
type SleepRecord struct {
	Date         time.Time `json:"date"`
	TotalMinutes float64   `json:"totalMinutes"`
	DeepMinutes  float64   `json:"deepMinutes"`
	CoreMinutes  float64   `json:"coreMinutes"`
	REMMinutes   float64   `json:"remMinutes"`
	InBedMinutes float64   `json:"inBedMinutes"`
}

// TotalHours returns time asleep in hours.
func (r SleepRecord) TotalHours() float64 { return r.TotalMinutes / 60 }

// InBedHours returns time in bed in hours.
func (r SleepRecord) InBedHours() float64 { return r.InBedMinutes / 60 }

// Efficiency is the share of in-bed time spent asleep, capped at 1.
func (r SleepRecord) Efficiency() float64 {
	if r.InBedMinutes <= 0 {
		return 0
	}
	return min(1, r.TotalMinutes/r.InBedMinutes)
}

// MetGoal reports whether the night reached goalHours of sleep.
func (r SleepRecord) MetGoal(goalHours float64) bool {
	return r.TotalHours() >= goalHours
}
