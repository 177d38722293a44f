package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemainingCooldown(t *testing.T) {
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	rec := HabitRecord{WoolKg: 12}
	assert.Zero(t, RemainingCooldown(rec, now), "never sheared")

	last := now.Add(-24 * time.Hour)
	rec.LastShearedDate = &last
	assert.Equal(t, 48*time.Hour, RemainingCooldown(rec, now))

	last = now.Add(-ShearCooldown - time.Minute)
	rec.LastShearedDate = &last
	assert.Zero(t, RemainingCooldown(rec, now), "floored at zero")
}

func TestCanShearGates(t *testing.T) {
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * 24 * time.Hour)
	exact := now.Add(-ShearCooldown)
	tests := []struct {
		name string
		rec  HabitRecord
		want bool
	}{
		{"below minimum", HabitRecord{WoolKg: 9}, false},
		{"at minimum, never sheared", HabitRecord{WoolKg: 10}, true},
		{"inside cooldown", HabitRecord{WoolKg: 10, LastShearedDate: &recent}, false},
		{"cooldown just elapsed", HabitRecord{WoolKg: 10, LastShearedDate: &exact}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanShear(tc.rec, now))
		})
	}
}

func TestShearValue(t *testing.T) {
	assert.Equal(t, 15, ShearValue(15))
	assert.Equal(t, 0, ShearValue(0))
}
