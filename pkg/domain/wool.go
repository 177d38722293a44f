package domain

import "time"

// Shearing economy constants.
const (
	MinShearKg        = 10
	ShearCooldownDays = 3
	CoinsPerWoolKg    = 1
)

// ShearCooldown is the minimum interval between two shears of the same sheep.
const ShearCooldown = ShearCooldownDays * 24 * time.Hour

// RemainingCooldown returns how long until rec may be sheared again; zero
// means ready now.
func RemainingCooldown(rec HabitRecord, now time.Time) time.Duration {
	if rec.LastShearedDate == nil {
		return 0
	}
	remaining := ShearCooldown - now.Sub(*rec.LastShearedDate)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanShear reports whether rec holds enough wool and is outside its cooldown.
func CanShear(rec HabitRecord, now time.Time) bool {
	return rec.WoolKg >= MinShearKg && RemainingCooldown(rec, now) == 0
}

// ShearValue returns the coins produced by shearing woolKg.
func ShearValue(woolKg int) int {
	return woolKg * CoinsPerWoolKg
}

// EstimatedLegacyWool backfills a wool balance for records stored before the
// wool field existed, assuming the record earned wool on every day of its
// current run.
func EstimatedLegacyWool(consecutiveDays int) int {
	if consecutiveDays <= 0 {
		return 0
	}
	if consecutiveDays <= 2 {
		return consecutiveDays * 2
	}
	return 3*consecutiveDays - 2
}
