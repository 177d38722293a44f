package core

import (
	"time"

	"countingsheep/pkg/domain"
)

// Shear converts a habit's wool into coins. It returns the input state and
// zero when the habit is unknown, holds less than domain.MinShearKg, or is
// still cooling down from its last shear.
func (e Engine) Shear(s domain.State, habitID string, now time.Time) (domain.State, int) {
	i := s.HabitIndex(habitID)
	if i < 0 {
		return s, 0
	}
	rec := s.Habits[i]
	if !domain.CanShear(rec, now) {
		return s, 0
	}
	earned := domain.ShearValue(rec.WoolKg)
	out := s.Clone()
	at := now
	out.Habits[i].WoolKg = 0
	out.Habits[i].LastShearedDate = &at
	out.Coins += earned
	return out, earned
}
