package signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"countingsheep/pkg/domain"
)

// ErrNoSource is returned when a tracker has no usage source configured.
var ErrNoSource = errors.New("signals: no usage source")

// Verdict is the outcome of one verified-mode evaluation.
type Verdict struct {
	Window  BedtimeWindow
	Minutes int
	Level   domain.NightSuccessLevel
	// Results maps every verified screen habit to whether it was completed.
	Results map[string]bool
}

// VerifiedTracker rates last night from screen usage and derives results for
// the habits that opted into verified tracking.
type VerifiedTracker struct {
	Source   UsageSource
	Policy   UsagePolicy
	Calendar domain.Calendar
}

type usageReading struct {
	minutes int
	err     error
}

// Evaluate fetches usage for last night's bedtime window and rates it. When
// the state has no verified screen habits it returns an empty verdict without
// querying the source. Cancellation of ctx is reported as ctx.Err().
func (t VerifiedTracker) Evaluate(ctx context.Context, state domain.State, now time.Time) (Verdict, error) {
	ids := state.VerifiedScreenHabitIDs()
	v := Verdict{
		Window:  LastNightWindow(state.BedtimeStart, state.BedtimeEnd, now, t.Calendar),
		Results: make(map[string]bool, len(ids)),
	}
	if len(ids) == 0 {
		return v, nil
	}
	if t.Source == nil {
		return Verdict{}, ErrNoSource
	}
	policy := t.Policy
	if policy == (UsagePolicy{}) {
		policy = DefaultUsagePolicy
	}

	ch := make(chan usageReading, 1)
	go func() {
		minutes, err := t.Source.UsageMinutes(ctx, v.Window)
		ch <- usageReading{minutes: minutes, err: err}
	}()

	var r usageReading
	select {
	case <-ctx.Done():
		return Verdict{}, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		return Verdict{}, fmt.Errorf("read screen usage: %w", r.err)
	}
	if r.minutes < 0 {
		r.minutes = 0
	}
	v.Minutes = r.minutes
	v.Level = policy.Level(r.minutes)
	done := Complete(v.Level)
	for _, id := range ids {
		v.Results[id] = done
	}
	return v, nil
}
