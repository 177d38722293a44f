// Package signals turns raw device readings (screen usage during the bedtime
// window, sleep samples) into inputs the check-in engine understands.
package signals

import (
	"context"
	"fmt"
	"time"

	"countingsheep/pkg/domain"
)

// UsagePolicy maps bedtime screen minutes to a night rating. A reading below
// ThreeStarsBelow earns three stars, below TwoStarsBelow two, below
// OneStarBelow one, and anything else zero.
type UsagePolicy struct {
	ThreeStarsBelow int
	TwoStarsBelow   int
	OneStarBelow    int
}

// DefaultUsagePolicy is the stock threshold table.
var DefaultUsagePolicy = UsagePolicy{ThreeStarsBelow: 5, TwoStarsBelow: 20, OneStarBelow: 45}

// PolicyFromThresholds builds a policy from an ascending three-element list.
// An empty list yields DefaultUsagePolicy.
func PolicyFromThresholds(thresholds []int) (UsagePolicy, error) {
	if len(thresholds) == 0 {
		return DefaultUsagePolicy, nil
	}
	if len(thresholds) != 3 {
		return UsagePolicy{}, fmt.Errorf("usage policy needs 3 thresholds, got %d", len(thresholds))
	}
	p := UsagePolicy{ThreeStarsBelow: thresholds[0], TwoStarsBelow: thresholds[1], OneStarBelow: thresholds[2]}
	if p.ThreeStarsBelow <= 0 || p.ThreeStarsBelow >= p.TwoStarsBelow || p.TwoStarsBelow >= p.OneStarBelow {
		return UsagePolicy{}, fmt.Errorf("usage policy thresholds must be positive and ascending: %v", thresholds)
	}
	return p, nil
}

// Level rates a night from its bedtime screen usage.
func (p UsagePolicy) Level(minutes int) domain.NightSuccessLevel {
	switch {
	case minutes < p.ThreeStarsBelow:
		return domain.ThreeStars
	case minutes < p.TwoStarsBelow:
		return domain.TwoStars
	case minutes < p.OneStarBelow:
		return domain.OneStar
	default:
		return domain.ZeroStars
	}
}

// Complete reports whether a rating counts as "did it" for screen habits.
func Complete(level domain.NightSuccessLevel) bool {
	return level >= domain.TwoStars
}

// BedtimeWindow is the interval screen usage is measured over.
type BedtimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w BedtimeWindow) Duration() time.Duration { return w.End.Sub(w.Start) }

// LastNightWindow returns the bedtime window of the night that ended on now's
// day. Only the hour and minute of start and end are used. The window ends
// today at end's clock time; it starts today at start's clock time, moved to
// the previous day when that would not precede the end.
func LastNightWindow(start, end, now time.Time, cal domain.Calendar) BedtimeWindow {
	sh, sm := cal.Clock(start)
	eh, em := cal.Clock(end)
	w := BedtimeWindow{
		Start: cal.At(now, sh, sm),
		End:   cal.At(now, eh, em),
	}
	if !w.Start.Before(w.End) {
		prev := cal.AddDays(now, -1)
		w.Start = cal.At(prev, sh, sm)
	}
	return w
}

// UsageSource reports total screen minutes within a window.
type UsageSource interface {
	UsageMinutes(ctx context.Context, w BedtimeWindow) (int, error)
}

// UsageFunc adapts a function to UsageSource.
type UsageFunc func(ctx context.Context, w BedtimeWindow) (int, error)

// UsageMinutes implements UsageSource.
func (f UsageFunc) UsageMinutes(ctx context.Context, w BedtimeWindow) (int, error) {
	return f(ctx, w)
}

// FixedUsage is a UsageSource that always reports the same reading. The CLI
// uses it for manually entered minutes.
type FixedUsage int

// UsageMinutes implements UsageSource.
func (f FixedUsage) UsageMinutes(context.Context, BedtimeWindow) (int, error) {
	return int(f), nil
}
