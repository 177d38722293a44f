package signals

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"countingsheep/pkg/domain"
)

// MinNightMinutes drops naps and sensor noise from grouped nights.
const MinNightMinutes = 30

// SleepStage classifies a sleep sample.
type SleepStage int

const (
	StageInBed SleepStage = iota
	StageAwake
	StageAsleepUnspecified
	StageAsleepCore
	StageAsleepDeep
	StageAsleepREM
)

var stageNames = map[SleepStage]string{
	StageInBed:             "inBed",
	StageAwake:             "awake",
	StageAsleepUnspecified: "asleep",
	StageAsleepCore:        "core",
	StageAsleepDeep:        "deep",
	StageAsleepREM:         "rem",
}

func (s SleepStage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SleepStage(%d)", int(s))
}

// ParseSleepStage parses the names produced by String.
func ParseSleepStage(v string) (SleepStage, error) {
	for s, n := range stageNames {
		if n == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sleep stage %q", v)
}

// MarshalText encodes the stage by name.
func (s SleepStage) MarshalText() ([]byte, error) {
	n, ok := stageNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown sleep stage %d", int(s))
	}
	return []byte(n), nil
}

// UnmarshalText decodes a stage name.
func (s *SleepStage) UnmarshalText(b []byte) error {
	v, err := ParseSleepStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SleepSample is one contiguous interval reported by a sleep tracker.
type SleepSample struct {
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Stage SleepStage `json:"stage"`
}

// Minutes returns the sample length in minutes.
func (s SleepSample) Minutes() float64 { return s.End.Sub(s.Start).Minutes() }

// SleepSource returns samples whose start lies in [from, to).
type SleepSource interface {
	SleepSamples(ctx context.Context, from, to time.Time) ([]SleepSample, error)
}

// GroupSleepSamples folds samples into one record per wake-up day, sorted by
// date. Awake time counts toward in-bed only; when a night has no in-bed
// samples its in-bed time is its asleep total.
func GroupSleepSamples(samples []SleepSample, cal domain.Calendar) []domain.SleepRecord {
	type acc struct {
		deep, core, rem, unspecified, inBed float64
	}
	nights := make(map[int64]*acc)
	days := make(map[int64]time.Time)
	for _, s := range samples {
		m := s.Minutes()
		if m <= 0 {
			continue
		}
		day := cal.StartOfDay(s.End)
		k := day.Unix()
		a, ok := nights[k]
		if !ok {
			a = &acc{}
			nights[k] = a
			days[k] = day
		}
		switch s.Stage {
		case StageAsleepDeep:
			a.deep += m
		case StageAsleepCore:
			a.core += m
		case StageAsleepREM:
			a.rem += m
		case StageAsleepUnspecified:
			a.unspecified += m
		case StageInBed, StageAwake:
			a.inBed += m
		}
	}

	out := make([]domain.SleepRecord, 0, len(nights))
	for k, a := range nights {
		total := a.deep + a.core + a.rem + a.unspecified
		if total < MinNightMinutes {
			continue
		}
		inBed := a.inBed
		if inBed == 0 {
			inBed = total
		}
		out = append(out, domain.SleepRecord{
			Date:         days[k],
			TotalMinutes: total,
			DeepMinutes:  a.deep,
			CoreMinutes:  a.core,
			REMMinutes:   a.rem,
			InBedMinutes: inBed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FetchSleepRecords queries src one calendar day at a time over [from, to),
// running up to limit queries concurrently, and groups the combined samples.
// A limit of zero or less means no limit.
func FetchSleepRecords(ctx context.Context, src SleepSource, from, to time.Time, cal domain.Calendar, limit int) ([]domain.SleepRecord, error) {
	if !from.Before(to) {
		return nil, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var (
		mu  sync.Mutex
		all []SleepSample
	)
	for start := from; start.Before(to); {
		end := cal.AddDays(start, 1)
		if end.After(to) {
			end = to
		}
		lo, hi := start, end
		g.Go(func() error {
			got, err := src.SleepSamples(gctx, lo, hi)
			if err != nil {
				return fmt.Errorf("sleep samples %s: %w", lo.Format(time.DateOnly), err)
			}
			mu.Lock()
			all = append(all, got...)
			mu.Unlock()
			return nil
		})
		start = end
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return GroupSleepSamples(all, cal), nil
}

// SampleSlice serves a fixed set of samples, for imports and tests.
type SampleSlice []SleepSample

// SleepSamples implements SleepSource.
func (s SampleSlice) SleepSamples(ctx context.Context, from, to time.Time) ([]SleepSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []SleepSample
	for _, smp := range s {
		if !smp.Start.Before(from) && smp.Start.Before(to) {
			out = append(out, smp)
		}
	}
	return out, nil
}
