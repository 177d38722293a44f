package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"countingsheep/internal/persistence"
	"countingsheep/internal/signals"
	"countingsheep/pkg/domain"
)

// SleepHistoryDays is how far back RefreshSleep looks.
const SleepHistoryDays = 30

// Errors reported by Service. Engine rule failures are never errors.
var (
	ErrNotLoaded      = errors.New("core: state not loaded")
	ErrUnknownHabit   = errors.New("core: unknown habit")
	ErrDuplicateHabit = errors.New("core: habit already adopted")
	ErrInvalidHabit   = errors.New("core: invalid habit")
	ErrInvalidSetting = errors.New("core: invalid setting")
)

// StateStore loads and saves the full game state.
type StateStore interface {
	Load(ctx context.Context) (domain.State, persistence.LoadReport)
	Save(ctx context.Context, s domain.State) error
}

// Service owns the live game state. Every mutation clones the current state,
// applies an engine operation, swaps the result in and persists it.
// Signal acquisition happens outside the lock.
type Service struct {
	mu     sync.Mutex
	state  domain.State
	loaded bool
	report persistence.LoadReport

	store   StateStore
	engine  Engine
	now     func() time.Time
	log     *zap.Logger
	metrics MetricsRecorder
	policy  signals.UsagePolicy
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCalendar sets the location used for day boundaries.
func WithCalendar(cal domain.Calendar) Option {
	return func(s *Service) { s.engine = NewEngine(cal) }
}

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithUsagePolicy replaces the screen usage scoring table.
func WithUsagePolicy(p signals.UsagePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// NewService constructs a service persisting through store. Call Load before
// any other operation.
func NewService(store StateStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		now:     time.Now,
		log:     zap.NewNop(),
		metrics: noopRecorder{},
		policy:  signals.DefaultUsagePolicy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar returns the calendar used for day boundaries.
func (s *Service) Calendar() domain.Calendar { return s.engine.Calendar }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Load reads the persisted state, migrating legacy revisions. It never fails;
// the report says which revision was used.
func (s *Service) Load(ctx context.Context) persistence.LoadReport {
	start := time.Now()
	st, rep := s.store.Load(ctx)
	s.mu.Lock()
	s.state = st
	s.loaded = true
	s.report = rep
	s.mu.Unlock()
	s.log.Info("state loaded",
		zap.Int("version", rep.Version),
		zap.Bool("migrated", rep.Migrated),
		zap.Bool("fallback", rep.Fallback),
		zap.Int("habits", len(st.Habits)))
	s.metrics.Observe(ctx, "load", true, time.Since(start))
	return rep
}

// LoadReport returns the report of the last Load.
func (s *Service) LoadReport() persistence.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// State returns a copy of the live state.
func (s *Service) State() (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.State{}, ErrNotLoaded
	}
	return s.state.Clone(), nil
}

// Save persists the live state as is.
func (s *Service) Save(ctx context.Context) error {
	_, err := s.mutate(ctx, "save", func(st domain.State, _ time.Time) (domain.State, bool, error) {
		return st, true, nil
	})
	return err
}

// mutate runs fn on a clone of the live state under the lock. When fn reports
// a change the result replaces the live state and is persisted. A failed save
// is returned but the new state stays live.
func (s *Service) mutate(ctx context.Context, op string, fn func(domain.State, time.Time) (domain.State, bool, error)) (domain.State, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return domain.State{}, ErrNotLoaded
	}
	next, changed, err := fn(s.state.Clone(), s.now())
	if err != nil {
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return s.state.Clone(), err
	}
	if !changed {
		s.metrics.Observe(ctx, op, true, time.Since(start))
		return s.state.Clone(), nil
	}
	s.state = next
	if err := s.store.Save(ctx, next); err != nil {
		s.log.Error("persist state", zap.String("op", op), zap.Error(err))
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return next.Clone(), fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Observe(ctx, op, true, time.Since(start))
	return next.Clone(), nil
}

func (s *Service) countCoins(n int) {
	if c, ok := s.metrics.(coinCounter); ok {
		c.AddCoins(n)
	}
}

// Adopt adds a new habit sheep. The sprite seed derives from the id.
func (s *Service) Adopt(ctx context.Context, habitID, title, systemImage string) (domain.HabitRecord, error) {
	habitID = strings.TrimSpace(habitID)
	title = strings.TrimSpace(title)
	if habitID == "" || title == "" {
		return domain.HabitRecord{}, fmt.Errorf("%w: id and title are required", ErrInvalidHabit)
	}
	rec := domain.NewHabitRecord(habitID, title, systemImage, domain.DefaultSpriteSeed(habitID))
	_, err := s.mutate(ctx, "adopt", func(st domain.State, _ time.Time) (domain.State, bool, error) {
		if st.HabitIndex(habitID) >= 0 {
			return st, false, fmt.Errorf("%w: %s", ErrDuplicateHabit, habitID)
		}
		st.Habits = append(st.Habits, rec)
		return st, true, nil
	})
	if err != nil {
		return domain.HabitRecord{}, err
	}
	s.log.Info("habit adopted", zap.String("habit", habitID))
	return rec, nil
}

// Customization changes the presentation and reminder fields of a habit. Nil
// fields are left as they are.
type Customization struct {
	CustomTitle           *string
	Schedule              *domain.Schedule
	RemindersEnabled      *bool
	SmartRemindersEnabled *bool
	TargetTime            *time.Time
	GoalMinutes           *int
	UseVerifiedTracking   *bool
	SpriteSeed            *int64
}

func (c Customization) apply(h *domain.HabitRecord) {
	if c.CustomTitle != nil {
		if strings.TrimSpace(*c.CustomTitle) == "" {
			h.CustomTitle = nil
		} else {
			v := *c.CustomTitle
			h.CustomTitle = &v
		}
	}
	if c.Schedule != nil {
		h.Schedule = *c.Schedule
	}
	if c.RemindersEnabled != nil {
		h.RemindersEnabled = *c.RemindersEnabled
	}
	if c.SmartRemindersEnabled != nil {
		h.SmartRemindersEnabled = *c.SmartRemindersEnabled
	}
	if c.TargetTime != nil {
		v := *c.TargetTime
		h.TargetTime = &v
	}
	if c.GoalMinutes != nil {
		v := *c.GoalMinutes
		h.GoalMinutes = &v
	}
	if c.UseVerifiedTracking != nil {
		h.UseVerifiedTracking = *c.UseVerifiedTracking
	}
	if c.SpriteSeed != nil {
		h.SpriteSeed = *c.SpriteSeed
	}
}

// Customize updates a habit's customization fields. Progress fields are
// never touched.
func (s *Service) Customize(ctx context.Context, habitID string, c Customization) (domain.HabitRecord, error) {
	st, err := s.mutate(ctx, "customize", func(st domain.State, _ time.Time) (domain.State, bool, error) {
		i := st.HabitIndex(habitID)
		if i < 0 {
			return st, false, fmt.Errorf("%w: %s", ErrUnknownHabit, habitID)
		}
		c.apply(&st.Habits[i])
		return st, true, nil
	})
	if errors.Is(err, ErrUnknownHabit) {
		return domain.HabitRecord{}, err
	}
	rec, _ := st.Habit(habitID)
	return rec, err
}

// CheckIn submits the morning check-in and returns the resulting state.
func (s *Service) CheckIn(ctx context.Context, results map[string]bool) (domain.State, error) {
	st, err := s.mutate(ctx, "checkin", func(st domain.State, now time.Time) (domain.State, bool, error) {
		return s.engine.ApplyCheckIn(st, results, now), true, nil
	})
	if err == nil {
		s.log.Info("check-in submitted",
			zap.Int("results", len(results)),
			zap.Int("check_in_streak", st.CheckInStreak))
	}
	return st, err
}

// MarkCompletedToday credits one habit for today. It reports false when the
// habit is unknown or already completed today.
func (s *Service) MarkCompletedToday(ctx context.Context, habitID string) (bool, error) {
	var credited bool
	_, err := s.mutate(ctx, "mark", func(st domain.State, now time.Time) (domain.State, bool, error) {
		st, credited = s.engine.MarkHabitCompletedToday(st, habitID, now)
		return st, credited, nil
	})
	return credited, err
}

// RecordHabitResult applies one habit's result. It reports false when the
// habit is unknown.
func (s *Service) RecordHabitResult(ctx context.Context, habitID string, didIt bool) (bool, error) {
	var found bool
	_, err := s.mutate(ctx, "record", func(st domain.State, now time.Time) (domain.State, bool, error) {
		st, found = s.engine.RecordHabitResult(st, habitID, didIt, now)
		return st, found, nil
	})
	return found, err
}

// Shear converts a habit's wool into coins and returns the coins earned; zero
// when the habit is unknown or gated.
func (s *Service) Shear(ctx context.Context, habitID string) (int, error) {
	var earned int
	_, err := s.mutate(ctx, "shear", func(st domain.State, now time.Time) (domain.State, bool, error) {
		st, earned = s.engine.Shear(st, habitID, now)
		return st, earned > 0, nil
	})
	if err != nil {
		return earned, err
	}
	if earned > 0 {
		s.countCoins(earned)
		s.log.Info("sheep sheared", zap.String("habit", habitID), zap.Int("coins", earned))
	} else {
		s.log.Debug("shear refused", zap.String("habit", habitID))
	}
	return earned, nil
}

// LogNight records last night's rating.
func (s *Service) LogNight(ctx context.Context, level domain.NightSuccessLevel) error {
	if !level.Valid() {
		return fmt.Errorf("invalid night level %d", int(level))
	}
	_, err := s.mutate(ctx, "night", func(st domain.State, now time.Time) (domain.State, bool, error) {
		return s.engine.LogNight(st, level, now), true, nil
	})
	if err == nil {
		s.countCoins(level.Coins())
	}
	return err
}

// LogNightFromUsage rates last night from bedtime screen minutes.
func (s *Service) LogNightFromUsage(ctx context.Context, minutes int) (domain.NightSuccessLevel, error) {
	if minutes < 0 {
		return domain.ZeroStars, fmt.Errorf("usage minutes must not be negative: %d", minutes)
	}
	var level domain.NightSuccessLevel
	_, err := s.mutate(ctx, "night_usage", func(st domain.State, now time.Time) (domain.State, bool, error) {
		st, level = s.engine.LogNightFromUsageMinutes(st, minutes, s.policy, now)
		return st, true, nil
	})
	if err == nil {
		s.countCoins(level.Coins())
	}
	return level, err
}

// ApplyVerified evaluates last night's screen usage and records the result
// for every verified screen habit. The usage query runs without holding the
// state lock; if ctx ends first nothing is applied.
func (s *Service) ApplyVerified(ctx context.Context, tracker signals.VerifiedTracker) (signals.Verdict, error) {
	snapshot, err := s.State()
	if err != nil {
		return signals.Verdict{}, err
	}
	if tracker.Policy == (signals.UsagePolicy{}) {
		tracker.Policy = s.policy
	}
	tracker.Calendar = s.engine.Calendar
	start := time.Now()
	v, err := tracker.Evaluate(ctx, snapshot, s.now())
	if err != nil {
		s.metrics.Observe(ctx, "verified", false, time.Since(start))
		return signals.Verdict{}, err
	}
	if len(v.Results) == 0 {
		return v, nil
	}
	_, err = s.mutate(ctx, "verified", func(st domain.State, now time.Time) (domain.State, bool, error) {
		changed := false
		for _, id := range st.VerifiedScreenHabitIDs() {
			didIt, ok := v.Results[id]
			if !ok {
				continue
			}
			var found bool
			st, found = s.engine.RecordHabitResult(st, id, didIt, now)
			changed = changed || found
		}
		return st, changed, nil
	})
	if err == nil {
		s.log.Info("verified screen habits applied",
			zap.Int("minutes", v.Minutes),
			zap.Int("stars", int(v.Level)),
			zap.Int("habits", len(v.Results)))
	}
	return v, err
}

// RefreshSleep reloads the last SleepHistoryDays of sleep history from src.
// It does nothing unless sleep access is authorized. Sleep records are kept
// in memory only and are not persisted.
func (s *Service) RefreshSleep(ctx context.Context, src signals.SleepSource) ([]domain.SleepRecord, error) {
	snapshot, err := s.State()
	if err != nil {
		return nil, err
	}
	if !snapshot.HealthKitAuthorized || src == nil {
		return nil, nil
	}
	start := time.Now()
	now := s.now()
	cal := s.engine.Calendar
	from := cal.AddDays(now, -SleepHistoryDays)
	records, err := signals.FetchSleepRecords(ctx, src, from, now, cal, 4)
	if err != nil {
		s.metrics.Observe(ctx, "sleep_refresh", false, time.Since(start))
		return nil, fmt.Errorf("refresh sleep: %w", err)
	}
	s.mu.Lock()
	s.state.SleepRecords = append([]domain.SleepRecord(nil), records...)
	s.mu.Unlock()
	s.metrics.Observe(ctx, "sleep_refresh", true, time.Since(start))
	s.log.Debug("sleep history refreshed", zap.Int("nights", len(records)))
	return records, nil
}

// Settings changes player-wide preferences. Nil fields are left as they are.
type Settings struct {
	Mode                 *domain.GameMode
	BedtimeStart         *time.Time
	BedtimeEnd           *time.Time
	NotificationsEnabled *bool
	HealthKitAuthorized  *bool
	SleepGoalHours       *float64
}

// UpdateSettings applies non-nil settings and persists them.
func (s *Service) UpdateSettings(ctx context.Context, set Settings) (domain.State, error) {
	if set.Mode != nil {
		if _, err := domain.ParseGameMode(string(*set.Mode)); err != nil {
			return domain.State{}, fmt.Errorf("%w: %w", ErrInvalidSetting, err)
		}
	}
	if g := set.SleepGoalHours; g != nil && (math.IsNaN(*g) || *g <= 0 || *g > 24) {
		return domain.State{}, fmt.Errorf("%w: sleep goal must be within (0, 24] hours: %v", ErrInvalidSetting, *g)
	}
	return s.mutate(ctx, "settings", func(st domain.State, _ time.Time) (domain.State, bool, error) {
		if set.Mode != nil {
			st.Mode = *set.Mode
		}
		if set.BedtimeStart != nil {
			st.BedtimeStart = *set.BedtimeStart
		}
		if set.BedtimeEnd != nil {
			st.BedtimeEnd = *set.BedtimeEnd
		}
		if set.NotificationsEnabled != nil {
			st.NotificationsEnabled = *set.NotificationsEnabled
		}
		if set.HealthKitAuthorized != nil {
			st.HealthKitAuthorized = *set.HealthKitAuthorized
		}
		if set.SleepGoalHours != nil {
			st.SleepGoalHours = *set.SleepGoalHours
		}
		return st, true, nil
	})
}
