package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"countingsheep/pkg/domain"
)

// Storage keys, one per schema revision.
const (
	KeyV1 = "GameState.persistence.v1"
	KeyV2 = "GameState.persistence.v2"
	KeyV3 = "GameState.persistence.v3"
	KeyV4 = "GameState.persistence.v4"
)

// CurrentVersion is the schema every load is upgraded to and every save writes.
const CurrentVersion = 4

// Schema describes one stored revision. Upgrade brings a decoded document of
// this revision to the next one; the current revision has none.
type Schema struct {
	Version int
	Key     string
	Decode  func([]byte) (document, error)
	Upgrade func(*document)
}

// Ladder returns the known revisions, oldest first.
func Ladder() []Schema {
	return []Schema{
		{Version: 1, Key: KeyV1, Decode: decodeV1, Upgrade: upgradeV1},
		{Version: 2, Key: KeyV2, Decode: decodeDocument, Upgrade: upgradeV2},
		{Version: 3, Key: KeyV3, Decode: decodeDocument, Upgrade: upgradeV3},
		{Version: 4, Key: KeyV4, Decode: decodeDocument},
	}
}

// LoadReport describes where a loaded state came from.
type LoadReport struct {
	Version  int    `json:"version"`
	Key      string `json:"key"`
	Migrated bool   `json:"migrated"`
	Fallback bool   `json:"fallback"`
}

// Migrator loads the newest decodable revision and saves the current one.
type Migrator struct {
	backend Backend
	cal     domain.Calendar
	now     func() time.Time
	log     *zap.Logger
	ladder  []Schema
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithCalendar sets the calendar used to build a default state.
func WithCalendar(cal domain.Calendar) Option { return func(m *Migrator) { m.cal = cal } }

// WithClock sets the time source used to build a default state.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger routes load and save diagnostics to log.
func WithLogger(log *zap.Logger) Option {
	return func(m *Migrator) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMigrator returns a migrator over backend.
func NewMigrator(backend Backend, opts ...Option) *Migrator {
	m := &Migrator{backend: backend, now: time.Now, log: zap.NewNop(), ladder: Ladder()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the newest state that decodes, upgraded to the current
// revision. Legacy loads are written back under the current key. When nothing
// decodes a default state is returned. Load never fails.
func (m *Migrator) Load(ctx context.Context) (domain.State, LoadReport) {
	for i := len(m.ladder) - 1; i >= 0; i-- {
		schema := m.ladder[i]
		data, err := m.backend.Read(ctx, schema.Key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			m.log.Warn("state read failed", zap.String("key", schema.Key), zap.Error(err))
			continue
		}
		doc, err := schema.Decode(data)
		if err != nil {
			m.log.Warn("discarding undecodable state", zap.String("key", schema.Key), zap.Error(err))
			continue
		}
		for _, step := range m.ladder[i:] {
			if step.Upgrade != nil {
				step.Upgrade(&doc)
			}
		}
		state := doc.state()
		report := LoadReport{Version: schema.Version, Key: schema.Key, Migrated: schema.Version < CurrentVersion}
		if report.Migrated {
			m.log.Info("migrated legacy state", zap.Int("from", schema.Version), zap.Int("to", CurrentVersion), zap.Int("habits", len(state.Habits)))
			if err := m.Save(ctx, state); err != nil {
				m.log.Warn("persisting migrated state failed", zap.Error(err))
			}
		}
		return state, report
	}
	m.log.Info("no stored state, using defaults")
	return domain.DefaultState(m.cal, m.now()), LoadReport{Fallback: true}
}

// Save writes s under the current key, replacing what was there.
func (m *Migrator) Save(ctx context.Context, s domain.State) error {
	data, err := json.Marshal(fromState(s))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := m.backend.Write(ctx, KeyV4, data); err != nil {
		return fmt.Errorf("write %s: %w", KeyV4, err)
	}
	return nil
}
