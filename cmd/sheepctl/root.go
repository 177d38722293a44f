package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"countingsheep/internal/config"
	"countingsheep/internal/core"
	"countingsheep/internal/infra/kv"
	"countingsheep/internal/logging"
	"countingsheep/internal/persistence"
	"countingsheep/internal/signals"
	"countingsheep/pkg/domain"
)

// app holds what every subcommand needs once the root pre-run has wired it.
type app struct {
	configPath string
	verbose    bool
	out        io.Writer

	cfg      config.Config
	log      *zap.Logger
	store    persistence.Store
	registry *prometheus.Registry
	svc      *core.Service
	cal      domain.Calendar
	policy   signals.UsagePolicy
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "sheepctl",
		Short:        "Grow habit sheep, bank wool and keep your bedtime streak",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "sheep.yaml", "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newStatusCmd(a),
		newAdoptCmd(a),
		newCheckInCmd(a),
		newMarkCmd(a),
		newShearCmd(a),
		newNightCmd(a),
		newVerifyCmd(a),
		newCustomizeCmd(a),
		newSettingsCmd(a),
		newDueCmd(a),
		newSleepCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.log = log

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cal = domain.NewCalendar(loc)

	a.policy, err = signals.PolicyFromThresholds(cfg.Verified.Thresholds)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := kv.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.store = store

	opts := []core.Option{
		core.WithClock(nowFunc),
		core.WithCalendar(a.cal),
		core.WithLogger(log.Named("core")),
		core.WithUsagePolicy(a.policy),
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		rec, err := core.NewPrometheusRecorder(a.registry, cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetrics(rec))
	}

	mig := persistence.NewMigrator(store,
		persistence.WithCalendar(a.cal),
		persistence.WithClock(nowFunc),
		persistence.WithLogger(log.Named("persistence")),
	)
	a.svc = core.NewService(mig, opts...)
	a.svc.Load(ctx)
	log.Debug("ready", zap.String("driver", string(store.Driver())), zap.String("timezone", a.cal.Location().String()))
	return nil
}

// close flushes metrics and releases the store. Safe to call when setup
// never ran.
func (a *app) close() error {
	var errs []error
	if a.registry != nil && a.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
