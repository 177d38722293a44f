package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"countingsheep/internal/core"
	"countingsheep/internal/signals"
	"countingsheep/pkg/domain"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the game state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := a.svc.State()
			if err != nil {
				return err
			}
			return a.printJSON(st)
		},
	}
}

func newAdoptCmd(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "adopt <id|-> <title>",
		Short: "Adopt a new habit sheep; use - to generate an id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if id == "-" {
				id = uuid.NewString()
			}
			rec, err := a.svc.Adopt(cmd.Context(), id, args[1], image)
			if err != nil {
				return err
			}
			a.printf("adopted %s (%s)\n", rec.HabitID, rec.DisplayTitle())
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "leaf", "icon name shown for the sheep")
	return cmd
}

// parseResults reads id=bool pairs. A bare id means done.
func parseResults(args []string) (map[string]bool, error) {
	out := make(map[string]bool, len(args))
	for _, arg := range args {
		id, raw, found := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("empty habit id in %q", arg)
		}
		if !found {
			out[id] = true
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("result for %s: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

func newCheckInCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <id>[=true|false]...",
		Short: "Submit the morning check-in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := parseResults(args)
			if err != nil {
				return err
			}
			st, err := a.svc.CheckIn(cmd.Context(), results)
			if err != nil {
				return err
			}
			for _, h := range st.Habits {
				if _, ok := results[h.HabitID]; !ok {
					continue
				}
				a.printf("%-24s %-10s %2d days  %3d kg wool\n", h.DisplayTitle(), h.GrowthStage.DisplayName(), h.ConsecutiveDaysDone, h.WoolKg)
			}
			a.printf("check-in streak: %d\n", st.CheckInStreak)
			return nil
		},
	}
}

func newMarkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <id>",
		Short: "Mark one habit completed today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.svc.MarkCompletedToday(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				a.printf("%s: nothing to do (unknown or already done today)\n", args[0])
				return nil
			}
			a.printf("%s: done for today\n", args[0])
			return nil
		},
	}
}

func formatCooldown(d time.Duration) string {
	hours := int((d + time.Hour - 1) / time.Hour)
	if days := hours / 24; days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours%24)
	}
	return fmt.Sprintf("%dh", hours)
}

func newShearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shear <id>",
		Short: "Turn a sheep's wool into coins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coins, err := a.svc.Shear(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if coins > 0 {
				a.printf("sheared %s for %d coins\n", args[0], coins)
				return nil
			}
			st, err := a.svc.State()
			if err != nil {
				return err
			}
			rec, ok := st.Habit(args[0])
			switch {
			case !ok:
				a.printf("%s: no such sheep\n", args[0])
			case rec.WoolKg < domain.MinShearKg:
				a.printf("%s: need at least %d kg wool, have %d\n", args[0], domain.MinShearKg, rec.WoolKg)
			default:
				a.printf("%s: shearing cooldown, %s remaining\n", args[0], formatCooldown(domain.RemainingCooldown(rec, a.svc.Now())))
			}
			return nil
		},
	}
}

func newNightCmd(a *app) *cobra.Command {
	var usage int
	cmd := &cobra.Command{
		Use:   "night [stars]",
		Short: "Log last night as 0-3 stars, or from bedtime screen minutes with --usage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("usage") {
				if len(args) > 0 {
					return fmt.Errorf("give either stars or --usage, not both")
				}
				level, err := a.svc.LogNightFromUsage(cmd.Context(), usage)
				if err != nil {
					return err
				}
				a.printf("%s %s (+%d coins)\n", level.StarsText(), level.DisplayTitle(), level.Coins())
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("stars or --usage is required")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("stars: %w", err)
			}
			level := domain.NightSuccessLevel(n)
			if err := a.svc.LogNight(cmd.Context(), level); err != nil {
				return err
			}
			a.printf("%s %s (+%d coins)\n", level.StarsText(), level.DisplayTitle(), level.Coins())
			return nil
		},
	}
	cmd.Flags().IntVar(&usage, "usage", 0, "screen minutes during the bedtime window")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var usage int
	cmd := &cobra.Command{
		Use:   "verify --usage N",
		Short: "Score verified screen habits from last night's screen minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.svc.ApplyVerified(cmd.Context(), signals.VerifiedTracker{
				Source: signals.FixedUsage(usage),
				Policy: a.policy,
			})
			if err != nil {
				return err
			}
			if len(v.Results) == 0 {
				a.printf("no habits use verified tracking\n")
				return nil
			}
			a.printf("%d min between %s and %s: %s\n", v.Minutes,
				v.Window.Start.Format("Jan 2 15:04"), v.Window.End.Format("Jan 2 15:04"), v.Level.StarsText())
			ids := make([]string, 0, len(v.Results))
			for id := range v.Results {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				a.printf("  %s: %t\n", id, v.Results[id])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&usage, "usage", 0, "screen minutes during the bedtime window")
	_ = cmd.MarkFlagRequired("usage")
	return cmd
}

func parseClock(a *app, v string) (time.Time, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: want HH:MM", v)
	}
	return a.cal.At(a.svc.Now(), t.Hour(), t.Minute()), nil
}

func newCustomizeCmd(a *app) *cobra.Command {
	var (
		title, schedule, target  string
		reminders, smart, verify bool
		goal                     int
		seed                     int64
	)
	cmd := &cobra.Command{
		Use:   "customize <id>",
		Short: "Change a habit's title, schedule, reminders or tracking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var c core.Customization
			if f.Changed("title") {
				c.CustomTitle = &title
			}
			if f.Changed("schedule") {
				s, err := domain.ParseSchedule(schedule)
				if err != nil {
					return err
				}
				c.Schedule = &s
			}
			if f.Changed("reminders") {
				c.RemindersEnabled = &reminders
			}
			if f.Changed("smart-reminders") {
				c.SmartRemindersEnabled = &smart
			}
			if f.Changed("verified") {
				c.UseVerifiedTracking = &verify
			}
			if f.Changed("goal") {
				c.GoalMinutes = &goal
			}
			if f.Changed("seed") {
				c.SpriteSeed = &seed
			}
			if f.Changed("target") {
				t, err := parseClock(a, target)
				if err != nil {
					return err
				}
				c.TargetTime = &t
			}
			rec, err := a.svc.Customize(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			a.printf("%s: %q, %s\n", rec.HabitID, rec.DisplayTitle(), rec.Schedule.DisplayName())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "custom title; empty restores the default")
	f.StringVar(&schedule, "schedule", "", "everyday, weekdays or a day list like mon,wed,fri")
	f.StringVar(&target, "target", "", "target time HH:MM")
	f.BoolVar(&reminders, "reminders", true, "enable reminders")
	f.BoolVar(&smart, "smart-reminders", false, "enable smart reminders")
	f.BoolVar(&verify, "verified", false, "verify from screen usage")
	f.IntVar(&goal, "goal", 0, "goal minutes")
	f.Int64Var(&seed, "seed", 0, "sprite seed")
	return cmd
}

func newSettingsCmd(a *app) *cobra.Command {
	var (
		mode, bedtime         string
		notifications, health bool
		goal                  float64
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change game mode, bedtime window and sleep goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var s core.Settings
			if f.Changed("mode") {
				m, err := domain.ParseGameMode(mode)
				if err != nil {
					return err
				}
				s.Mode = &m
			}
			if f.Changed("bedtime") {
				from, to, ok := strings.Cut(bedtime, "-")
				if !ok {
					return fmt.Errorf("bedtime %q: want HH:MM-HH:MM", bedtime)
				}
				start, err := parseClock(a, from)
				if err != nil {
					return err
				}
				end, err := parseClock(a, to)
				if err != nil {
					return err
				}
				s.BedtimeStart, s.BedtimeEnd = &start, &end
			}
			if f.Changed("notifications") {
				s.NotificationsEnabled = &notifications
			}
			if f.Changed("healthkit") {
				s.HealthKitAuthorized = &health
			}
			if f.Changed("sleep-goal") {
				s.SleepGoalHours = &goal
			}
			st, err := a.svc.UpdateSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			a.printf("mode %s, bedtime %s-%s, goal %.1fh\n", st.Mode.DisplayName(),
				st.BedtimeStart.In(a.cal.Location()).Format("15:04"),
				st.BedtimeEnd.In(a.cal.Location()).Format("15:04"), st.SleepGoalHours)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", "", "cozy or verified")
	f.StringVar(&bedtime, "bedtime", "", "bedtime window HH:MM-HH:MM")
	f.BoolVar(&notifications, "notifications", false, "enable notifications")
	f.BoolVar(&health, "healthkit", false, "allow reading sleep history")
	f.Float64Var(&goal, "sleep-goal", domain.DefaultSleepGoalHours, "nightly sleep goal in hours")
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List habits scheduled for a day",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			day := a.svc.Now()
			if date != "" {
				d, err := time.ParseInLocation(time.DateOnly, date, a.cal.Location())
				if err != nil {
					return fmt.Errorf("date: %w", err)
				}
				day = d
			}
			st, err := a.svc.State()
			if err != nil {
				return err
			}
			for _, h := range st.DueHabits(day) {
				mark := " "
				if h.CompletedOn(day, a.cal) {
					mark = "x"
				}
				a.printf("[%s] %s (%s)\n", mark, h.DisplayTitle(), h.Schedule.DisplayName())
			}
			if a.cal.SameDay(day, a.svc.Now()) && st.NeedsCheckInToday(day, a.cal) {
				a.printf("check-in pending\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD (default today)")
	return cmd
}

func newSleepCmd(a *app) *cobra.Command {
	var samplesPath string
	cmd := &cobra.Command{
		Use:   "sleep --samples file.json",
		Short: "Summarize the last 30 nights from exported sleep samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// #nosec G304 -- operator supplied export path
			data, err := os.ReadFile(samplesPath)
			if err != nil {
				return fmt.Errorf("read samples: %w", err)
			}
			var samples signals.SampleSlice
			if err := json.Unmarshal(data, &samples); err != nil {
				return fmt.Errorf("decode samples: %w", err)
			}
			st, err := a.svc.State()
			if err != nil {
				return err
			}
			if !st.HealthKitAuthorized {
				a.printf("sleep access is off; enable it with: sheepctl settings --healthkit\n")
				return nil
			}
			records, err := a.svc.RefreshSleep(cmd.Context(), samples)
			if err != nil {
				return err
			}
			for _, r := range records {
				met := " "
				if r.MetGoal(st.SleepGoalHours) {
					met = "*"
				}
				a.printf("%s %s %4.1fh asleep  %3.0f%% efficient\n", r.Date.Format(time.DateOnly), met, r.TotalHours(), r.Efficiency()*100)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&samplesPath, "samples", "", "JSON array of {start, end, stage} samples")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Load the persisted state, upgrading legacy revisions, and report what was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := a.svc.LoadReport()
			if rep.Fallback {
				if err := a.svc.Save(cmd.Context()); err != nil {
					return err
				}
			}
			return a.printJSON(rep)
		},
	}
}
