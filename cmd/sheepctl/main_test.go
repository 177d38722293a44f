package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"countingsheep/internal/infra/kv/fs"
	"countingsheep/internal/persistence"
)

var testNow = time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)

// sandbox points the CLI at an fs store in a temp dir with a fixed clock.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHEEP_STORAGE_DRIVER", "fs")
	t.Setenv("SHEEP_FS_ROOT", dir)
	t.Setenv("SHEEP_TIMEZONE", "UTC")
	t.Setenv("SHEEP_LOG_LEVEL", "error")
	t.Setenv("SHEEP_LOG_FORMAT", "json")
	prev := nowFunc
	nowFunc = func() time.Time { return testNow }
	t.Cleanup(func() { nowFunc = prev })
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCLIHabitLifecycle(t *testing.T) {
	sandbox(t)

	out, errOut, code := runCLI(t, "adopt", "read", "Read a chapter", "--image", "book")
	if code != 0 {
		t.Fatalf("adopt exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "adopted read (Read a chapter)") {
		t.Fatalf("unexpected adopt output %q", out)
	}

	out, errOut, code = runCLI(t, "checkin", "read=true")
	if code != 0 {
		t.Fatalf("checkin exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "check-in streak: 1") {
		t.Fatalf("unexpected checkin output %q", out)
	}

	out, _, _ = runCLI(t, "mark", "read")
	if !strings.Contains(out, "nothing to do") {
		t.Fatalf("second credit on the same day should be a no-op, got %q", out)
	}

	out, _, _ = runCLI(t, "shear", "read")
	if !strings.Contains(out, "need at least 10 kg wool, have 2") {
		t.Fatalf("unexpected shear output %q", out)
	}

	if _, errOut, code = runCLI(t, "night", "3"); code != 0 {
		t.Fatalf("night exit %d: %s", code, errOut)
	}

	out, _, code = runCLI(t, "status")
	if code != 0 {
		t.Fatalf("status exit %d", code)
	}
	var st struct {
		Coins  int `json:"coins"`
		Streak int `json:"streak"`
		Habits []struct {
			HabitID string `json:"habitId"`
			WoolKg  int    `json:"woolKg"`
		} `json:"habitSheep"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("status is not JSON: %v\n%s", err, out)
	}
	if st.Coins != 10 || st.Streak != 1 || len(st.Habits) != 1 || st.Habits[0].WoolKg != 2 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCLICustomizeAndDue(t *testing.T) {
	sandbox(t)
	if _, errOut, code := runCLI(t, "adopt", "walk", "Evening walk"); code != 0 {
		t.Fatalf("adopt exit %d: %s", code, errOut)
	}
	out, errOut, code := runCLI(t, "customize", "walk", "--schedule", "sat,sun", "--title", "Weekend walk")
	if code != 0 {
		t.Fatalf("customize exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, `"Weekend walk", Sun, Sat`) {
		t.Fatalf("unexpected customize output %q", out)
	}

	// testNow is a Wednesday.
	out, _, _ = runCLI(t, "due")
	if strings.Contains(out, "Weekend walk") {
		t.Fatalf("weekend habit listed on a weekday: %q", out)
	}
	out, _, _ = runCLI(t, "due", "--date", "2026-10-17")
	if !strings.Contains(out, "[ ] Weekend walk") {
		t.Fatalf("weekend habit missing on saturday: %q", out)
	}
}

func TestCLIVerifyUsesScreenHabits(t *testing.T) {
	sandbox(t)
	runCLI(t, "adopt", "phone_away_10pm", "Phone away")
	runCLI(t, "customize", "phone_away_10pm", "--verified")

	out, errOut, code := runCLI(t, "verify", "--usage", "4")
	if code != 0 {
		t.Fatalf("verify exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "phone_away_10pm: true") || !strings.Contains(out, "Oct 13 22:30") {
		t.Fatalf("unexpected verify output %q", out)
	}
}

func TestCLIMigratesLegacyState(t *testing.T) {
	dir := sandbox(t)
	store, err := fs.New(dir)
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	legacy := `{"coins":5,"streak":2,"mode":"cozy","bedtimeStart":"2026-10-11T22:30:00Z","bedtimeEnd":"2026-10-12T07:00:00Z","notificationsEnabled":true}`
	if err := store.Write(context.Background(), persistence.KeyV1, []byte(legacy)); err != nil {
		t.Fatalf("seed legacy blob: %v", err)
	}

	out, errOut, code := runCLI(t, "migrate")
	if code != 0 {
		t.Fatalf("migrate exit %d: %s", code, errOut)
	}
	var rep persistence.LoadReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep.Version != 1 || !rep.Migrated {
		t.Fatalf("unexpected report %+v", rep)
	}

	out, _, _ = runCLI(t, "migrate")
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep.Version != persistence.CurrentVersion || rep.Migrated {
		t.Fatalf("second load should read v4, got %+v", rep)
	}
}

func TestCLISleepNeedsAuthorization(t *testing.T) {
	sandbox(t)
	samples := filepath.Join(t.TempDir(), "samples.json")
	data := `[{"start":"2026-10-13T23:00:00Z","end":"2026-10-14T06:30:00Z","stage":"core"}]`
	if err := os.WriteFile(samples, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, code := runCLI(t, "sleep", "--samples", samples)
	if code != 0 || !strings.Contains(out, "sleep access is off") {
		t.Fatalf("unexpected sleep output %d %q", code, out)
	}

	if _, errOut, code := runCLI(t, "settings", "--healthkit", "--sleep-goal", "7"); code != 0 {
		t.Fatalf("settings exit %d: %s", code, errOut)
	}
	out, errOut, code := runCLI(t, "sleep", "--samples", samples)
	if code != 0 {
		t.Fatalf("sleep exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "2026-10-14 *  7.5h asleep") {
		t.Fatalf("unexpected sleep output %q", out)
	}
}

func TestCLIErrors(t *testing.T) {
	sandbox(t)
	tests := [][]string{
		{"checkin", "read=maybe"},
		{"night"},
		{"night", "2", "--usage", "3"},
		{"customize", "ghost"},
		{"settings", "--bedtime", "2230"},
		{"settings", "--sleep-goal", "NaN"},
		{"no-such-command"},
	}
	for _, args := range tests {
		_, errOut, code := runCLI(t, args...)
		if code == 0 {
			t.Fatalf("%v: expected failure", args)
		}
		if !strings.Contains(errOut, "Error:") {
			t.Fatalf("%v: expected error on stderr, got %q", args, errOut)
		}
	}
}

func TestParseResults(t *testing.T) {
	got, err := parseResults([]string{"read", "walk=false", "stretch=1"})
	if err != nil {
		t.Fatalf("parseResults: %v", err)
	}
	want := map[string]bool{"read": true, "walk": false, "stretch": true}
	for id, v := range want {
		if got[id] != v {
			t.Fatalf("%s: got %t want %t", id, got[id], v)
		}
	}
	if _, err := parseResults([]string{"=true"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestFormatCooldown(t *testing.T) {
	cases := map[time.Duration]string{
		30 * time.Minute:              "1h",
		5 * time.Hour:                 "5h",
		48*time.Hour + 90*time.Minute: "2d 2h",
	}
	for d, want := range cases {
		if got := formatCooldown(d); got != want {
			t.Fatalf("formatCooldown(%s) = %q, want %q", d, got, want)
		}
	}
}
