package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekday numbers days Sunday=1 through Saturday=7, matching the persisted format.
type Weekday int

// Weekday values.
const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayShortNames = [...]string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday()) + 1
}

// Valid reports whether w is one of the seven known weekdays.
func (w Weekday) Valid() bool { return w >= Sunday && w <= Saturday }

// ShortName returns the three letter English abbreviation.
func (w Weekday) ShortName() string {
	if !w.Valid() {
		return ""
	}
	return weekdayShortNames[w]
}

// ParseWeekday accepts short or long English names, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		for w := Sunday; w <= Saturday; w++ {
			if strings.HasPrefix(strings.ToLower(time.Weekday(w-1).String()), s) {
				return w, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ScheduleKind tags the variant held by a Schedule.
type ScheduleKind int

// Schedule variants. The zero value is every day.
const (
	ScheduleEveryDay ScheduleKind = iota
	ScheduleWeekdays
	ScheduleCustom
)

var scheduleWireTags = map[ScheduleKind]string{
	ScheduleEveryDay: "everyDay",
	ScheduleWeekdays: "weekdays",
	ScheduleCustom:   "custom",
}

// Schedule describes the calendar days a habit is due. It is a closed sum of
// EveryDay, Weekdays and Custom(days); the zero value is EveryDay.
type Schedule struct {
	kind ScheduleKind
	days []Weekday // sorted, unique; only for ScheduleCustom
}

// EveryDay returns the schedule that is due on all days.
func EveryDay() Schedule { return Schedule{kind: ScheduleEveryDay} }

// Weekdays returns the Monday to Friday schedule.
func Weekdays() Schedule { return Schedule{kind: ScheduleWeekdays} }

// Custom returns a schedule due on exactly the given days. Duplicates and
// invalid values are dropped.
func Custom(days ...Weekday) Schedule {
	seen := make(map[Weekday]struct{}, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if !d.Valid() {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Schedule{kind: ScheduleCustom, days: out}
}

// Kind returns the variant tag.
func (s Schedule) Kind() ScheduleKind { return s.kind }

// Days returns a copy of the custom day set, sorted Sunday first.
func (s Schedule) Days() []Weekday {
	if s.kind != ScheduleCustom {
		return nil
	}
	return append([]Weekday(nil), s.days...)
}

// IsScheduled reports whether the schedule includes date. Only the weekday of
// date in its own location is considered.
func (s Schedule) IsScheduled(date time.Time) bool {
	w := WeekdayOf(date)
	switch s.kind {
	case ScheduleWeekdays:
		return w >= Monday && w <= Friday
	case ScheduleCustom:
		for _, d := range s.days {
			if d == w {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// IsScheduled is the free-function form used by display filters.
func IsScheduled(s Schedule, date time.Time) bool { return s.IsScheduled(date) }

// Equal reports whether two schedules hold the same variant and days.
func (s Schedule) Equal(o Schedule) bool {
	if s.kind != o.kind || len(s.days) != len(o.days) {
		return false
	}
	for i := range s.days {
		if s.days[i] != o.days[i] {
			return false
		}
	}
	return true
}

// DisplayName renders the schedule for settings screens.
func (s Schedule) DisplayName() string {
	switch s.kind {
	case ScheduleWeekdays:
		return "Weekdays"
	case ScheduleCustom:
		if len(s.days) == 0 {
			return "Custom"
		}
		names := make([]string, len(s.days))
		for i, d := range s.days {
			names[i] = d.ShortName()
		}
		return strings.Join(names, ", ")
	default:
		return "Every day"
	}
}

// String implements fmt.Stringer.
func (s Schedule) String() string { return s.DisplayName() }

// ParseSchedule accepts "everyday", "weekdays" or a comma separated day list
// such as "mon,wed,fri".
func ParseSchedule(v string) (Schedule, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "everyday", "every-day", "daily":
		return EveryDay(), nil
	case "weekdays":
		return Weekdays(), nil
	}
	var days []Weekday
	for _, part := range strings.Split(v, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return Schedule{}, err
		}
		days = append(days, d)
	}
	return Custom(days...), nil
}

type customPayload struct {
	Days []Weekday `json:"_0"`
}

// MarshalJSON encodes the schedule as a single-key object keyed by variant,
// e.g. {"everyDay":{}} or {"custom":{"_0":[2,4]}}.
func (s Schedule) MarshalJSON() ([]byte, error) {
	tag, ok := scheduleWireTags[s.kind]
	if !ok {
		return nil, fmt.Errorf("schedule: unknown kind %d", s.kind)
	}
	var payload any = struct{}{}
	if s.kind == ScheduleCustom {
		days := s.days
		if days == nil {
			days = []Weekday{}
		}
		payload = customPayload{Days: days}
	}
	return json.Marshal(map[string]any{tag: payload})
}

// UnmarshalJSON decodes the single-key variant object written by MarshalJSON.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("schedule: expected exactly one variant, got %d", len(raw))
	}
	for tag, body := range raw {
		switch tag {
		case "everyDay":
			*s = EveryDay()
		case "weekdays":
			*s = Weekdays()
		case "custom":
			var p customPayload
			if len(bytes.TrimSpace(body)) > 0 {
				if err := json.Unmarshal(body, &p); err != nil {
					return fmt.Errorf("schedule: custom days: %w", err)
				}
			}
			for _, d := range p.Days {
				if !d.Valid() {
					return fmt.Errorf("schedule: invalid weekday %d", d)
				}
			}
			*s = Custom(p.Days...)
		default:
			return fmt.Errorf("schedule: unknown variant %q", tag)
		}
	}
	return nil
}
