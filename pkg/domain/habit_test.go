package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utcCal = NewCalendar(time.UTC)

func TestStageForThresholds(t *testing.T) {
	cases := map[int]GrowthStage{
		0:  StageNeedsCare,
		1:  StageGrowing,
		2:  StageGrowing,
		3:  StageThriving,
		10: StageThriving,
	}
	for days, want := range cases {
		assert.Equal(t, want, StageFor(days), "days=%d", days)
	}
}

func TestWoolGainTable(t *testing.T) {
	assert.Equal(t, 1, WoolGain(StageNeedsCare))
	assert.Equal(t, 2, WoolGain(StageGrowing))
	assert.Equal(t, 3, WoolGain(StageThriving))
}

func TestCreditIsOncePerDay(t *testing.T) {
	rec := NewHabitRecord("read", "Read", "book", 1)
	morning := time.Date(2026, time.October, 14, 7, 0, 0, 0, time.UTC)

	require.True(t, rec.Credit(morning, utcCal))
	assert.False(t, rec.Credit(morning.Add(10*time.Hour), utcCal))
	assert.Equal(t, 1, rec.ConsecutiveDaysDone)
	assert.Equal(t, StageGrowing, rec.GrowthStage)
	assert.Equal(t, 2, rec.WoolKg)
	assert.Equal(t, []time.Time{utcCal.StartOfDay(morning)}, rec.CompletionDates)
	assert.Equal(t, morning, *rec.LastCheckedDate)
}

func TestMissKeepsHistoryAndWool(t *testing.T) {
	rec := NewHabitRecord("read", "Read", "book", 1)
	day := time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		rec.Credit(day.AddDate(0, 0, i), utcCal)
	}
	wool, dates := rec.WoolKg, len(rec.CompletionDates)
	rec.Miss()
	assert.Equal(t, 0, rec.ConsecutiveDaysDone)
	assert.Equal(t, StageNeedsCare, rec.GrowthStage)
	assert.Equal(t, wool, rec.WoolKg)
	assert.Len(t, rec.CompletionDates, dates)
}

func TestCompletionDatesStaySorted(t *testing.T) {
	rec := NewHabitRecord("a", "A", "", 0)
	later := time.Date(2026, time.October, 10, 12, 0, 0, 0, time.UTC)
	rec.Credit(later, utcCal)
	rec.Credit(later.AddDate(0, 0, -3), utcCal)
	require.Len(t, rec.CompletionDates, 2)
	assert.True(t, rec.CompletionDates[0].Before(rec.CompletionDates[1]))
}

func TestDisplayTitle(t *testing.T) {
	rec := NewHabitRecord("a", "Lights out", "", 0)
	assert.Equal(t, "Lights out", rec.DisplayTitle())
	blank := "   "
	rec.CustomTitle = &blank
	assert.Equal(t, "Lights out", rec.DisplayTitle())
	custom := "Bed by 11"
	rec.CustomTitle = &custom
	assert.Equal(t, "Bed by 11", rec.DisplayTitle())
}

func TestCompletionRate(t *testing.T) {
	now := time.Date(2026, time.October, 30, 20, 0, 0, 0, time.UTC)
	rec := NewHabitRecord("a", "A", "", 0)
	for i := 0; i < 15; i++ {
		rec.Credit(now.AddDate(0, 0, -2*i), utcCal)
	}
	pct, ok := rec.CompletionRate(now, 30, utcCal)
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 0.001)

	_, ok = rec.CompletionRate(now, 0, utcCal)
	assert.False(t, ok)
}

func TestWeightKg(t *testing.T) {
	rec := HabitRecord{GrowthStage: StageNeedsCare, ConsecutiveDaysDone: 9}
	assert.Equal(t, 34, rec.WeightKg())
	rec = HabitRecord{GrowthStage: StageGrowing, ConsecutiveDaysDone: 2}
	assert.Equal(t, 42, rec.WeightKg())
	rec = HabitRecord{GrowthStage: StageThriving, ConsecutiveDaysDone: 40}
	assert.Equal(t, 100, rec.WeightKg())
}

func TestHabitJSONRoundTrip(t *testing.T) {
	rec := NewHabitRecord("phone_away_10pm", "Phone away", "iphone.slash", 42)
	rec.Schedule = Custom(Monday, Thursday)
	goal := 20
	rec.GoalMinutes = &goal
	rec.UseVerifiedTracking = true
	rec.Credit(time.Date(2026, time.October, 14, 6, 30, 0, 0, time.UTC), utcCal)
	sheared := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	rec.LastShearedDate = &sheared

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var back HabitRecord
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, rec.HabitID, back.HabitID)
	assert.Equal(t, rec.WoolKg, back.WoolKg)
	assert.True(t, rec.Schedule.Equal(back.Schedule))
	assert.Equal(t, *rec.GoalMinutes, *back.GoalMinutes)
	assert.True(t, rec.LastShearedDate.Equal(*back.LastShearedDate))
	require.Len(t, back.CompletionDates, 1)
	assert.True(t, back.CompletionDates[0].Equal(rec.CompletionDates[0]))
}

func TestHabitJSONLegacyDefaults(t *testing.T) {
	legacy := `{"habitId":"read","title":"Read","systemImage":"book","growthStage":"thriving","consecutiveDaysDone":5}`
	var rec HabitRecord
	require.NoError(t, json.Unmarshal([]byte(legacy), &rec))

	assert.Equal(t, 13, rec.WoolKg, "estimated wool for a five day run")
	assert.Equal(t, ScheduleEveryDay, rec.Schedule.Kind())
	assert.True(t, rec.RemindersEnabled)
	assert.False(t, rec.SmartRemindersEnabled)
	assert.False(t, rec.UseVerifiedTracking)
	assert.Equal(t, DefaultSpriteSeed("read"), rec.SpriteSeed)
	assert.NotNil(t, rec.CompletionDates)
	assert.Empty(t, rec.CompletionDates)
}

func TestHabitJSONExplicitNullWoolIsZero(t *testing.T) {
	wire := `{"habitId":"read","title":"Read","systemImage":"book","growthStage":"growing","consecutiveDaysDone":2,"woolKg":null}`
	var rec HabitRecord
	require.NoError(t, json.Unmarshal([]byte(wire), &rec))
	assert.Equal(t, 0, rec.WoolKg)
}

func TestHabitJSONRequiresCoreFields(t *testing.T) {
	for _, wire := range []string{
		`{"title":"Read","systemImage":"book","growthStage":"growing","consecutiveDaysDone":2}`,
		`{"habitId":"read","systemImage":"book","growthStage":"growing","consecutiveDaysDone":2}`,
		`{"habitId":"read","title":"Read","growthStage":"growing","consecutiveDaysDone":2}`,
		`{"habitId":"read","title":"Read","systemImage":"book","consecutiveDaysDone":2}`,
		`{"habitId":"read","title":"Read","systemImage":"book","growthStage":"growing"}`,
		`{"habitId":"read","title":"Read","systemImage":"book","growthStage":"wilting","consecutiveDaysDone":2}`,
	} {
		var rec HabitRecord
		assert.Error(t, json.Unmarshal([]byte(wire), &rec), wire)
	}
}

func TestEstimatedLegacyWool(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 2, 2: 4, 3: 7, 4: 10}
	for days, want := range cases {
		assert.Equal(t, want, EstimatedLegacyWool(days), "days=%d", days)
	}
}

func TestCloneIsDeep(t *testing.T) {
	rec := NewHabitRecord("a", "A", "", 0)
	rec.Schedule = Custom(Monday)
	rec.Credit(time.Date(2026, time.October, 14, 6, 0, 0, 0, time.UTC), utcCal)
	cp := rec.Clone()
	cp.CompletionDates[0] = time.Time{}
	*cp.LastCheckedDate = time.Time{}
	assert.False(t, rec.CompletionDates[0].IsZero())
	assert.False(t, rec.LastCheckedDate.IsZero())
}
