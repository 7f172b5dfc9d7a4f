package medications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMedication(t *testing.T, frequency string, times []string, start time.Time) *Medication {
	t.Helper()
	med := &Medication{
		ID:        "med-1",
		UserID:    "user-1",
		Name:      "Aspirin",
		Frequency: frequency,
		Enabled:   true,
		StartDate: start,
	}
	require.NoError(t, med.SetTimes(times))
	return med
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextFireTimeDailyBeforeFirstDose(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 10, 8, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 10, 9, 0), next)
}

func TestNextFireTimeDailyAfterLastDose(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 10, 9, 30))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 11, 9, 0), next)
}

func TestNextFireTimeExactDoseTimeAdvances(t *testing.T) {
	// strictly after: being checked at 09:00:00 sharp moves to tomorrow
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 10, 9, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 11, 9, 0), next)
}

func TestNextFireTimeMultipleTimesPicksNext(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"21:00", "08:00", "13:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 10, 10, 15))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 10, 13, 0), next)
}

func TestNextFireTimeAlternateOnDay(t *testing.T) {
	// started March 1st; March 5th is offset 4, a dosing day
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 5, 8, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 5, 9, 0), next)
}

func TestNextFireTimeAlternateOffDay(t *testing.T) {
	// March 6th is offset 5, skipped; next dose March 7th
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 6, 8, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 7, 9, 0), next)
}

func TestNextFireTimeAlternatePastTodaysDoses(t *testing.T) {
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, date(2026, 3, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 5, 10, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 7, 9, 0), next)
}

func TestNextFireTimeAlternateAcrossDSTStart(t *testing.T) {
	// US DST begins 2026-03-08, making that calendar day 23 hours long;
	// day offsets must still count calendar days, not elapsed 24h blocks
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, start)

	// March 10th is offset 3, an off day; next dose is March 11th
	next, ok := NextFireTime(med, time.Date(2026, 3, 10, 8, 0, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, loc), next)

	// March 11th is offset 4, a dosing day
	next, ok = NextFireTime(med, time.Date(2026, 3, 11, 8, 0, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, loc), next)
}

func TestNextFireTimeAlternateAcrossDSTEnd(t *testing.T) {
	// US DST ends 2026-11-01, a 25-hour day
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2026, 10, 31, 0, 0, 0, 0, loc)
	med := newMedication(t, FrequencyAlternate, []string{"09:00"}, start)

	// November 3rd is offset 3, an off day; next dose is November 4th
	next, ok := NextFireTime(med, time.Date(2026, 11, 3, 8, 0, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 11, 4, 9, 0, 0, 0, loc), next)
}

func TestNextFireTimeWeekly(t *testing.T) {
	med := newMedication(t, FrequencyWeekly, []string{"09:00"}, date(2026, 3, 2, 0, 0))

	// offset 3: next dosing day is offset 7
	next, ok := NextFireTime(med, date(2026, 3, 5, 12, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 9, 9, 0), next)

	// on the dosing day before the dose
	next, ok = NextFireTime(med, date(2026, 3, 9, 8, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 9, 9, 0), next)

	// on the dosing day after the dose
	next, ok = NextFireTime(med, date(2026, 3, 9, 9, 30))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 16, 9, 0), next)
}

func TestNextFireTimeBeforeStartDate(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 4, 1, 0, 0))

	next, ok := NextFireTime(med, date(2026, 3, 20, 12, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 4, 1, 9, 0), next)
}

func TestNextFireTimeEndDateTerminal(t *testing.T) {
	end := date(2026, 3, 10, 0, 0)
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))
	med.EndDate = &end

	// last dose lands on the end date itself
	next, ok := NextFireTime(med, date(2026, 3, 10, 8, 0))
	require.True(t, ok)
	assert.Equal(t, date(2026, 3, 10, 9, 0), next)

	_, ok = NextFireTime(med, date(2026, 3, 10, 9, 30))
	assert.False(t, ok)
}

func TestNextFireTimeDisabled(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))
	med.Enabled = false

	_, ok := NextFireTime(med, date(2026, 3, 10, 8, 0))
	assert.False(t, ok)
}

func TestNextFireTimeNoTimes(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00"}, date(2026, 3, 1, 0, 0))
	med.TimesJSON = "[]"

	_, ok := NextFireTime(med, date(2026, 3, 10, 8, 0))
	assert.False(t, ok)
}

func TestOccurrencesBetween(t *testing.T) {
	med := newMedication(t, FrequencyDaily, []string{"09:00", "21:00"}, date(2026, 3, 1, 0, 0))

	occ := OccurrencesBetween(med, date(2026, 3, 5, 0, 0), date(2026, 3, 6, 23, 59))
	require.Len(t, occ, 4)
	assert.Equal(t, date(2026, 3, 5, 9, 0), occ[0])
	assert.Equal(t, date(2026, 3, 5, 21, 0), occ[1])
	assert.Equal(t, date(2026, 3, 6, 9, 0), occ[2])
	assert.Equal(t, date(2026, 3, 6, 21, 0), occ[3])
}

func TestAdherencePercentage(t *testing.T) {
	assert.Equal(t, 100, AdherencePercentage(nil))

	logs := []ReminderLog{
		{Status: StatusTaken},
		{Status: StatusTaken},
		{Status: StatusMissed},
	}
	assert.Equal(t, 67, AdherencePercentage(logs))

	logs = append(logs, ReminderLog{Status: StatusSnoozed})
	assert.Equal(t, 50, AdherencePercentage(logs))
}
