package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" Evening ")
	require.NoError(t, err)
	assert.Equal(t, PeriodEvening, p)

	_, err = ParsePeriod("night")
	assert.Error(t, err)
	_, err = ParsePeriod("")
	assert.Error(t, err)

	assert.Equal(t, "Afternoon", PeriodAfternoon.Title())
}

func TestRecord_DefaultsNullAndNegativeCounters(t *testing.T) {
	neg := -4
	three := 3
	row := CheckInStreak{UserID: "u", MorningStreak: &neg, EveningStreak: &three}

	rec := row.Record()
	assert.Equal(t, 0, rec.MorningStreak)
	assert.Equal(t, 0, rec.AfternoonStreak)
	assert.Equal(t, 3, rec.EveningStreak)
	assert.False(t, rec.IsEmpty())
	assert.True(t, (&CheckInStreak{}).Record().IsEmpty())
}

func TestWithCheckIn_TouchesOnlyOnePeriod(t *testing.T) {
	at := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	base := StreakRecord{UserID: "u", AfternoonStreak: 2}

	next := base.WithCheckIn(PeriodMorning, 5, at)
	assert.Equal(t, 5, next.Streak(PeriodMorning))
	assert.Equal(t, 2, next.Streak(PeriodAfternoon))
	require.NotNil(t, next.LastCheckIn(PeriodMorning))
	assert.True(t, next.LastCheckIn(PeriodMorning).Equal(at))
	assert.Nil(t, next.LastCheckIn(PeriodEvening))
	assert.Zero(t, base.MorningStreak, "receiver is not modified")
}

func TestRowRoundTripKeepsRevision(t *testing.T) {
	rec := StreakRecord{UserID: "u", MorningStreak: 1, EveningStreak: 9, Revision: 7}
	row := rec.Row()
	require.NotNil(t, row.EveningStreak)
	assert.Equal(t, 9, *row.EveningStreak)
	back := row.Record()
	assert.Equal(t, rec, back)
}
