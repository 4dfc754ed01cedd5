package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLiveRisk_RollResetsDailyCounters(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	r := LiveRisk{}

	assert.True(t, r.Roll(day1))
	r.RecordOpen()
	r.RecordOpen()
	r.RecordClose(-12.5)
	assert.Equal(t, 12.5, r.LossUSD)
	assert.Equal(t, 1, r.ConsecutiveLosses)

	assert.False(t, r.Roll(day1.Add(30*time.Minute)))
	assert.True(t, r.Roll(day1.Add(2*time.Hour)))

	assert.Equal(t, "2026-03-02", r.Day)
	assert.Equal(t, 0.0, r.LossUSD)
	assert.Equal(t, 0, r.ConsecutiveLosses)
	assert.Equal(t, 1, r.OpenCount, "open positions carry across days")
}

func TestLiveRisk_WinResetsStreak(t *testing.T) {
	r := LiveRisk{OpenCount: 3}
	r.RecordClose(-1)
	r.RecordClose(-2)
	assert.Equal(t, 2, r.ConsecutiveLosses)

	r.RecordClose(5)
	assert.Equal(t, 0, r.ConsecutiveLosses)
	assert.Equal(t, 3.0, r.LossUSD)
	assert.Equal(t, 0, r.OpenCount)
}
