package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaperTrade_Validation(t *testing.T) {
	_, err := NewPaperTrade("x", Candidate{Token: "", PriceUSD: 1}, t0)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewPaperTrade("x", Candidate{Token: "tok", PriceUSD: 0}, t0)
	assert.ErrorIs(t, err, ErrBadEntryPrice)

	_, err = NewPaperTrade("x", Candidate{Token: "tok", PriceUSD: -3}, t0)
	assert.ErrorIs(t, err, ErrBadEntryPrice)
}

func TestNewPaperTrade_SnapshotsBuckets(t *testing.T) {
	c := Candidate{Token: "tok", PriceUSD: 2, Features: Features{AgeMinutes: 30}}
	tr, err := NewPaperTrade("x", c, t0)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, tr.Status)
	assert.Equal(t, 0.0, tr.PnLPct)
	assert.Equal(t, 0.0, tr.PeakPnLPct)
	assert.Equal(t, BucketKeys(c.Features), tr.Buckets)
}

func TestMark_PeakIsMonotonic(t *testing.T) {
	tr := openTrade(t, 1.0)
	rng := rand.New(rand.NewSource(42))

	prevPeak := tr.PeakPnLPct
	for i := 0; i < 200; i++ {
		tr.Mark(0.5+rng.Float64(), t0.Add(time.Duration(i)*time.Minute))
		require.GreaterOrEqual(t, tr.PeakPnLPct, prevPeak)
		require.GreaterOrEqual(t, tr.PeakPnLPct, tr.PnLPct)
		prevPeak = tr.PeakPnLPct
	}
}

func TestMark_IgnoresZeroPriceAndClosedTrades(t *testing.T) {
	tr := openTrade(t, 10)
	tr.Mark(12, t0.Add(time.Minute))
	tr.Mark(0, t0.Add(2*time.Minute))
	assert.InDelta(t, 20.0, tr.PnLPct, 1e-9)

	tr.Close(11, ExitTime, t0.Add(3*time.Minute))
	tr.Mark(50, t0.Add(4*time.Minute))
	assert.InDelta(t, 10.0, tr.PnLPct, 1e-9)
	assert.Equal(t, 11.0, tr.LastPrice)
}

func TestClose_RecordsExit(t *testing.T) {
	tr := openTrade(t, 10)
	exitAt := t0.Add(time.Hour)

	win, pnl := tr.Close(13, ExitTakeProfit, exitAt)

	assert.True(t, win)
	assert.InDelta(t, 30.0, pnl, 1e-9)
	assert.Equal(t, StatusClosed, tr.Status)
	assert.Equal(t, 13.0, tr.ExitPrice)
	require.NotNil(t, tr.ExitAt)
	assert.Equal(t, exitAt, *tr.ExitAt)
	assert.Equal(t, ExitTakeProfit, tr.ExitReason)
}

func TestClose_ZeroPriceKeepsLastMark(t *testing.T) {
	tr := openTrade(t, 10)
	tr.Mark(9, t0.Add(time.Minute))

	win, pnl := tr.Close(0, ExitTime, t0.Add(time.Hour))
	assert.False(t, win)
	assert.InDelta(t, -10.0, pnl, 1e-9)
	assert.Equal(t, 9.0, tr.ExitPrice)
}

func TestTradeStats(t *testing.T) {
	var s TradeStats
	s.RecordOpen()
	s.RecordOpen()
	s.RecordClose(true, 12)
	s.RecordClose(false, -4)

	assert.Equal(t, 0, s.Open)
	assert.Equal(t, 2, s.Closed)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 0.5, s.WinRate(), 1e-9)
	assert.InDelta(t, 4.0, s.AvgReturnPct(), 1e-9)
	assert.InDelta(t, 0.04, s.AvgReturn(), 1e-9)
}
