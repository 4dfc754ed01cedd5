package live_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine/live"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockExecutor struct {
	calls  int
	result domain.SwapResult
	err    error
}

func (m *mockExecutor) Buy(_ context.Context, _ string, _ float64) (domain.SwapResult, error) {
	m.calls++
	return m.result, m.err
}

func clock() time.Time { return t0 }

func defaultCfg() live.Config {
	return live.Config{
		Enabled:              true,
		Mirror:               true,
		SizeUSD:              25,
		MaxDailyLossUSD:      50,
		MaxConsecutiveLosses: 3,
		MaxOpenPositions:     2,
	}
}

// eligibleStore devuelve un store con el gate abierto y un trade paper abierto.
func eligibleStore(t *testing.T) (*state.Store, *domain.PaperTrade) {
	t.Helper()
	cfg := state.DefaultConfig()
	cfg.Gate.MinClosed = 0
	cfg.Gate.MinWinRate = 0
	cfg.Gate.MinAvgReturn = -1
	st := state.NewStore(nil, cfg)
	st.EvaluateGate(t0)
	require.True(t, st.Gate().Eligible)

	tr, err := st.OpenPaper(domain.Candidate{Token: "tok", Symbol: "TOK", PriceUSD: 1}, t0)
	require.NoError(t, err)
	return st, tr
}

func TestMaybeBuy_Success(t *testing.T) {
	st, tr := eligibleStore(t)
	exec := &mockExecutor{result: domain.SwapResult{Success: true, Detail: "sig"}}
	e := live.New(defaultCfg(), exec, clock)

	lt := e.MaybeBuy(context.Background(), st, tr)

	require.NotNil(t, lt)
	assert.True(t, lt.Success)
	assert.Equal(t, 25.0, lt.SizeUSD)
	assert.Equal(t, lt.ID, tr.LiveTradeID)
	assert.Equal(t, 1, st.LiveRisk().OpenCount)
	assert.Equal(t, "2026-03-01", st.LiveRisk().Day)
	assert.Equal(t, 1, exec.calls)
}

func TestMaybeBuy_ExecutorErrorIsRecorded(t *testing.T) {
	st, tr := eligibleStore(t)
	exec := &mockExecutor{err: errors.New("connection reset")}
	e := live.New(defaultCfg(), exec, clock)

	lt := e.MaybeBuy(context.Background(), st, tr)

	require.NotNil(t, lt)
	assert.False(t, lt.Success)
	assert.Equal(t, domain.StatusFailed, lt.Status)
	assert.Equal(t, "connection reset", lt.Detail)
	assert.Empty(t, tr.LiveTradeID)
	assert.Equal(t, 0, st.LiveRisk().OpenCount)
	assert.Len(t, st.Doc().LiveTrades, 1)
}

func TestMaybeBuy_Preconditions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*live.Config)
		prep   func(*state.Store)
	}{
		{"live disabled", func(c *live.Config) { c.Enabled = false }, nil},
		{"mirror off", func(c *live.Config) { c.Mirror = false }, nil},
		{"zero size", func(c *live.Config) { c.SizeUSD = 0 }, nil},
		{"gate closed", nil, func(st *state.Store) { st.Doc().Gate = domain.GateVerdict{Reason: domain.GateWinRateLow} }},
		{"daily loss", nil, func(st *state.Store) {
			st.Doc().LiveRisk = domain.LiveRisk{Day: "2026-03-01", LossUSD: 60}
		}},
		{"loss streak", nil, func(st *state.Store) {
			st.Doc().LiveRisk = domain.LiveRisk{Day: "2026-03-01", ConsecutiveLosses: 3}
		}},
		{"open positions", nil, func(st *state.Store) {
			st.Doc().LiveRisk = domain.LiveRisk{Day: "2026-03-01", OpenCount: 2}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, tr := eligibleStore(t)
			cfg := defaultCfg()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			if tc.prep != nil {
				tc.prep(st)
			}
			exec := &mockExecutor{result: domain.SwapResult{Success: true}}

			lt := live.New(cfg, exec, clock).MaybeBuy(context.Background(), st, tr)

			assert.Nil(t, lt)
			assert.Equal(t, 0, exec.calls)
			assert.Empty(t, st.Doc().LiveTrades)
		})
	}
}

func TestMaybeBuy_DayRollClearsLossLimit(t *testing.T) {
	st, tr := eligibleStore(t)
	st.Doc().LiveRisk = domain.LiveRisk{Day: "2026-02-28", LossUSD: 999, ConsecutiveLosses: 9}
	exec := &mockExecutor{result: domain.SwapResult{Success: true}}

	lt := live.New(defaultCfg(), exec, clock).MaybeBuy(context.Background(), st, tr)

	require.NotNil(t, lt)
	assert.True(t, lt.Success)
	assert.Equal(t, 0.0, st.LiveRisk().LossUSD)
}

func TestRiskBlock_ZeroLimitsDisabled(t *testing.T) {
	e := live.New(live.Config{}, nil, clock)
	assert.Empty(t, e.RiskBlock(domain.LiveRisk{LossUSD: 1e6, ConsecutiveLosses: 100, OpenCount: 100}))
	assert.False(t, e.Active())
}
