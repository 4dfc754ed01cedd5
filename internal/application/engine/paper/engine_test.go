package paper_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine"
	"github.com/alejandrodnm/memegate/internal/application/engine/paper"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock permite avanzar el tiempo entre llamadas.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func cand(token string, price, score float64) domain.Candidate {
	return domain.Candidate{Token: token, Symbol: token, PriceUSD: price, Score: score,
		Features: domain.Features{AgeMinutes: 30, LiquidityUSD: 40_000}}
}

func snaps(prices map[string]float64) map[string]domain.MarketSnapshot {
	out := make(map[string]domain.MarketSnapshot, len(prices))
	for tok, p := range prices {
		out[tok] = domain.MarketSnapshot{Token: tok, PriceUSD: p}
	}
	return out
}

func newEngine(clock *fakeClock, maxOpen int, minScore float64) *paper.Engine {
	return paper.New(paper.Config{
		MaxOpen:         maxOpen,
		MinScore:        minScore,
		ReentryCooldown: time.Hour,
		Exit:            domain.DefaultExitConfig(),
	}, clock.Now)
}

func TestOpenNew_RespectsLimitsAndFilters(t *testing.T) {
	clock := &fakeClock{now: t0}
	st := state.NewStore(nil, state.DefaultConfig())
	st.Blacklist("banned", "bad_entry")
	st.SetCooldown(engine.ReentryKey("cooling"), t0.Add(time.Minute))
	e := newEngine(clock, 2, 0.3)

	opened := e.OpenNew(st, []domain.Candidate{
		cand("banned", 1, 0.9),
		cand("cooling", 1, 0.9),
		cand("lowscore", 1, 0.1),
		cand("zero", 0, 0.9),
		cand("", 1, 0.9),
		cand("a", 1, 0.8),
		cand("a", 1, 0.8),
		cand("b", 2, 0.7),
		cand("c", 3, 0.6),
	})

	require.Len(t, opened, 2)
	assert.Equal(t, "a", opened[0].Token)
	assert.Equal(t, "b", opened[1].Token)
	assert.Len(t, st.OpenTrades(), 2)
	require.NoError(t, st.CheckInvariants())

	// No quedan slots libres
	assert.Empty(t, e.OpenNew(st, []domain.Candidate{cand("d", 1, 0.9)}))
}

func TestManageOpen_TrailExitScenario(t *testing.T) {
	clock := &fakeClock{now: t0}
	st := state.NewStore(nil, state.DefaultConfig())
	e := newEngine(clock, 5, 0)
	require.Len(t, e.OpenNew(st, []domain.Candidate{cand("tok", 10, 0.5)}), 1)

	steps := []struct {
		price float64
		open  bool
	}{
		{10.9, true},
		{10.0, true},
		{9.4, false},
	}
	var closed []domain.ClosedTrade
	for _, s := range steps {
		clock.now = clock.now.Add(5 * time.Minute)
		closed = e.ManageOpen(st, snaps(map[string]float64{"tok": s.price}))
		assert.Equal(t, s.open, st.HasOpenPosition("tok"), "price %v", s.price)
	}

	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitTrail, closed[0].Trade.ExitReason)
	assert.False(t, closed[0].Win)
	assert.InDelta(t, -6.0, closed[0].PnLPct, 1e-9)
	assert.InDelta(t, 9.0, closed[0].Trade.PeakPnLPct, 1e-9)

	assert.True(t, st.InCooldown(engine.ReentryKey("tok"), clock.now))
	assert.False(t, st.IsBlacklisted("tok"))
	assert.Equal(t, 1, st.PaperStats().Losses)
	require.NoError(t, st.CheckInvariants())

	// Cooldown bloquea la reentrada
	assert.Empty(t, e.OpenNew(st, []domain.Candidate{cand("tok", 9, 0.9)}))
	clock.now = clock.now.Add(2 * time.Hour)
	assert.Len(t, e.OpenNew(st, []domain.Candidate{cand("tok", 9, 0.9)}), 1)
}

func TestManageOpen_SkipsMissingAndZeroPrices(t *testing.T) {
	clock := &fakeClock{now: t0}
	st := state.NewStore(nil, state.DefaultConfig())
	e := newEngine(clock, 5, 0)
	e.OpenNew(st, []domain.Candidate{cand("a", 1, 0.5), cand("b", 1, 0.5)})

	clock.now = t0.Add(4 * time.Hour) // pasado el max hold
	closed := e.ManageOpen(st, snaps(map[string]float64{"a": 0}))

	assert.Empty(t, closed)
	assert.Len(t, st.OpenTrades(), 2)
}

func TestManageOpen_TimeExitAndTakeProfit(t *testing.T) {
	clock := &fakeClock{now: t0}
	st := state.NewStore(nil, state.DefaultConfig())
	e := newEngine(clock, 5, 0)
	e.OpenNew(st, []domain.Candidate{cand("slow", 1, 0.5), cand("moon", 1, 0.5)})

	clock.now = t0.Add(181 * time.Minute)
	closed := e.ManageOpen(st, snaps(map[string]float64{"slow": 1.01, "moon": 1.5}))

	require.Len(t, closed, 2)
	reasons := map[string]domain.ExitReason{}
	for _, c := range closed {
		reasons[c.Trade.Token] = c.Trade.ExitReason
	}
	assert.Equal(t, domain.ExitTime, reasons["slow"])
	assert.Equal(t, domain.ExitTakeProfit, reasons["moon"])
	assert.Equal(t, 2, st.PaperStats().Wins)
}

func TestCloseInvalid_BlacklistsBadEntries(t *testing.T) {
	clock := &fakeClock{now: t0}
	st := state.NewStore(nil, state.DefaultConfig())
	e := newEngine(clock, 5, 0)
	e.OpenNew(st, []domain.Candidate{cand("tok", 1, 0.5)})
	st.OpenTrades()[0].EntryPrice = 0 // ledger corrupto

	closed := e.CloseInvalid(st)

	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitBadEntry, closed[0].Trade.ExitReason)
	assert.True(t, st.IsBlacklisted("tok"))
	assert.Empty(t, st.OpenTrades())
}
