package domain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBuckets = []string{"age:15-60m", "liq:50k-100k", "accel:1.2-2.0", "bp:2.0+"}

func TestEdge_NoEvidenceBelowMinSamples(t *testing.T) {
	m := NewModel()
	cfg := DefaultModelConfig()

	for i := 0; i < 4; i++ {
		m.Learn(Outcome{Win: true, PnLPct: 30, Buckets: testBuckets}, cfg)
		assert.Equal(t, 0.0, m.Edge(testBuckets[0], cfg), "count=%d", i+1)
	}

	m.Learn(Outcome{Win: true, PnLPct: 30, Buckets: testBuckets}, cfg)
	// 5/5 wins, avg 30% → 1.0 + 1.5
	assert.InDelta(t, 2.5, m.Edge(testBuckets[0], cfg), 1e-9)
	assert.Equal(t, 0.0, m.Edge("age:unknown", cfg))
}

func TestLearn_BucketCounters(t *testing.T) {
	m := NewModel()
	cfg := DefaultModelConfig()

	m.Learn(Outcome{Win: true, PnLPct: 12, Buckets: testBuckets}, cfg)
	m.Learn(Outcome{Win: false, PnLPct: -20, Buckets: testBuckets}, cfg)

	for _, k := range testBuckets {
		b := m.Buckets[k]
		assert.Equal(t, 2, b.Count)
		assert.Equal(t, 1, b.Wins)
		assert.InDelta(t, -8.0, b.ReturnSum, 1e-9)
	}
}

func TestLearn_WinShiftsTowardAccelAndAge(t *testing.T) {
	m := NewModel()
	cfg := DefaultModelConfig()
	before := m.Weights

	m.Learn(Outcome{Win: true, PnLPct: 10, Buckets: testBuckets}, cfg)

	assert.Greater(t, m.Weights.Accel, before.Accel)
	assert.Greater(t, m.Weights.Age, before.Age)
	assert.Less(t, m.Weights.Liquidity, before.Liquidity)
	assert.Less(t, m.Weights.BuyPressure, before.BuyPressure)
}

func TestLearn_LossShiftsAway(t *testing.T) {
	m := NewModel()
	cfg := DefaultModelConfig()
	before := m.Weights

	m.Learn(Outcome{Win: false, PnLPct: -10, Buckets: testBuckets}, cfg)

	assert.Less(t, m.Weights.Accel, before.Accel)
	assert.Greater(t, m.Weights.BuyPressure, before.BuyPressure)
}

func TestLearn_WeightsStayPositiveAndNormalized(t *testing.T) {
	m := NewModel()
	cfg := DefaultModelConfig()
	cfg.LearnRate = 2.0 // agresivo para forzar el floor
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		win := rng.Intn(3) == 0
		pnl := rng.Float64()*80 - 40
		m.Learn(Outcome{Win: win, PnLPct: pnl, Buckets: testBuckets}, cfg)

		w := m.Weights
		require.InDelta(t, 1.0, w.Sum(), 1e-9, "iteration %d", i)
		require.Greater(t, w.Accel, 0.0)
		require.Greater(t, w.Liquidity, 0.0)
		require.Greater(t, w.Age, 0.0)
		require.Greater(t, w.BuyPressure, 0.0)
	}

	for k, b := range m.Buckets {
		assert.LessOrEqual(t, b.Wins, b.Count, k)
	}
}

func TestWeightsNormalize_AppliesFloor(t *testing.T) {
	w := Weights{Accel: 0.9, Liquidity: -0.2, Age: 0.01, BuyPressure: 0.3}
	w.Normalize(0.05)

	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.InDelta(t, 0.05/1.3, w.Liquidity, 1e-12)
	assert.InDelta(t, 0.05/1.3, w.Age, 1e-12)
}

func TestWeightsPositive(t *testing.T) {
	assert.True(t, DefaultWeights().Positive())
	assert.False(t, Weights{Accel: 1.2, Liquidity: -0.2}.Positive())
	assert.False(t, Weights{Accel: 0.4, Liquidity: 0.3, Age: 0.3, BuyPressure: math.NaN()}.Positive())
	assert.False(t, Weights{Accel: math.Inf(1), Liquidity: 0.3, Age: 0.3, BuyPressure: 0.3}.Positive())

	w := Weights{Accel: 1.2, Liquidity: -0.2}
	w.Normalize(0.05)
	assert.True(t, w.Positive())
}
