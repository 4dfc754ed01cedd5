package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketKeys_OrderAndFormat(t *testing.T) {
	keys := BucketKeys(Features{AgeMinutes: 30, LiquidityUSD: 60_000, VolumeAccel: 1.5, Buys1h: 25, Sells1h: 10})
	assert.Equal(t, []string{"age:15-60m", "liq:50k-100k", "accel:1.2-2.0", "bp:2.0+"}, keys)

	for i, dim := range []string{DimAge, DimLiquidity, DimAccel, DimBuyPressure} {
		assert.Equal(t, dim, BucketDimension(keys[i]))
	}
}

func TestBucketKeys_HalfOpenBoundaries(t *testing.T) {
	cases := []struct {
		name string
		f    Features
		idx  int
		want string
	}{
		{"age 15 is second bucket", Features{AgeMinutes: 15}, 0, "age:15-60m"},
		{"age 720 is last bucket", Features{AgeMinutes: 720}, 0, "age:12h+"},
		{"liq 20k", Features{LiquidityUSD: 20_000}, 1, "liq:20k-50k"},
		{"liq 250k", Features{LiquidityUSD: 250_000}, 1, "liq:250k+"},
		{"accel 0.8", Features{VolumeAccel: 0.8}, 2, "accel:0.8-1.2"},
		{"accel 3.5", Features{VolumeAccel: 3.5}, 2, "accel:3.5+"},
		{"bp 0.9", Features{Buys1h: 9, Sells1h: 10}, 3, "bp:0.9-1.2"},
		{"bp 2.0", Features{Buys1h: 20, Sells1h: 10}, 3, "bp:2.0+"},
		{"sells 0 divides by 1", Features{Buys1h: 1, Sells1h: 0}, 3, "bp:0.9-1.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BucketKeys(tc.f)[tc.idx])
		})
	}
}

func TestBucketKeys_MissingInputsFallToFirstBucket(t *testing.T) {
	keys := BucketKeys(Features{AgeMinutes: math.NaN(), LiquidityUSD: -5, VolumeAccel: math.Inf(1)})
	assert.Equal(t, []string{"age:0-15m", "liq:0-20k", "accel:0-0.8", "bp:0-0.9"}, keys)
}

func TestVolumeAcceleration(t *testing.T) {
	// 5m = 1000 → 12000/h ; 1h = 6000 → 2.0
	assert.InDelta(t, 2.0, VolumeAcceleration(1000, 6000), 1e-9)
	// divisor mínimo 1.0
	assert.InDelta(t, 120.0, VolumeAcceleration(10, 0), 1e-9)
	assert.Equal(t, 0.0, VolumeAcceleration(math.NaN(), 100))
}
