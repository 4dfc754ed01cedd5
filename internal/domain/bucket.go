package domain

import (
	"math"
	"strings"
)

// Dimensiones de bucketing. El orden de BucketKeys es fijo: age, liq, accel, bp.
const (
	DimAge         = "age"
	DimLiquidity   = "liq"
	DimAccel       = "accel"
	DimBuyPressure = "bp"
)

// bucketRange es un intervalo semiabierto [prev, upper).
type bucketRange struct {
	upper float64
	label string
}

var (
	ageBuckets = []bucketRange{
		{15, "0-15m"},
		{60, "15-60m"},
		{180, "1-3h"},
		{360, "3-6h"},
		{720, "6-12h"},
		{math.Inf(1), "12h+"},
	}
	liquidityBuckets = []bucketRange{
		{20_000, "0-20k"},
		{50_000, "20k-50k"},
		{100_000, "50k-100k"},
		{250_000, "100k-250k"},
		{math.Inf(1), "250k+"},
	}
	accelBuckets = []bucketRange{
		{0.8, "0-0.8"},
		{1.2, "0.8-1.2"},
		{2.0, "1.2-2.0"},
		{3.5, "2.0-3.5"},
		{math.Inf(1), "3.5+"},
	}
	buyPressureBuckets = []bucketRange{
		{0.9, "0-0.9"},
		{1.2, "0.9-1.2"},
		{2.0, "1.2-2.0"},
		{math.Inf(1), "2.0+"},
	}
)

// BucketKeys cuantiza las features en exactamente cuatro claves "<dim>:<label>".
// Inputs ausentes o inválidos caen en el primer bucket.
func BucketKeys(f Features) []string {
	return []string{
		bucketKey(DimAge, f.AgeMinutes, ageBuckets),
		bucketKey(DimLiquidity, f.LiquidityUSD, liquidityBuckets),
		bucketKey(DimAccel, f.VolumeAccel, accelBuckets),
		bucketKey(DimBuyPressure, f.BuyPressure(), buyPressureBuckets),
	}
}

// BucketDimension devuelve la dimensión de una clave ("age:0-15m" → "age").
func BucketDimension(key string) string {
	dim, _, _ := strings.Cut(key, ":")
	return dim
}

func bucketKey(dim string, v float64, ranges []bucketRange) string {
	v = sanitize(v)
	for _, r := range ranges {
		if v < r.upper {
			return dim + ":" + r.label
		}
	}
	return dim + ":" + ranges[len(ranges)-1].label
}
