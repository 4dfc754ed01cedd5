package domain

// NormalizedFeatures son las cuatro features del modelo llevadas a [0,1].
type NormalizedFeatures struct {
	Accel       float64
	Liquidity   float64
	Age         float64
	BuyPressure float64
}

// Normalize aplica los clamps lineales fijos:
//   - accel:        (accel - 0.6) / 3.0
//   - liquidity:    (liq - 20000) / 180000
//   - age:          step function, 1.0 en 15–360m, 0.6 en 360–720m, 0.2 fuera
//   - buy pressure: (bp - 0.8) / 2.2
func Normalize(f Features) NormalizedFeatures {
	return NormalizedFeatures{
		Accel:       clamp01((sanitize(f.VolumeAccel) - 0.6) / 3.0),
		Liquidity:   clamp01((sanitize(f.LiquidityUSD) - 20_000) / 180_000),
		Age:         AgeScore(f.AgeMinutes),
		BuyPressure: clamp01((f.BuyPressure() - 0.8) / 2.2),
	}
}

// AgeScore premia el sweet spot de 15 minutos a 6 horas.
func AgeScore(ageMinutes float64) float64 {
	age := sanitize(ageMinutes)
	switch {
	case age < 15:
		return 0.2
	case age < 360:
		return 1.0
	case age < 720:
		return 0.6
	default:
		return 0.2
	}
}

// BaseScore devuelve la suma ponderada de las features normalizadas.
func (m Model) BaseScore(f Features) float64 {
	n := Normalize(f)
	w := m.Weights
	return w.Accel*n.Accel + w.Liquidity*n.Liquidity + w.Age*n.Age + w.BuyPressure*n.BuyPressure
}

// EdgeSum suma el edge de los buckets y lo clampa a [-EdgeClamp, EdgeClamp].
func (m Model) EdgeSum(buckets []string, cfg ModelConfig) float64 {
	sum := 0.0
	for _, key := range buckets {
		sum += m.Edge(key, cfg)
	}
	if sum > cfg.EdgeClamp {
		return cfg.EdgeClamp
	}
	if sum < -cfg.EdgeClamp {
		return -cfg.EdgeClamp
	}
	return sum
}

// Score combina el modelo lineal con el edge empírico de los buckets:
//
//	score = Σ wᵢ·nᵢ + EdgeBlend × clamp(Σ edge(bucket))
//
// Con pocos datos los edges son 0 y el ranking es puramente lineal.
func (m Model) Score(f Features, buckets []string, cfg ModelConfig) float64 {
	return m.BaseScore(f) + cfg.EdgeBlend*m.EdgeSum(buckets, cfg)
}

// Rate asigna buckets y score a un candidato in place.
func (m Model) Rate(c *Candidate, cfg ModelConfig) {
	c.Buckets = BucketKeys(c.Features)
	c.Score = m.Score(c.Features, c.Buckets, cfg)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
