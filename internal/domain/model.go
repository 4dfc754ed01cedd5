package domain

import "math"

// ModelConfig agrupa las constantes empíricas del scoring y del aprendizaje online.
// No tienen derivación formal: se exponen como config en vez de hardcodearlas.
type ModelConfig struct {
	LearnRate       float64 // magnitud base del nudge por trade
	AccelStep       float64 // multiplicador sobre delta para el peso accel
	AgeStep         float64
	LiquidityStep   float64
	BuyPressureStep float64
	WeightFloor     float64 // mínimo por peso antes de renormalizar

	EdgeMinSamples  int     // ocurrencias mínimas para que un bucket tenga edge
	EdgeReturnScale float64 // avg_return / scale como corrección secundaria
	EdgeClamp       float64 // |suma de edges| máxima
	EdgeBlend       float64 // peso del edge clampado en el score final
}

// DefaultModelConfig devuelve los valores por defecto.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		LearnRate:       0.1,
		AccelStep:       0.06,
		AgeStep:         0.03,
		LiquidityStep:   -0.04,
		BuyPressureStep: -0.05,
		WeightFloor:     0.05,
		EdgeMinSamples:  5,
		EdgeReturnScale: 20.0,
		EdgeClamp:       1.5,
		EdgeBlend:       0.20,
	}
}

// Weights son los cuatro pesos del modelo lineal. Siempre suman 1.0.
type Weights struct {
	Accel       float64 `json:"accel"`
	Liquidity   float64 `json:"liquidity"`
	Age         float64 `json:"age"`
	BuyPressure float64 `json:"buy_pressure"`
}

// DefaultWeights son los pesos iniciales antes de cualquier aprendizaje.
func DefaultWeights() Weights {
	return Weights{Accel: 0.35, Liquidity: 0.25, Age: 0.20, BuyPressure: 0.20}
}

// Sum devuelve la suma de los cuatro pesos.
func (w Weights) Sum() float64 {
	return w.Accel + w.Liquidity + w.Age + w.BuyPressure
}

// Normalize aplica el floor a cada peso y los divide por su suma.
func (w *Weights) Normalize(floor float64) {
	w.Accel = floorWeight(w.Accel, floor)
	w.Liquidity = floorWeight(w.Liquidity, floor)
	w.Age = floorWeight(w.Age, floor)
	w.BuyPressure = floorWeight(w.BuyPressure, floor)

	sum := w.Sum()
	w.Accel /= sum
	w.Liquidity /= sum
	w.Age /= sum
	w.BuyPressure /= sum
}

// Positive indica si los cuatro pesos son finitos y estrictamente positivos.
func (w Weights) Positive() bool {
	for _, v := range [...]float64{w.Accel, w.Liquidity, w.Age, w.BuyPressure} {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func floorWeight(v, floor float64) float64 {
	if math.IsNaN(v) || v < floor {
		return floor
	}
	return v
}

// BucketStat acumula resultados de trades cerrados para una clave de bucket.
// Invariante: Wins <= Count.
type BucketStat struct {
	Count     int     `json:"n"`
	Wins      int     `json:"wins"`
	ReturnSum float64 `json:"sum_ret"`
}

// WinRate devuelve wins / count (0 sin datos).
func (b BucketStat) WinRate() float64 {
	if b.Count == 0 {
		return 0
	}
	return float64(b.Wins) / float64(b.Count)
}

// AvgReturn devuelve el retorno medio en puntos porcentuales.
func (b BucketStat) AvgReturn() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.ReturnSum / float64(b.Count)
}

// Model es el estado aprendido: pesos + estadísticas por bucket.
type Model struct {
	Weights Weights               `json:"weights"`
	Buckets map[string]BucketStat `json:"buckets"`
}

// NewModel devuelve un modelo sin evidencia.
func NewModel() Model {
	return Model{
		Weights: DefaultWeights(),
		Buckets: make(map[string]BucketStat),
	}
}

// Outcome es lo que el learner necesita de un trade cerrado.
type Outcome struct {
	Win     bool
	PnLPct  float64
	Buckets []string
}

// Edge devuelve el ajuste aprendido de un bucket.
// Sin EdgeMinSamples ocurrencias no hay evidencia y devuelve exactamente 0.
//
//	edge = (win_rate - 0.5) × 2 + avg_return / EdgeReturnScale
func (m Model) Edge(key string, cfg ModelConfig) float64 {
	b, ok := m.Buckets[key]
	if !ok || b.Count < cfg.EdgeMinSamples {
		return 0
	}
	edge := (b.WinRate() - 0.5) * 2.0
	if cfg.EdgeReturnScale > 0 {
		edge += b.AvgReturn() / cfg.EdgeReturnScale
	}
	return edge
}

// Learn aplica un trade cerrado: actualiza los buckets y empuja los pesos.
// Se llama exactamente una vez por cierre.
func (m *Model) Learn(o Outcome, cfg ModelConfig) {
	if m.Buckets == nil {
		m.Buckets = make(map[string]BucketStat)
	}
	ret := o.PnLPct
	if math.IsNaN(ret) || math.IsInf(ret, 0) {
		ret = 0
	}
	for _, key := range o.Buckets {
		b := m.Buckets[key]
		b.Count++
		if o.Win {
			b.Wins++
		}
		b.ReturnSum += ret
		m.Buckets[key] = b
	}

	delta := cfg.LearnRate
	if !o.Win {
		delta = -delta
	}
	m.Weights.Accel += cfg.AccelStep * delta
	m.Weights.Age += cfg.AgeStep * delta
	m.Weights.Liquidity += cfg.LiquidityStep * delta
	m.Weights.BuyPressure += cfg.BuyPressureStep * delta
	m.Weights.Normalize(cfg.WeightFloor)
}
