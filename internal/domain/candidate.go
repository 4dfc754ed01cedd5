package domain

import (
	"math"
	"time"
)

// Features son las métricas numéricas de un candidato que alimentan el modelo.
// Se copian tal cual dentro de cada PaperTrade al abrirlo (snapshot).
type Features struct {
	AgeMinutes   float64 `json:"age_minutes"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	LiqToMcap    float64 `json:"liq_to_mcap"`
	Volume5m     float64 `json:"volume_5m"`
	Volume1h     float64 `json:"volume_1h"`
	Volume24h    float64 `json:"volume_24h"`
	Buys1h       int     `json:"buys_1h"`
	Sells1h      int     `json:"sells_1h"`
	Change5m     float64 `json:"change_5m"`
	Change1h     float64 `json:"change_1h"`
	VolumeAccel  float64 `json:"volume_accel"`
}

// BuyPressure devuelve buys / max(1, sells) de la última hora.
func (f Features) BuyPressure() float64 {
	return float64(f.Buys1h) / math.Max(1, float64(f.Sells1h))
}

// Candidate es un par descubierto en el ciclo actual. Efímero: no se persiste.
type Candidate struct {
	Token       string // dirección del base token, clave única
	Symbol      string
	PairAddress string
	URL         string
	PriceUSD    float64
	Features

	Score   float64  // asignado por Model.Score
	Buckets []string // asignado por BucketKeys
}

// VolumeAcceleration anualiza el volumen de 5m a tasa horaria y lo divide
// por el volumen observado en 1h (divisor mínimo 1.0).
func VolumeAcceleration(volume5m, volume1h float64) float64 {
	return sanitize(volume5m) * 12 / math.Max(sanitize(volume1h), 1.0)
}

// LiqToMcapRatio devuelve liquidez / market cap, 0 si el market cap no es válido.
func LiqToMcapRatio(liquidity, mcap float64) float64 {
	if sanitize(mcap) <= 0 {
		return 0
	}
	return sanitize(liquidity) / mcap
}

// AgeMinutes devuelve los minutos desde la creación del par, 0 si se desconoce.
func AgeMinutes(createdAt, now time.Time) float64 {
	if createdAt.IsZero() || createdAt.After(now) {
		return 0
	}
	return now.Sub(createdAt).Minutes()
}

// MarketSnapshot es la lectura best-effort del proveedor de market data.
// PriceUSD == 0 significa "sin dato" y bloquea cualquier mark/close.
type MarketSnapshot struct {
	Token        string
	PriceUSD     float64
	MarketCapUSD float64
	LiquidityUSD float64
	Volume24h    float64
	Change24h    float64
}

// Empty devuelve true si el snapshot no sirve para valorar una posición.
func (s MarketSnapshot) Empty() bool {
	return !(s.PriceUSD > 0) || math.IsInf(s.PriceUSD, 0)
}

// sanitize convierte NaN/Inf/negativos en 0 (malformed input → safe default).
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
