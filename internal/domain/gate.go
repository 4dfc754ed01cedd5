package domain

import (
	"fmt"
	"time"
)

// Motivos de un veredicto negativo del live gate.
const (
	GateNeedMoreData = "need more paper data"
	GateWinRateLow   = "win rate too low"
	GateAvgReturnLow = "average return too low"
	gateEligibleFmt  = "eligible: win rate %.2f, avg return %.4f over %d closed paper trades"
)

// GateConfig son los umbrales que el historial paper debe superar.
type GateConfig struct {
	MinClosed    int     // trades paper cerrados mínimos
	MinWinRate   float64 // fracción, 0.33 = 33%
	MinAvgReturn float64 // fracción, 0.02 = 2%
}

// DefaultGateConfig devuelve los umbrales por defecto.
func DefaultGateConfig() GateConfig {
	return GateConfig{MinClosed: 20, MinWinRate: 0.33, MinAvgReturn: 0.02}
}

// GateVerdict es el último veredicto de elegibilidad para capital real.
// Es consultivo: ejecutar live requiere además flags y riesgo OK.
type GateVerdict struct {
	Eligible    bool      `json:"eligible"`
	Reason      string    `json:"reason"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// EvaluateGate es una función pura sobre las stats agregadas de paper.
func EvaluateGate(paper TradeStats, cfg GateConfig, now time.Time) GateVerdict {
	v := GateVerdict{EvaluatedAt: now}
	switch {
	case paper.Closed < cfg.MinClosed:
		v.Reason = GateNeedMoreData
	case paper.WinRate() < cfg.MinWinRate:
		v.Reason = GateWinRateLow
	case paper.AvgReturn() < cfg.MinAvgReturn:
		v.Reason = GateAvgReturnLow
	default:
		v.Eligible = true
		v.Reason = fmt.Sprintf(gateEligibleFmt, paper.WinRate(), paper.AvgReturn(), paper.Closed)
	}
	return v
}
