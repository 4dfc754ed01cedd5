package domain

import "time"

// ExitReason is why a paper trade was closed.
type ExitReason string

const (
	ExitBadEntry   ExitReason = "bad_entry"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitTrail      ExitReason = "trail_exit"
	ExitTime       ExitReason = "time_exit"
)

// pnlEpsilon absorbs float noise in percentage comparisons (10.9 → 9.4 is a 15pt drop).
const pnlEpsilon = 1e-9

// ExitConfig holds the exit thresholds, all in percentage points except MaxHoldMinutes.
type ExitConfig struct {
	StopLossPct      float64 // negative, e.g. -20
	TakeProfitPct    float64
	TrailActivatePct float64 // peak needed before the trail arms
	TrailDropPct     float64 // retracement from peak, in points
	MaxHoldMinutes   float64
}

// DefaultExitConfig returns the default thresholds.
func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		StopLossPct:      -20,
		TakeProfitPct:    40,
		TrailActivatePct: 8,
		TrailDropPct:     15,
		MaxHoldMinutes:   180,
	}
}

// ExitInput is the view of a trade that exit rules evaluate.
type ExitInput struct {
	EntryPrice  float64
	PnLPct      float64
	PeakPnLPct  float64
	HeldMinutes float64
}

// ExitRule is one row of the exit table. Lower Priority wins.
type ExitRule struct {
	Priority int
	Reason   ExitReason
	Match    func(in ExitInput, cfg ExitConfig) bool
}

// ExitRules is the ordered exit table; the first matching rule closes the trade.
var ExitRules = []ExitRule{
	{1, ExitBadEntry, func(in ExitInput, _ ExitConfig) bool {
		return !(in.EntryPrice > 0)
	}},
	{2, ExitStopLoss, func(in ExitInput, cfg ExitConfig) bool {
		return in.PnLPct <= cfg.StopLossPct+pnlEpsilon
	}},
	{3, ExitTakeProfit, func(in ExitInput, cfg ExitConfig) bool {
		return in.PnLPct >= cfg.TakeProfitPct-pnlEpsilon
	}},
	{4, ExitTrail, func(in ExitInput, cfg ExitConfig) bool {
		return in.PeakPnLPct >= cfg.TrailActivatePct-pnlEpsilon &&
			in.PeakPnLPct-in.PnLPct >= cfg.TrailDropPct-pnlEpsilon
	}},
	{5, ExitTime, func(in ExitInput, cfg ExitConfig) bool {
		return in.HeldMinutes >= cfg.MaxHoldMinutes
	}},
}

// EvaluateExit is a pure function over the trade and the current price.
// It returns the first matching reason, or ok=false if the trade stays open.
func EvaluateExit(t *PaperTrade, price float64, now time.Time, cfg ExitConfig) (reason ExitReason, ok bool) {
	pnl := PnLPct(t.EntryPrice, price)
	peak := t.PeakPnLPct
	if pnl > peak {
		peak = pnl
	}
	in := ExitInput{
		EntryPrice:  t.EntryPrice,
		PnLPct:      pnl,
		PeakPnLPct:  peak,
		HeldMinutes: t.HeldMinutes(now),
	}
	for _, rule := range ExitRules {
		if rule.Match(in, cfg) {
			return rule.Reason, true
		}
	}
	return "", false
}
