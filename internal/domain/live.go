package domain

import "time"

// LiveTrade is the audit record of one real buy attempt mirrored from a paper trade.
// The core only records attempts and outcomes; it never interprets venue internals.
type LiveTrade struct {
	ID           string      `json:"id"`
	PaperTradeID string      `json:"paper_trade_id"`
	Token        string      `json:"token"`
	Symbol       string      `json:"symbol"`
	SizeUSD      float64     `json:"size_usd"`
	RequestedAt  time.Time   `json:"requested_at"`
	Success      bool        `json:"success"`
	Detail       string      `json:"detail,omitempty"`
	Status       TradeStatus `json:"status"`
	PnLPct       float64     `json:"pnl_pct"`
	ClosedAt     *time.Time  `json:"closed_at,omitempty"`
}

// SwapResult is what the swap venue reports for a buy.
type SwapResult struct {
	Success bool
	Detail  string
}

// LiveRisk tracks the counters that can veto a live buy.
// Day is the UTC calendar day (2006-01-02) the loss counters belong to.
type LiveRisk struct {
	Day               string  `json:"day"`
	LossUSD           float64 `json:"loss_usd"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	OpenCount         int     `json:"open_count"`
}

// DayKey returns the UTC day key used by LiveRisk.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Roll resets the per-day counters when the UTC day changes.
// OpenCount carries over: positions stay open across midnight.
func (r *LiveRisk) Roll(now time.Time) bool {
	day := DayKey(now)
	if r.Day == day {
		return false
	}
	r.Day = day
	r.LossUSD = 0
	r.ConsecutiveLosses = 0
	return true
}

// RecordOpen counts a successful live buy.
func (r *LiveRisk) RecordOpen() {
	r.OpenCount++
}

// RecordClose books the realized result of a live position.
func (r *LiveRisk) RecordClose(pnlUSD float64) {
	if r.OpenCount > 0 {
		r.OpenCount--
	}
	if pnlUSD > 0 {
		r.ConsecutiveLosses = 0
		return
	}
	r.ConsecutiveLosses++
	r.LossUSD += -pnlUSD
}
