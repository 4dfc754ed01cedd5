package domain

import (
	"errors"
	"time"
)

// TradeStatus represents the lifecycle of a paper or live trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
	StatusFailed TradeStatus = "FAILED" // live attempt rejected by the venue
)

var (
	ErrBadEntryPrice = errors.New("entry price must be > 0")
	ErrMissingToken  = errors.New("missing token identifier")
)

// PaperTrade is a simulated position. Append-only: closed trades stay in the ledger.
type PaperTrade struct {
	ID          string      `json:"id"`
	Token       string      `json:"token"`
	Symbol      string      `json:"symbol"`
	PairAddress string      `json:"pair_address,omitempty"`
	Status      TradeStatus `json:"status"`

	EntryPrice float64   `json:"entry_price"`
	EntryAt    time.Time `json:"entry_at"`
	LastPrice  float64   `json:"last_price"`
	MarkedAt   time.Time `json:"marked_at"`
	PnLPct     float64   `json:"pnl_pct"`
	PeakPnLPct float64   `json:"peak_pnl_pct"`

	// Snapshot at open time; the learner keys on Buckets when the trade closes.
	Score    float64  `json:"score"`
	Features Features `json:"features"`
	Buckets  []string `json:"buckets"`

	ExitPrice  float64    `json:"exit_price,omitempty"`
	ExitAt     *time.Time `json:"exit_at,omitempty"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`

	LiveTradeID string `json:"live_trade_id,omitempty"` // set when mirrored live
}

// NewPaperTrade builds an OPEN trade from a ranked candidate.
func NewPaperTrade(id string, c Candidate, now time.Time) (*PaperTrade, error) {
	if c.Token == "" {
		return nil, ErrMissingToken
	}
	if !(c.PriceUSD > 0) {
		return nil, ErrBadEntryPrice
	}
	buckets := c.Buckets
	if len(buckets) == 0 {
		buckets = BucketKeys(c.Features)
	}
	return &PaperTrade{
		ID:          id,
		Token:       c.Token,
		Symbol:      c.Symbol,
		PairAddress: c.PairAddress,
		Status:      StatusOpen,
		EntryPrice:  c.PriceUSD,
		EntryAt:     now,
		LastPrice:   c.PriceUSD,
		MarkedAt:    now,
		Score:       c.Score,
		Features:    c.Features,
		Buckets:     append([]string(nil), buckets...),
	}, nil
}

// IsOpen reports whether the trade is still OPEN.
func (t *PaperTrade) IsOpen() bool { return t.Status == StatusOpen }

// Win reports whether the (final) P&L is strictly positive.
func (t *PaperTrade) Win() bool { return t.PnLPct > 0 }

// HeldMinutes returns the minutes elapsed since entry.
func (t *PaperTrade) HeldMinutes(now time.Time) float64 {
	return now.Sub(t.EntryAt).Minutes()
}

// Mark records a new observed price. Peak P&L never decreases.
// No-op on closed trades and on non-positive prices.
func (t *PaperTrade) Mark(price float64, now time.Time) {
	if !t.IsOpen() || !(price > 0) {
		return
	}
	t.LastPrice = price
	t.MarkedAt = now
	t.PnLPct = PnLPct(t.EntryPrice, price)
	if t.PnLPct > t.PeakPnLPct {
		t.PeakPnLPct = t.PnLPct
	}
}

// Close finalizes the trade. A non-positive exit price keeps the last mark.
func (t *PaperTrade) Close(price float64, reason ExitReason, now time.Time) (win bool, pnlPct float64) {
	if price > 0 {
		t.PnLPct = PnLPct(t.EntryPrice, price)
		if t.PnLPct > t.PeakPnLPct {
			t.PeakPnLPct = t.PnLPct
		}
		t.LastPrice = price
	} else {
		price = t.LastPrice
	}
	exitAt := now
	t.Status = StatusClosed
	t.ExitPrice = price
	t.ExitAt = &exitAt
	t.ExitReason = reason
	return t.Win(), t.PnLPct
}

// PnLPct returns the percentage change from entry to price (0 when entry <= 0).
func PnLPct(entry, price float64) float64 {
	if !(entry > 0) {
		return 0
	}
	return (price/entry - 1) * 100
}

// TradeStats are the running counters for one trade class (paper or live).
// They are updated on every open/close, never recomputed from the ledger.
type TradeStats struct {
	Open         int     `json:"open"`
	Closed       int     `json:"closed"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	CumReturnPct float64 `json:"cum_return_pct"`
}

// RecordOpen counts a newly opened position.
func (s *TradeStats) RecordOpen() {
	s.Open++
}

// RecordClose moves one position from open to closed.
func (s *TradeStats) RecordClose(win bool, pnlPct float64) {
	if s.Open > 0 {
		s.Open--
	}
	s.Closed++
	if win {
		s.Wins++
	} else {
		s.Losses++
	}
	s.CumReturnPct += pnlPct
}

// WinRate returns wins / closed.
func (s TradeStats) WinRate() float64 {
	if s.Closed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Closed)
}

// AvgReturnPct returns the mean return in percentage points.
func (s TradeStats) AvgReturnPct() float64 {
	if s.Closed == 0 {
		return 0
	}
	return s.CumReturnPct / float64(s.Closed)
}

// AvgReturn returns the mean return as a fraction (0.02 = 2%).
func (s TradeStats) AvgReturn() float64 {
	return s.AvgReturnPct() / 100
}
