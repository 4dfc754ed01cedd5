package domain

import "time"

// ClosedTrade is a paper close produced during a cycle.
type ClosedTrade struct {
	Trade  PaperTrade
	Win    bool
	PnLPct float64
}

// CycleReport is everything one scan cycle produced. Notifiers and the journal read it.
type CycleReport struct {
	ScanNumber int
	StartedAt  time.Time
	Duration   time.Duration

	Discovered int         // candidates returned by discovery
	Ranked     []Candidate // after filter, sorted by score desc
	Opened     []PaperTrade
	Closed     []ClosedTrade
	Live       []LiveTrade // buy attempts this cycle
	LiveClosed []LiveTrade // mirrors closed with their paper trade

	OpenPositions int
	Paper         TradeStats
	LiveStats     TradeStats
	Gate          GateVerdict
	Weights       Weights
	Errors        []string
}

// Top returns the first n ranked candidates.
func (r CycleReport) Top(n int) []Candidate {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}
