package storage

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/memegate/internal/domain"
)

const liveSchema = `
CREATE TABLE IF NOT EXISTS live_attempts (
    id             TEXT PRIMARY KEY,
    paper_trade_id TEXT NOT NULL,
    token          TEXT NOT NULL,
    symbol         TEXT,
    size_usd       REAL NOT NULL DEFAULT 0,
    requested_at   DATETIME NOT NULL,
    success        INTEGER NOT NULL DEFAULT 0,
    detail         TEXT,
    status         TEXT NOT NULL,
    pnl_pct        REAL NOT NULL DEFAULT 0,
    closed_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_live_attempts_at ON live_attempts(requested_at DESC);
`

// ApplyLiveSchema creates the live audit table if it doesn't exist.
func (s *SQLiteStorage) ApplyLiveSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, liveSchema); err != nil {
		return fmt.Errorf("storage.ApplyLiveSchema: %w", err)
	}
	return nil
}

// SaveLiveTrade upserts a live attempt. Only status, pnl and closed_at change after insert.
func (s *SQLiteStorage) SaveLiveTrade(ctx context.Context, t domain.LiveTrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO live_attempts (id, paper_trade_id, token, symbol, size_usd, requested_at,
		                           success, detail, status, pnl_pct, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status    = excluded.status,
			pnl_pct   = excluded.pnl_pct,
			closed_at = excluded.closed_at`,
		t.ID, t.PaperTradeID, t.Token, t.Symbol, t.SizeUSD, formatTime(t.RequestedAt),
		boolToInt(t.Success), t.Detail, string(t.Status), t.PnLPct, nullTime(t.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveLiveTrade %s: %w", t.ID, err)
	}
	return nil
}

// LiveAttemptCounts returns how many live buys were attempted and how many the venue accepted.
func (s *SQLiteStorage) LiveAttemptCounts(ctx context.Context) (attempts, succeeded int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(success), 0) FROM live_attempts`).Scan(&attempts, &succeeded)
	if err != nil {
		return 0, 0, fmt.Errorf("storage.LiveAttemptCounts: %w", err)
	}
	return attempts, succeeded, nil
}
