package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
)

const paperSchema = `
CREATE TABLE IF NOT EXISTS paper_trades (
    id            TEXT PRIMARY KEY,
    token         TEXT NOT NULL,
    symbol        TEXT,
    pair_address  TEXT,
    status        TEXT NOT NULL DEFAULT 'OPEN',
    entry_price   REAL NOT NULL,
    entry_at      DATETIME NOT NULL,
    last_price    REAL NOT NULL DEFAULT 0,
    pnl_pct       REAL NOT NULL DEFAULT 0,
    peak_pnl_pct  REAL NOT NULL DEFAULT 0,
    score         REAL NOT NULL DEFAULT 0,
    buckets       TEXT,
    exit_price    REAL NOT NULL DEFAULT 0,
    exit_at       DATETIME,
    exit_reason   TEXT,
    live_trade_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_paper_trades_status ON paper_trades(status);
CREATE INDEX IF NOT EXISTS idx_paper_trades_token  ON paper_trades(token);
CREATE INDEX IF NOT EXISTS idx_paper_trades_exit   ON paper_trades(exit_at DESC);
`

// ApplyPaperSchema creates the paper trade table if it doesn't exist.
func (s *SQLiteStorage) ApplyPaperSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, paperSchema); err != nil {
		return fmt.Errorf("storage.ApplyPaperSchema: %w", err)
	}
	return nil
}

// SavePaperTrade inserts a trade or updates its mark and exit columns.
func (s *SQLiteStorage) SavePaperTrade(ctx context.Context, t domain.PaperTrade) error {
	buckets, err := json.Marshal(t.Buckets)
	if err != nil {
		return fmt.Errorf("storage.SavePaperTrade: marshal buckets: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO paper_trades (id, token, symbol, pair_address, status, entry_price, entry_at,
		                          last_price, pnl_pct, peak_pnl_pct, score, buckets,
		                          exit_price, exit_at, exit_reason, live_trade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status        = excluded.status,
			last_price    = excluded.last_price,
			pnl_pct       = excluded.pnl_pct,
			peak_pnl_pct  = MAX(peak_pnl_pct, excluded.peak_pnl_pct),
			exit_price    = excluded.exit_price,
			exit_at       = excluded.exit_at,
			exit_reason   = excluded.exit_reason,
			live_trade_id = excluded.live_trade_id`,
		t.ID, t.Token, t.Symbol, t.PairAddress, string(t.Status), t.EntryPrice, formatTime(t.EntryAt),
		t.LastPrice, t.PnLPct, t.PeakPnLPct, t.Score, string(buckets),
		t.ExitPrice, nullTime(t.ExitAt), string(t.ExitReason), t.LiveTradeID,
	)
	if err != nil {
		return fmt.Errorf("storage.SavePaperTrade %s: %w", t.ID, err)
	}
	return nil
}

// RecentClosedTrades returns the last n closed trades, newest exit first.
func (s *SQLiteStorage) RecentClosedTrades(ctx context.Context, n int) ([]domain.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, symbol, pair_address, status, entry_price, entry_at, last_price,
		       pnl_pct, peak_pnl_pct, score, buckets, exit_price, exit_at, exit_reason, live_trade_id
		FROM paper_trades
		WHERE status = 'CLOSED'
		ORDER BY exit_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentClosedTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.PaperTrade
	for rows.Next() {
		var (
			t                    domain.PaperTrade
			symbol, pair, liveID sql.NullString
			status, entryAt      string
			buckets, reason      sql.NullString
			exitAt               sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Token, &symbol, &pair, &status, &t.EntryPrice, &entryAt,
			&t.LastPrice, &t.PnLPct, &t.PeakPnLPct, &t.Score, &buckets, &t.ExitPrice,
			&exitAt, &reason, &liveID); err != nil {
			return nil, fmt.Errorf("storage.RecentClosedTrades: scan row: %w", err)
		}
		t.Symbol, t.PairAddress, t.LiveTradeID = symbol.String, pair.String, liveID.String
		t.Status = domain.TradeStatus(status)
		t.ExitReason = domain.ExitReason(reason.String)
		t.EntryAt, _ = time.Parse(time.RFC3339, entryAt)
		t.ExitAt = parseNullTime(exitAt)
		if buckets.Valid {
			_ = json.Unmarshal([]byte(buckets.String), &t.Buckets)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ExitReasonStat aggregates closed trades by exit reason.
type ExitReasonStat struct {
	Reason    domain.ExitReason
	Count     int
	Wins      int
	AvgPnLPct float64
}

// ExitReasonBreakdown groups every closed paper trade by exit reason, most frequent first.
func (s *SQLiteStorage) ExitReasonBreakdown(ctx context.Context) ([]ExitReasonStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exit_reason,
		       COUNT(*),
		       SUM(CASE WHEN pnl_pct > 0 THEN 1 ELSE 0 END),
		       AVG(pnl_pct)
		FROM paper_trades
		WHERE status = 'CLOSED'
		GROUP BY exit_reason
		ORDER BY COUNT(*) DESC, exit_reason`)
	if err != nil {
		return nil, fmt.Errorf("storage.ExitReasonBreakdown: query: %w", err)
	}
	defer rows.Close()

	var out []ExitReasonStat
	for rows.Next() {
		var st ExitReasonStat
		var reason string
		if err := rows.Scan(&reason, &st.Count, &st.Wins, &st.AvgPnLPct); err != nil {
			return nil, fmt.Errorf("storage.ExitReasonBreakdown: scan row: %w", err)
		}
		st.Reason = domain.ExitReason(reason)
		out = append(out, st)
	}
	return out, rows.Err()
}
