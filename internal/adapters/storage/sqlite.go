package storage

// sqlite.go: journal histórico en SQLite.
//
// El estado autoritativo vive en el archivo JSON (statefile.go). Esta base es
// un histórico consultable para reportes:
//   - `cycles`: una fila por ciclo con los conteos y el veredicto del gate.
//   - `paper_trades`: UNA fila por trade (UPSERT), se actualiza al cerrar.
//   - `live_attempts`: audit log de cada compra real intentada.
//   - Prune automático al arrancar: cycles > 30d. Los trades no se borran nunca.

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    scan_number    INTEGER  NOT NULL,
    scanned_at     DATETIME NOT NULL,
    duration_ms    INTEGER  NOT NULL DEFAULT 0,
    discovered     INTEGER  NOT NULL DEFAULT 0,
    ranked         INTEGER  NOT NULL DEFAULT 0,
    opened         INTEGER  NOT NULL DEFAULT 0,
    closed         INTEGER  NOT NULL DEFAULT 0,
    live_attempts  INTEGER  NOT NULL DEFAULT 0,
    open_positions INTEGER  NOT NULL DEFAULT 0,
    best_score     REAL     NOT NULL DEFAULT 0,
    gate_eligible  INTEGER  NOT NULL DEFAULT 0,
    gate_reason    TEXT,
    errors         TEXT
);

CREATE INDEX IF NOT EXISTS idx_cycles_at ON cycles(scanned_at DESC);
`

const retentionCycles = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica los schemas y limpia ciclos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	ctx := context.Background()
	if err := s.ApplyPaperSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.ApplyLiveSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.pruneOld(ctx)
	return s, nil
}

// SaveCycle persiste el resumen de un ciclo y hace upsert de los trades que tocó.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, r domain.CycleReport) error {
	var best float64
	if len(r.Ranked) > 0 {
		best = r.Ranked[0].Score
	}
	startedAt := r.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (scan_number, scanned_at, duration_ms, discovered, ranked, opened,
		                    closed, live_attempts, open_positions, best_score,
		                    gate_eligible, gate_reason, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ScanNumber, formatTime(startedAt), r.Duration.Milliseconds(), r.Discovered,
		len(r.Ranked), len(r.Opened), len(r.Closed), len(r.Live), r.OpenPositions, best,
		boolToInt(r.Gate.Eligible), r.Gate.Reason, strings.Join(r.Errors, "; "),
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	for _, t := range r.Opened {
		if err := s.SavePaperTrade(ctx, t); err != nil {
			return err
		}
	}
	for _, c := range r.Closed {
		if err := s.SavePaperTrade(ctx, c.Trade); err != nil {
			return err
		}
	}
	for _, lt := range slices.Concat(r.Live, r.LiveClosed) {
		if err := s.SaveLiveTrade(ctx, lt); err != nil {
			return err
		}
	}
	return nil
}

// CycleCount devuelve cuántos ciclos hay registrados.
func (s *SQLiteStorage) CycleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CycleCount: %w", err)
	}
	return n, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina ciclos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, formatTime(cutoff))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
