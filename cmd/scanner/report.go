package main

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/memegate/internal/adapters/notify"
	"github.com/alejandrodnm/memegate/internal/adapters/storage"
	"github.com/alejandrodnm/memegate/internal/state"
)

const (
	reportRecentTrades = 15
	reportTopEdges     = 12
)

// runReport imprime el reporte agregado. El estado es la fuente de verdad;
// el journal aporta el histórico de cierres y el desglose por motivo.
func runReport(ctx context.Context, st *state.Store, journal *storage.SQLiteStorage, console *notify.Console) {
	recent, err := journal.RecentClosedTrades(ctx, reportRecentTrades)
	if err != nil {
		slog.Warn("could not read recent trades", "err", err)
	}
	breakdown, err := journal.ExitReasonBreakdown(ctx)
	if err != nil {
		slog.Warn("could not read exit breakdown", "err", err)
	}
	if attempts, succeeded, err := journal.LiveAttemptCounts(ctx); err == nil && attempts > 0 {
		slog.Info("live attempts in journal", "attempts", attempts, "succeeded", succeeded)
	}

	rows := make([]notify.ExitReasonRow, 0, len(breakdown))
	for _, b := range breakdown {
		rows = append(rows, notify.ExitReasonRow{
			Reason:    b.Reason,
			Count:     b.Count,
			Wins:      b.Wins,
			AvgPnLPct: b.AvgPnLPct,
		})
	}

	doc := st.Doc()
	in := notify.ReportInput{
		ScanCount:   doc.ScanCount,
		Paper:       st.PaperStats(),
		Live:        st.LiveStats(),
		LiveRisk:    st.LiveRisk(),
		Gate:        st.EvaluateGate(doc.UpdatedAt),
		Model:       st.Model(),
		ModelConfig: st.Config().Model,
		Recent:      recent,
		ExitReasons: rows,
		TopEdges:    reportTopEdges,
	}
	for _, t := range st.OpenTrades() {
		in.Open = append(in.Open, *t)
	}
	for _, lt := range doc.LiveTrades {
		in.LiveTrades = append(in.LiveTrades, *lt)
	}

	if err := st.CheckInvariants(); err != nil {
		slog.Warn("state invariants violated", "err", err)
	}
	console.PrintReport(in)
}
