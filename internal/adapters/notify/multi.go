package notify

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/ports"
)

// Multi reparte cada reporte entre varios notificadores.
// Un fallo se loguea y no impide los demás ni el ciclo.
type Multi struct {
	targets []ports.Notifier
}

// NewMulti ignora los notificadores nil.
func NewMulti(targets ...ports.Notifier) *Multi {
	m := &Multi{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

// Notify siempre devuelve nil.
func (m *Multi) Notify(ctx context.Context, r domain.CycleReport) error {
	for _, t := range m.targets {
		if err := t.Notify(ctx, r); err != nil {
			slog.Warn("notification failed", "scan", r.ScanNumber, "err", err)
		}
	}
	return nil
}
