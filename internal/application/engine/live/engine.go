package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/ports"
	"github.com/alejandrodnm/memegate/internal/state"
)

// Config holds configuration for the live execution engine.
type Config struct {
	Enabled bool    // interruptor externo: sin él nunca se compra
	Mirror  bool    // reflejar las aperturas paper como compras reales
	SizeUSD float64 // nocional por compra

	MaxDailyLossUSD      float64
	MaxConsecutiveLosses int
	MaxOpenPositions     int
}

// Engine convierte aperturas paper en compras reales cuando todo lo permite.
// El veredicto del gate es solo una de las condiciones: también hacen falta
// los flags y que el riesgo pase.
type Engine struct {
	cfg  Config
	exec ports.SwapExecutor
	now  engine.Clock
}

// New creates a live engine. exec puede ser nil si live está deshabilitado.
func New(cfg Config, exec ports.SwapExecutor, now engine.Clock) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{cfg: cfg, exec: exec, now: now}
}

// Active devuelve true si los flags permiten intentar compras.
func (e *Engine) Active() bool {
	return e.cfg.Enabled && e.cfg.Mirror && e.exec != nil && e.cfg.SizeUSD > 0
}

// MaybeBuy intenta reflejar un trade paper recién abierto como compra real.
// Devuelve nil si no se intentó. Un intento fallido también se registra.
func (e *Engine) MaybeBuy(ctx context.Context, st *state.Store, t *domain.PaperTrade) *domain.LiveTrade {
	if !e.Active() {
		return nil
	}
	now := e.now().UTC()
	if gate := st.Gate(); !gate.Eligible {
		slog.Debug("live: gate closed", "token", t.Token, "reason", gate.Reason)
		return nil
	}
	st.RollLiveDay(now)
	if reason := e.RiskBlock(st.LiveRisk()); reason != "" {
		slog.Info("live: blocked by risk", "token", t.Token, "reason", reason)
		return nil
	}

	res, err := e.exec.Buy(ctx, t.Token, e.cfg.SizeUSD)
	if err != nil {
		res = domain.SwapResult{Success: false, Detail: err.Error()}
	}
	lt := st.RecordLiveAttempt(t, e.cfg.SizeUSD, res, now)

	if lt.Success {
		slog.Info("live: bought",
			"token", t.Token,
			"symbol", t.Symbol,
			"trade_id", t.ID,
			"live_id", lt.ID,
			"size_usd", lt.SizeUSD,
			"detail", lt.Detail,
		)
	} else {
		slog.Warn("live: buy failed",
			"token", t.Token,
			"trade_id", t.ID,
			"live_id", lt.ID,
			"detail", lt.Detail,
		)
	}
	return lt
}

// RiskBlock devuelve el motivo por el que el riesgo impide comprar, o "" si pasa.
// Un límite <= 0 está desactivado.
func (e *Engine) RiskBlock(r domain.LiveRisk) string {
	switch {
	case e.cfg.MaxDailyLossUSD > 0 && r.LossUSD >= e.cfg.MaxDailyLossUSD:
		return "daily loss limit reached"
	case e.cfg.MaxConsecutiveLosses > 0 && r.ConsecutiveLosses >= e.cfg.MaxConsecutiveLosses:
		return "too many consecutive losses"
	case e.cfg.MaxOpenPositions > 0 && r.OpenCount >= e.cfg.MaxOpenPositions:
		return "max open live positions"
	}
	return ""
}
