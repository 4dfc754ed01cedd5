package paper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
)

const (
	DefaultMaxOpen         = 5
	DefaultReentryCooldown = 2 * time.Hour
)

// Config holds paper trading-specific settings.
type Config struct {
	MaxOpen         int
	MinScore        float64
	ReentryCooldown time.Duration
	Exit            domain.ExitConfig
}

// Engine gestiona el ciclo de vida de los trades paper sobre el State Store.
// No hace I/O: el scanner le pasa los snapshots ya obtenidos.
type Engine struct {
	cfg Config
	now engine.Clock
}

// New creates a paper trading engine.
func New(cfg Config, now engine.Clock) *Engine {
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = DefaultMaxOpen
	}
	if cfg.ReentryCooldown < 0 {
		cfg.ReentryCooldown = 0
	}
	if cfg.Exit == (domain.ExitConfig{}) {
		cfg.Exit = domain.DefaultExitConfig()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{cfg: cfg, now: now}
}

// Config devuelve la configuración efectiva.
func (e *Engine) Config() Config { return e.cfg }

// ManageOpen marca cada trade abierto con su snapshot y lo cierra si alguna
// regla de salida aplica. Un trade sin precio válido se salta: nunca se marca
// ni se cierra con precio cero.
func (e *Engine) ManageOpen(st *state.Store, snapshots map[string]domain.MarketSnapshot) []domain.ClosedTrade {
	now := e.now().UTC()
	var closed []domain.ClosedTrade

	for _, t := range st.OpenTrades() {
		snap, ok := snapshots[t.Token]
		if !ok || snap.Empty() {
			slog.Debug("paper: no price, skipping", "token", t.Token, "trade_id", t.ID)
			continue
		}
		price := snap.PriceUSD

		reason, exit := domain.EvaluateExit(t, price, now, e.cfg.Exit)
		if err := st.MarkPaper(t.ID, price, now); err != nil {
			slog.Warn("paper: mark failed", "token", t.Token, "trade_id", t.ID, "err", err)
			continue
		}
		if !exit {
			continue
		}

		win, pnl, err := st.ClosePaper(t.ID, price, reason, now)
		if err != nil {
			slog.Warn("paper: close failed", "token", t.Token, "trade_id", t.ID, "reason", reason, "err", err)
			continue
		}
		st.SetCooldown(engine.ReentryKey(t.Token), now.Add(e.cfg.ReentryCooldown))
		if reason == domain.ExitBadEntry {
			st.Blacklist(t.Token, string(reason))
		}

		slog.Info("paper: closed",
			"token", t.Token,
			"symbol", t.Symbol,
			"trade_id", t.ID,
			"reason", reason,
			"pnl_pct", pnl,
			"win", win,
			"held_min", int(t.HeldMinutes(now)),
		)
		closed = append(closed, domain.ClosedTrade{Trade: *t, Win: win, PnLPct: pnl})
	}
	return closed
}

// CloseInvalid cierra como bad_entry los trades abiertos con precio de entrada
// inválido (ledgers antiguos o corruptos). No necesita market data.
func (e *Engine) CloseInvalid(st *state.Store) []domain.ClosedTrade {
	now := e.now().UTC()
	var closed []domain.ClosedTrade
	for _, t := range st.OpenTrades() {
		if t.EntryPrice > 0 {
			continue
		}
		win, pnl, err := st.ClosePaper(t.ID, 0, domain.ExitBadEntry, now)
		if err != nil {
			slog.Warn("paper: close failed", "token", t.Token, "trade_id", t.ID, "err", err)
			continue
		}
		st.Blacklist(t.Token, string(domain.ExitBadEntry))
		slog.Warn("paper: closed invalid entry", "token", t.Token, "trade_id", t.ID)
		closed = append(closed, domain.ClosedTrade{Trade: *t, Win: win, PnLPct: pnl})
	}
	return closed
}

// OpenNew abre posiciones desde la lista rankeada (score desc) hasta llenar MaxOpen.
// Cada rechazo es por candidato: nunca aborta el resto de la lista.
func (e *Engine) OpenNew(st *state.Store, ranked []domain.Candidate) []*domain.PaperTrade {
	now := e.now().UTC()
	slots := e.cfg.MaxOpen - len(st.OpenTrades())
	var opened []*domain.PaperTrade

	for _, c := range ranked {
		if slots <= 0 {
			break
		}
		if skip := e.skipReason(st, c, now); skip != "" {
			slog.Debug("paper: skip candidate", "token", c.Token, "reason", skip)
			continue
		}

		t, err := st.OpenPaper(c, now)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, state.ErrPositionOpen) {
				level = slog.LevelDebug
			}
			slog.Log(context.Background(), level, "paper: open rejected", "token", c.Token, "err", err)
			continue
		}
		slots--
		opened = append(opened, t)
		slog.Info("paper: opened",
			"token", t.Token,
			"symbol", t.Symbol,
			"trade_id", t.ID,
			"price", t.EntryPrice,
			"score", t.Score,
		)
	}
	return opened
}

// skipReason devuelve por qué un candidato no se abre, o "" si puede abrirse.
func (e *Engine) skipReason(st *state.Store, c domain.Candidate, now time.Time) string {
	switch {
	case c.Token == "":
		return "missing token"
	case !(c.PriceUSD > 0):
		return "non-positive price"
	case c.Score < e.cfg.MinScore:
		return "score below minimum"
	case st.IsBlacklisted(c.Token):
		return "blacklisted"
	case st.InCooldown(engine.ReentryKey(c.Token), now):
		return "reentry cooldown"
	case st.HasOpenPosition(c.Token):
		return "already open"
	}
	return ""
}
