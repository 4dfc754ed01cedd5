package scanner

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
)

// FilterConfig contiene los parámetros configurables de filtrado.
// Un umbral a cero está desactivado.
type FilterConfig struct {
	// MinLiquidityUSD descarta pares con poca liquidez (rug fácil, slippage alto).
	MinLiquidityUSD float64
	// MaxAgeMinutes descarta pares demasiado viejos para ser "recién listados".
	MaxAgeMinutes float64
	// MinVolume1h descarta pares sin actividad en la última hora.
	MinVolume1h float64
	// MinLiqToMcap descarta tokens con market cap inflado respecto a la liquidez.
	MinLiqToMcap float64
}

// DefaultFilterConfig devuelve una configuración de filtrado conservadora.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinLiquidityUSD: 10_000,
		MaxAgeMinutes:   24 * 60,
		MinVolume1h:     5_000,
		MinLiqToMcap:    0.03,
	}
}

// Filter aplica los filtros configurados sobre una lista de candidatos.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply devuelve los candidatos que pasan todos los filtros, en el mismo orden.
// st aporta blacklist y cooldowns; puede ser nil.
func (f *Filter) Apply(cands []domain.Candidate, st *state.Store, now time.Time) []domain.Candidate {
	result := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		if reason := f.reject(c, st, now); reason != "" {
			slog.Debug("candidate rejected", "token", c.Token, "symbol", c.Symbol, "reason", reason)
			continue
		}
		result = append(result, c)
	}
	return result
}

// reject devuelve el motivo de descarte, o "" si el candidato pasa.
func (f *Filter) reject(c domain.Candidate, st *state.Store, now time.Time) string {
	switch {
	case c.Token == "":
		return "missing token"
	case !(c.PriceUSD > 0):
		return "no price"
	case f.cfg.MinLiquidityUSD > 0 && c.LiquidityUSD < f.cfg.MinLiquidityUSD:
		return "liquidity below minimum"
	case f.cfg.MaxAgeMinutes > 0 && c.AgeMinutes > f.cfg.MaxAgeMinutes:
		return "too old"
	case f.cfg.MinVolume1h > 0 && c.Volume1h < f.cfg.MinVolume1h:
		return "volume 1h below minimum"
	case f.cfg.MinLiqToMcap > 0 && c.LiqToMcap < f.cfg.MinLiqToMcap:
		return "liq/mcap below minimum"
	}
	if st == nil {
		return ""
	}
	if st.IsBlacklisted(c.Token) {
		return "blacklisted"
	}
	if st.InCooldown(engine.ReentryKey(c.Token), now) {
		return "cooldown"
	}
	return ""
}
