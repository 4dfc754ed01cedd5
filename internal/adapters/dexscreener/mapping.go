package dexscreener

import (
	"strings"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// toCandidate convierte un par raw en un domain.Candidate con las features derivadas.
func toCandidate(p pair, now time.Time) domain.Candidate {
	liq := float64(p.Liquidity.USD)
	mcap := float64(p.MarketCap)
	if mcap <= 0 {
		mcap = float64(p.FDV)
	}
	v5m, v1h := float64(p.Volume.M5), float64(p.Volume.H1)

	var created time.Time
	if p.PairCreatedAt > 0 {
		created = time.UnixMilli(int64(p.PairCreatedAt))
	}

	return domain.Candidate{
		Token:       p.BaseToken.Address,
		Symbol:      p.BaseToken.Symbol,
		PairAddress: p.PairAddress,
		URL:         p.URL,
		PriceUSD:    nonNegative(float64(p.PriceUSD)),
		Features: domain.Features{
			AgeMinutes:   domain.AgeMinutes(created, now),
			LiquidityUSD: nonNegative(liq),
			MarketCapUSD: nonNegative(mcap),
			LiqToMcap:    domain.LiqToMcapRatio(liq, mcap),
			Volume5m:     nonNegative(v5m),
			Volume1h:     nonNegative(v1h),
			Volume24h:    nonNegative(float64(p.Volume.H24)),
			Buys1h:       int(max(p.Txns.H1.Buys, 0)),
			Sells1h:      int(max(p.Txns.H1.Sells, 0)),
			Change5m:     float64(p.PriceChange.M5),
			Change1h:     float64(p.PriceChange.H1),
			VolumeAccel:  domain.VolumeAcceleration(v5m, v1h),
		},
	}
}

// toSnapshot convierte el par más líquido de un token en un MarketSnapshot.
func toSnapshot(tokenAddr string, p pair) domain.MarketSnapshot {
	mcap := float64(p.MarketCap)
	if mcap <= 0 {
		mcap = float64(p.FDV)
	}
	return domain.MarketSnapshot{
		Token:        tokenAddr,
		PriceUSD:     nonNegative(float64(p.PriceUSD)),
		MarketCapUSD: nonNegative(mcap),
		LiquidityUSD: nonNegative(float64(p.Liquidity.USD)),
		Volume24h:    nonNegative(float64(p.Volume.H24)),
		Change24h:    float64(p.PriceChange.H24),
	}
}

// dedupeByBaseToken se queda con el par más líquido de cada base token en chain.
// Los pares sin dirección de token se descartan. El orden de salida es el de
// primera aparición.
func dedupeByBaseToken(pairs []pair, chain string) []pair {
	idx := make(map[string]int, len(pairs))
	var out []pair
	for _, p := range pairs {
		if chain != "" && !strings.EqualFold(p.ChainID, chain) {
			continue
		}
		addr := p.BaseToken.Address
		if addr == "" {
			continue
		}
		if i, ok := idx[addr]; ok {
			if p.Liquidity.USD > out[i].Liquidity.USD {
				out[i] = p
			}
			continue
		}
		idx[addr] = len(out)
		out = append(out, p)
	}
	return out
}

func nonNegative(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return v
}
