package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/alejandrodnm/memegate/internal/domain"
)

const searchPath = "/latest/dex/search"

// FetchCandidates busca las queries configuradas y devuelve un candidato por base token.
// Una query fallida se salta; solo devuelve error si fallan todas.
func (c *Client) FetchCandidates(ctx context.Context, chain string) ([]domain.Candidate, error) {
	var (
		all    []pair
		errs   []error
		failed int
	)
	for _, q := range c.queries {
		u := fmt.Sprintf("%s%s?q=%s", c.baseURL, searchPath, url.QueryEscape(q))

		var resp pairsResponse
		if err := c.get(ctx, c.searchLimiter, u, &resp); err != nil {
			slog.Debug("dexscreener search failed, skipping", "query", q, "err", err)
			errs = append(errs, fmt.Errorf("query %q: %w", q, err))
			failed++
			continue
		}
		all = append(all, resp.Pairs...)
	}
	if len(c.queries) > 0 && failed == len(c.queries) {
		return nil, fmt.Errorf("dexscreener.FetchCandidates: %w", errors.Join(errs...))
	}

	pairs := dedupeByBaseToken(all, chain)
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Liquidity.USD > pairs[j].Liquidity.USD
	})

	now := c.now()
	candidates := make([]domain.Candidate, 0, len(pairs))
	for _, p := range pairs {
		candidates = append(candidates, toCandidate(p, now))
	}

	slog.Debug("dexscreener discovery complete",
		"chain", chain,
		"raw_pairs", len(all),
		"candidates", len(candidates),
	)
	return candidates, nil
}
