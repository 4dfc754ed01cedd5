package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alejandrodnm/memegate/internal/domain"
)

const tokensPath = "/latest/dex/tokens/"

// FetchSnapshot devuelve precio y liquidez actuales del par más líquido del token.
// Sin pares devuelve un snapshot vacío y nil; un fallo HTTP devuelve vacío y el error.
func (c *Client) FetchSnapshot(ctx context.Context, tokenAddr string) (domain.MarketSnapshot, error) {
	empty := domain.MarketSnapshot{Token: tokenAddr}

	var resp pairsResponse
	u := c.baseURL + tokensPath + url.PathEscape(tokenAddr)
	if err := c.get(ctx, c.tokensLimiter, u, &resp); err != nil {
		return empty, fmt.Errorf("dexscreener.FetchSnapshot %s: %w", tokenAddr, err)
	}

	var best *pair
	for i := range resp.Pairs {
		p := &resp.Pairs[i]
		if !strings.EqualFold(p.BaseToken.Address, tokenAddr) || !(p.PriceUSD > 0) {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	if best == nil {
		return empty, nil
	}
	return toSnapshot(tokenAddr, *best), nil
}
