package dexscreener_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/memegate/internal/adapters/dexscreener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// createdMs devuelve pairCreatedAt para un par creado hace ago.
func createdMs(ago time.Duration) int64 {
	return now.Add(-ago).UnixMilli()
}

const searchFixture = `{
	"pairs": [
		{
			"chainId": "solana", "pairAddress": "pairA1", "url": "https://dexscreener.com/solana/pairA1",
			"baseToken": {"address": "tokA", "symbol": "AAA"},
			"priceUsd": "0.00123",
			"txns": {"h1": {"buys": 150, "sells": 50}},
			"volume": {"m5": 2000, "h1": 12000, "h24": 90000},
			"priceChange": {"m5": 3.5, "h1": 12.0, "h24": 40},
			"liquidity": {"usd": 40000},
			"marketCap": 400000,
			"pairCreatedAt": %d
		},
		{
			"chainId": "solana", "pairAddress": "pairA2",
			"baseToken": {"address": "tokA", "symbol": "AAA"},
			"priceUsd": "0.00120",
			"liquidity": {"usd": 5000},
			"pairCreatedAt": %d
		},
		{
			"chainId": "ethereum", "pairAddress": "pairE",
			"baseToken": {"address": "tokE", "symbol": "EEE"},
			"priceUsd": "1.0",
			"liquidity": {"usd": 999999}
		},
		{
			"chainId": "solana", "pairAddress": "pairB",
			"baseToken": {"address": "tokB", "symbol": "BBB"},
			"priceUsd": "not-a-number",
			"volume": {"m5": "oops", "h1": null},
			"liquidity": {"usd": "75000"},
			"fdv": 150000
		},
		{
			"chainId": "solana", "pairAddress": "pairX",
			"baseToken": {"address": "", "symbol": "NOADDR"},
			"priceUsd": "1"
		}
	]
}`

func newServer(t *testing.T, handler http.HandlerFunc) *dexscreener.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return dexscreener.NewClient(srv.URL, []string{"pump"}).WithClock(func() time.Time { return now })
}

func TestFetchCandidates_DedupesAndMaps(t *testing.T) {
	body := strings.Replace(searchFixture, "%d", strconv.FormatInt(createdMs(45*time.Minute), 10), 1)
	body = strings.Replace(body, "%d", strconv.FormatInt(createdMs(10*time.Minute), 10), 1)

	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "pump", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	cands, err := client.FetchCandidates(context.Background(), "solana")
	require.NoError(t, err)
	require.Len(t, cands, 2)

	// Ordenados por liquidez desc: tokB (75k) antes que tokA (40k)
	b, a := cands[0], cands[1]
	assert.Equal(t, "tokB", b.Token)
	assert.Equal(t, 0.0, b.PriceUSD, "malformed price coerces to zero")
	assert.Equal(t, 75000.0, b.LiquidityUSD)
	assert.Equal(t, 150000.0, b.MarketCapUSD, "falls back to fdv")
	assert.Equal(t, 0.0, b.Volume5m)

	assert.Equal(t, "tokA", a.Token)
	assert.Equal(t, "pairA1", a.PairAddress, "keeps the most liquid pair")
	assert.InDelta(t, 0.00123, a.PriceUSD, 1e-12)
	assert.InDelta(t, 45.0, a.AgeMinutes, 1e-6)
	assert.InDelta(t, 0.1, a.LiqToMcap, 1e-9)
	assert.InDelta(t, 2.0, a.VolumeAccel, 1e-9)
	assert.Equal(t, 150, a.Buys1h)
	assert.Equal(t, 50, a.Sells1h)
	assert.InDelta(t, 3.0, a.BuyPressure(), 1e-9)
	assert.InDelta(t, 12.0, a.Change1h, 1e-9)
}

func TestFetchCandidates_AllQueriesFail(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.FetchCandidates(context.Background(), "solana")
	assert.Error(t, err)
}

func TestFetchCandidates_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"pairs": [{"chainId": "solana", "baseToken": {"address": "tokA"}, "priceUsd": "1"}]}`))
	})

	cands, err := client.FetchCandidates(context.Background(), "solana")
	require.NoError(t, err)
	assert.Len(t, cands, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchSnapshot(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest/dex/tokens/tokA":
			w.Write([]byte(`{"pairs": [
				{"baseToken": {"address": "tokA"}, "priceUsd": "0.5", "liquidity": {"usd": 1000}},
				{"baseToken": {"address": "tokA"}, "priceUsd": "0.6", "liquidity": {"usd": 9000},
				 "marketCap": 60000, "volume": {"h24": 12345}, "priceChange": {"h24": -12.5}},
				{"baseToken": {"address": "other"}, "priceUsd": "9", "liquidity": {"usd": 99999}}
			]}`))
		case "/latest/dex/tokens/dead":
			w.Write([]byte(`{"pairs": null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	snap, err := client.FetchSnapshot(ctx, "tokA")
	require.NoError(t, err)
	assert.False(t, snap.Empty())
	assert.InDelta(t, 0.6, snap.PriceUSD, 1e-12)
	assert.Equal(t, 9000.0, snap.LiquidityUSD)
	assert.Equal(t, 60000.0, snap.MarketCapUSD)
	assert.Equal(t, 12345.0, snap.Volume24h)
	assert.Equal(t, -12.5, snap.Change24h)

	snap, err = client.FetchSnapshot(ctx, "dead")
	require.NoError(t, err)
	assert.True(t, snap.Empty())

	snap, err = client.FetchSnapshot(ctx, "missing")
	assert.Error(t, err)
	assert.True(t, snap.Empty())
	assert.Equal(t, "missing", snap.Token)
}
