package dexscreener

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DTOs raw de la API de DexScreener. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// pairsResponse es la respuesta de /latest/dex/search y /latest/dex/tokens/{addr}.
type pairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID       string    `json:"chainId"`
	DexID         string    `json:"dexId"`
	URL           string    `json:"url"`
	PairAddress   string    `json:"pairAddress"`
	BaseToken     token     `json:"baseToken"`
	QuoteToken    token     `json:"quoteToken"`
	PriceUSD      flexFloat `json:"priceUsd"`
	Txns          txns      `json:"txns"`
	Volume        windows   `json:"volume"`
	PriceChange   windows   `json:"priceChange"`
	Liquidity     liquidity `json:"liquidity"`
	FDV           flexFloat `json:"fdv"`
	MarketCap     flexFloat `json:"marketCap"`
	PairCreatedAt flexInt64 `json:"pairCreatedAt"` // unix ms
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type txns struct {
	M5 buysSells `json:"m5"`
	H1 buysSells `json:"h1"`
}

type buysSells struct {
	Buys  flexInt64 `json:"buys"`
	Sells flexInt64 `json:"sells"`
}

type windows struct {
	M5  flexFloat `json:"m5"`
	H1  flexFloat `json:"h1"`
	H6  flexFloat `json:"h6"`
	H24 flexFloat `json:"h24"`
}

type liquidity struct {
	USD flexFloat `json:"usd"`
}

// flexFloat acepta números, strings numéricos y null. Cualquier otra cosa es 0.
// DexScreener devuelve priceUsd como string y el resto como número.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	*f = 0
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt64 es el equivalente entero de flexFloat.
type flexInt64 int64

func (n *flexInt64) UnmarshalJSON(b []byte) error {
	var f flexFloat
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	*n = flexInt64(f)
	return nil
}
