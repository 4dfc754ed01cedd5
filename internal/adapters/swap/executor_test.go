package swap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/alejandrodnm/memegate/internal/adapters/swap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExecutor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tokA", body["token"])
		assert.Equal(t, 25.0, body["notional_usd"])
		assert.Equal(t, 150.0, body["slippage_bps"])

		w.Write([]byte(`{"success": true, "signature": "5xSig"}`))
	}))
	defer srv.Close()

	res, err := swap.NewHTTPExecutor(srv.URL, "secret", 150).Buy(context.Background(), "tokA", 25)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "5xSig", res.Detail)
}

func TestHTTPExecutor_RejectedIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success": false, "error": "slippage exceeded"}`))
	}))
	defer srv.Close()

	res, err := swap.NewHTTPExecutor(srv.URL, "", 0).Buy(context.Background(), "tokA", 25)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "slippage exceeded", res.Detail)
}

func TestHTTPExecutor_NeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	res, err := swap.NewHTTPExecutor(srv.URL, "", 0).Buy(context.Background(), "tokA", 25)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Detail, "502")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPExecutor_LongNonJSONBodyStaysValidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		// 1 byte + runas de 2 bytes: el corte por bytes caería en medio de una
		w.Write([]byte("x" + strings.Repeat("é", 300)))
	}))
	defer srv.Close()

	res, err := swap.NewHTTPExecutor(srv.URL, "", 0).Buy(context.Background(), "tokA", 25)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, utf8.ValidString(res.Detail), "detail must be valid UTF-8: %q", res.Detail)
	assert.True(t, strings.HasSuffix(res.Detail, "…"))
	assert.Contains(t, res.Detail, "502")
}

func TestHTTPExecutor_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := swap.NewHTTPExecutor(url, "", 0).Buy(context.Background(), "tokA", 25)
	assert.Error(t, err)
}

func TestDryRunExecutor(t *testing.T) {
	res, err := swap.DryRunExecutor{}.Buy(context.Background(), "tokA", 10)
	require.NoError(t, err)
	assert.True(t, res.Success)
}
