package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
	"golang.org/x/time/rate"
)

// buyRequest es el body que espera el servicio executor.
type buyRequest struct {
	Token       string  `json:"token"`
	NotionalUSD float64 `json:"notional_usd"`
	SlippageBps int     `json:"slippage_bps,omitempty"`
}

type buyResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HTTPExecutor implementa ports.SwapExecutor contra un servicio externo que firma
// y envía la transacción. Una compra no es idempotente: nunca se reintenta.
type HTTPExecutor struct {
	http        *http.Client
	url         string
	token       string
	slippageBps int
	limiter     *rate.Limiter
}

// NewHTTPExecutor crea un executor. authToken se envía como Bearer si no está vacío.
func NewHTTPExecutor(url, authToken string, slippageBps int) *HTTPExecutor {
	return &HTTPExecutor{
		http:        &http.Client{Timeout: 30 * time.Second},
		url:         url,
		token:       authToken,
		slippageBps: slippageBps,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Buy envía la orden de compra. Un rechazo del venue vuelve como Success=false
// con el motivo en Detail; error solo para fallos de transporte o de encoding.
func (e *HTTPExecutor) Buy(ctx context.Context, token string, notionalUSD float64) (domain.SwapResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return domain.SwapResult{}, fmt.Errorf("swap.Buy: rate limiter: %w", err)
	}

	body, err := json.Marshal(buyRequest{Token: token, NotionalUSD: notionalUSD, SlippageBps: e.slippageBps})
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("swap.Buy: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("swap.Buy: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("swap.Buy %s: %w", token, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out buyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		// Sin JSON válido: el status decide y el cuerpo va al detalle para auditoría
		return domain.SwapResult{
			Success: false,
			Detail:  fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 200)),
		}, nil
	}

	if resp.StatusCode >= 300 || !out.Success {
		detail := out.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		slog.Warn("swap rejected", "token", token, "notional_usd", notionalUSD, "detail", detail)
		return domain.SwapResult{Success: false, Detail: detail}, nil
	}
	return domain.SwapResult{Success: true, Detail: out.Signature}, nil
}

// DryRunExecutor acepta todas las compras sin efectos. Útil para probar el flujo live.
type DryRunExecutor struct{}

// Buy registra la compra simulada y devuelve éxito.
func (DryRunExecutor) Buy(_ context.Context, token string, notionalUSD float64) (domain.SwapResult, error) {
	slog.Info("dry-run swap", "token", token, "notional_usd", notionalUSD)
	return domain.SwapResult{Success: true, Detail: "dry-run"}, nil
}

// truncate corta por runas para no partir un carácter multibyte.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
