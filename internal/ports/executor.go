package ports

import (
	"context"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// SwapExecutor ejecuta compras reales contra el venue de swaps.
type SwapExecutor interface {
	// Buy compra notionalUSD del token. Un SwapResult con Success=false
	// es un rechazo del venue; error es un fallo de transporte.
	Buy(ctx context.Context, token string, notionalUSD float64) (domain.SwapResult, error)
}
