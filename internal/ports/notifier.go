package ports

import (
	"context"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// Notifier presenta el resultado de cada ciclo al usuario.
type Notifier interface {
	Notify(ctx context.Context, report domain.CycleReport) error
}
