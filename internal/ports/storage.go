package ports

import (
	"context"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
)

// StateRepository carga y guarda el documento de estado completo.
type StateRepository interface {
	// Load devuelve un documento nuevo si todavía no existe ninguno.
	Load(ctx context.Context) (*state.State, error)

	// Save escribe el documento de forma atómica: un crash nunca deja un archivo truncado.
	Save(ctx context.Context, st *state.State) error
}

// Journal guarda un histórico consultable de ciclos y trades.
// Es append-only y opcional: el estado autoritativo vive en StateRepository.
type Journal interface {
	SaveCycle(ctx context.Context, report domain.CycleReport) error
	SavePaperTrade(ctx context.Context, t domain.PaperTrade) error
	SaveLiveTrade(ctx context.Context, t domain.LiveTrade) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
