package ports

import (
	"context"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// CandidateProvider descubre tokens recién listados en una chain.
type CandidateProvider interface {
	// FetchCandidates devuelve un candidato por token base, con features ya calculadas.
	// Los datos malformados se descartan por item, nunca hacen fallar el lote.
	FetchCandidates(ctx context.Context, chain string) ([]domain.Candidate, error)
}

// SnapshotProvider obtiene el precio y la liquidez actuales de un token.
type SnapshotProvider interface {
	// FetchSnapshot devuelve un snapshot vacío (Empty() == true) si el token no tiene pares.
	FetchSnapshot(ctx context.Context, token string) (domain.MarketSnapshot, error)
}
