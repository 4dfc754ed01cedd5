package scanner

// concurrent.go: worker pool para obtener los snapshots de las posiciones abiertas.
//
// Solo paraleliza I/O: los resultados vuelven al goroutine del ciclo y todas las
// mutaciones de estado siguen siendo secuenciales.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/ports"
)

const defaultSnapshotWorkers = 4

// fetchSnapshotsConcurrent pide un snapshot por token usando un worker pool.
// Un fallo de un token se loguea y ese token queda sin snapshot.
func fetchSnapshotsConcurrent(
	ctx context.Context,
	provider ports.SnapshotProvider,
	tokens []string,
	workers int,
) []domain.MarketSnapshot {
	if len(tokens) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = defaultSnapshotWorkers
	}
	if workers > len(tokens) {
		workers = len(tokens)
	}

	workCh := make(chan string, len(tokens))
	resultCh := make(chan domain.MarketSnapshot, len(tokens))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tok := range workCh {
				snap, err := provider.FetchSnapshot(ctx, tok)
				if err != nil {
					slog.Warn("snapshot failed", "token", tok, "err", err)
					continue
				}
				if snap.Empty() {
					slog.Debug("empty snapshot", "token", tok)
					continue
				}
				snap.Token = tok
				resultCh <- snap
			}
		}()
	}

	for _, tok := range tokens {
		workCh <- tok
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	snaps := make([]domain.MarketSnapshot, 0, len(tokens))
	for s := range resultCh {
		snaps = append(snaps, s)
	}

	slog.Debug("snapshots fetched", "tokens", len(tokens), "ok", len(snaps), "workers", workers)
	return snaps
}
