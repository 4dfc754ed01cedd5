package engine

import (
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// Clock devuelve la hora actual. Los engines la reciben para ser testeables.
type Clock func() time.Time

// ReentryKey es la clave de cooldown que bloquea reabrir un token recién cerrado.
func ReentryKey(token string) string {
	return "reentry:" + token
}

// ByToken indexa snapshots por token, descartando los vacíos.
func ByToken(snaps []domain.MarketSnapshot) map[string]domain.MarketSnapshot {
	out := make(map[string]domain.MarketSnapshot, len(snaps))
	for _, s := range snaps {
		if s.Empty() {
			continue
		}
		out[s.Token] = s
	}
	return out
}
