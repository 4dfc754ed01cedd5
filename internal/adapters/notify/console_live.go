package notify

import (
	"fmt"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// printLiveLine imprime el resumen live del ciclo, solo si hubo actividad live alguna vez.
func (c *Console) printLiveLine(r domain.CycleReport) {
	if r.LiveStats.Open == 0 && r.LiveStats.Closed == 0 && len(r.Live) == 0 {
		return
	}
	fmt.Fprintf(c.out, "  live: %d open | %d closed | win %.0f%% | avg %+.2f%%\n",
		r.LiveStats.Open, r.LiveStats.Closed, r.LiveStats.WinRate()*100, r.LiveStats.AvgReturnPct())
}

// printLiveSection imprime el bloque live del reporte completo.
func (c *Console) printLiveSection(stats domain.TradeStats, risk domain.LiveRisk, attempts []domain.LiveTrade) {
	fmt.Fprintf(c.out, "\n── LIVE ──\n")
	fmt.Fprintf(c.out, "  Positions:    %d open | %d closed | %d wins | %d losses\n",
		stats.Open, stats.Closed, stats.Wins, stats.Losses)
	fmt.Fprintf(c.out, "  Avg return:   %+.2f%%\n", stats.AvgReturnPct())
	fmt.Fprintf(c.out, "  Risk (%s): loss $%.2f | %d consecutive losses | %d open\n",
		orDash(risk.Day), risk.LossUSD, risk.ConsecutiveLosses, risk.OpenCount)

	if len(attempts) == 0 {
		return
	}
	failed := 0
	for _, a := range attempts {
		if !a.Success {
			failed++
		}
	}
	fmt.Fprintf(c.out, "  Attempts:     %d (%d failed)\n", len(attempts), failed)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
