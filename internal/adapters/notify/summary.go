package notify

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/memegate/internal/domain"
)

const summaryTop = 5

// FormatSummary construye el texto plano de un ciclo para canales de mensajería.
func FormatSummary(r domain.CycleReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scan #%d (%s UTC)\n", r.ScanNumber, r.StartedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Gate: %s\n", gateLabel(r.Gate))
	fmt.Fprintf(&sb, "Candidates: %d found, %d ranked | open positions: %d\n",
		r.Discovered, len(r.Ranked), r.OpenPositions)
	fmt.Fprintf(&sb, "Paper: %d closed, win %.0f%%, avg %+.2f%%\n",
		r.Paper.Closed, r.Paper.WinRate()*100, r.Paper.AvgReturnPct())

	if top := r.Top(summaryTop); len(top) > 0 {
		sb.WriteString("\nTop:\n")
		for i, c := range top {
			fmt.Fprintf(&sb, "%d. %s score %.3f liq $%.0f age %s\n",
				i+1, displaySymbol(c.Symbol, c.Token), c.Score, c.LiquidityUSD, formatAge(c.AgeMinutes))
		}
	}

	if actions := actionLines(r); len(actions) > 0 {
		sb.WriteString("\nActions:\n")
		for _, a := range actions {
			sb.WriteString(a)
			sb.WriteByte('\n')
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\nErrors: %d\n", len(r.Errors))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HasActivity devuelve true si el ciclo abrió, cerró o intentó algo live.
func HasActivity(r domain.CycleReport) bool {
	return len(r.Opened) > 0 || len(r.Closed) > 0 || len(r.Live) > 0
}
