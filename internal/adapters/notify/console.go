package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const compactTop = 3

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	top   int
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=true imprime la tabla completa de candidatos rankeados.
func NewConsole(table bool, top int) *Console {
	return NewConsoleWriter(os.Stdout, table, top)
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, table bool, top int) *Console {
	if top <= 0 {
		top = 10
	}
	return &Console{out: w, table: table, top: top}
}

// Notify imprime el ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.CycleReport) error {
	if c.table {
		c.printFull(r)
	} else {
		c.printCompact(r)
	}
	return nil
}

// printCompact imprime lo esencial en una línea más las acciones.
func (c *Console) printCompact(r domain.CycleReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] #%d %d found → %d ranked | open %d | +%d -%d | %s",
		r.StartedAt.Format("15:04:05"), r.ScanNumber, r.Discovered, len(r.Ranked),
		r.OpenPositions, len(r.Opened), len(r.Closed), gateLabel(r.Gate))

	for _, cand := range r.Top(compactTop) {
		fmt.Fprintf(&sb, " | %s %.2f", displaySymbol(cand.Symbol, cand.Token), cand.Score)
	}
	fmt.Fprintln(c.out, sb.String())

	for _, line := range actionLines(r) {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(c.out, "  !! %s\n", e)
	}
}

// printFull imprime la tabla de candidatos y el estado de las posiciones.
func (c *Console) printFull(r domain.CycleReport) {
	fmt.Fprintf(c.out, "\n[%s] scan #%d: %d discovered, %d ranked (%s)\n",
		r.StartedAt.Format("15:04:05"), r.ScanNumber, r.Discovered, len(r.Ranked), r.Duration.Round(time.Millisecond))

	if len(r.Ranked) == 0 {
		fmt.Fprintln(c.out, "  no candidates passed the filters")
	} else {
		c.printCandidates(r.Top(c.top))
	}

	for _, line := range actionLines(r) {
		fmt.Fprintf(c.out, "  %s\n", line)
	}
	fmt.Fprintf(c.out, "  paper: %d open | %d closed | win %.0f%% | avg %+.2f%%\n",
		r.Paper.Open, r.Paper.Closed, r.Paper.WinRate()*100, r.Paper.AvgReturnPct())
	fmt.Fprintf(c.out, "  weights: accel %.3f | liq %.3f | age %.3f | bp %.3f\n",
		r.Weights.Accel, r.Weights.Liquidity, r.Weights.Age, r.Weights.BuyPressure)
	c.printLiveLine(r)
	fmt.Fprintf(c.out, "  gate: %s\n", gateLabel(r.Gate))
	for _, e := range r.Errors {
		fmt.Fprintf(c.out, "  !! %s\n", e)
	}
}

// printCandidates imprime la tabla de candidatos rankeados.
func (c *Console) printCandidates(cands []domain.Candidate) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Token", "Score", "Age", "Liq$", "Liq/MC", "Accel", "B/S", "1h%", "Price")

	for i, cand := range cands {
		table.Append(
			fmt.Sprintf("%d", i+1),
			displaySymbol(cand.Symbol, cand.Token),
			fmt.Sprintf("%.3f", cand.Score),
			formatAge(cand.AgeMinutes),
			fmt.Sprintf("$%.0f", cand.LiquidityUSD),
			fmt.Sprintf("%.2f", cand.LiqToMcap),
			fmt.Sprintf("%.2f", cand.VolumeAccel),
			fmt.Sprintf("%d/%d", cand.Buys1h, cand.Sells1h),
			fmt.Sprintf("%+.1f", cand.Change1h),
			fmt.Sprintf("%.8g", cand.PriceUSD),
		)
	}
	table.Render()
}

// --- helpers ---

// actionLines describe las aperturas, cierres e intentos live del ciclo.
func actionLines(r domain.CycleReport) []string {
	var lines []string
	for _, t := range r.Opened {
		lines = append(lines, fmt.Sprintf("OPEN  %s @ %.8g score %.3f", displaySymbol(t.Symbol, t.Token), t.EntryPrice, t.Score))
	}
	for _, ct := range r.Closed {
		lines = append(lines, fmt.Sprintf("CLOSE %s %s %+.2f%% (%s)",
			displaySymbol(ct.Trade.Symbol, ct.Trade.Token), winLabel(ct.Win), ct.PnLPct, ct.Trade.ExitReason))
	}
	for _, lt := range r.Live {
		status := "ok"
		if !lt.Success {
			status = "FAILED " + lt.Detail
		}
		lines = append(lines, fmt.Sprintf("LIVE  %s $%.2f %s", displaySymbol(lt.Symbol, lt.Token), lt.SizeUSD, status))
	}
	return lines
}

func gateLabel(v domain.GateVerdict) string {
	if v.Eligible {
		return "LIVE OK"
	}
	return "paper only: " + v.Reason
}

func winLabel(win bool) string {
	if win {
		return "WIN"
	}
	return "LOSS"
}

// displaySymbol usa el símbolo si existe, si no una forma corta de la dirección.
func displaySymbol(symbol, token string) string {
	if symbol != "" {
		return symbol
	}
	if len(token) > 10 {
		return token[:4] + "…" + token[len(token)-4:]
	}
	return token
}

func formatAge(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0fm", minutes)
	}
	return fmt.Sprintf("%.1fh", minutes/60)
}
