package notify

import (
	"fmt"
	"math"
	"sort"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// ExitReasonRow es una fila del desglose de cierres por motivo.
type ExitReasonRow struct {
	Reason    domain.ExitReason
	Count     int
	Wins      int
	AvgPnLPct float64
}

// ReportInput agrupa todo lo que PrintReport necesita.
type ReportInput struct {
	ScanCount   int
	Paper       domain.TradeStats
	Live        domain.TradeStats
	LiveRisk    domain.LiveRisk
	LiveTrades  []domain.LiveTrade
	Gate        domain.GateVerdict
	Model       domain.Model
	ModelConfig domain.ModelConfig
	Open        []domain.PaperTrade
	Recent      []domain.PaperTrade // cerrados, el más reciente primero
	ExitReasons []ExitReasonRow
	TopEdges    int
}

// PrintReport imprime el reporte agregado del historial paper y del modelo.
func (c *Console) PrintReport(in ReportInput) {
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  PAPER TRADING REPORT (%d scans)\n", in.ScanCount)
	fmt.Fprintf(c.out, "========================================================\n\n")

	if in.Paper.Closed == 0 && in.Paper.Open == 0 {
		fmt.Fprintln(c.out, "  No paper trades yet. Let the scanner run for a while.")
		fmt.Fprintf(c.out, "  Gate: %s\n", gateLabel(in.Gate))
		return
	}

	p := in.Paper
	fmt.Fprintf(c.out, "  Positions:    %d open | %d closed\n", p.Open, p.Closed)
	fmt.Fprintf(c.out, "  Win rate:     %.1f%% (%d W / %d L)\n", p.WinRate()*100, p.Wins, p.Losses)
	fmt.Fprintf(c.out, "  Avg return:   %+.2f%% | cumulative %+.2f%%\n", p.AvgReturnPct(), p.CumReturnPct)
	fmt.Fprintf(c.out, "  Gate:         %s\n", gateLabel(in.Gate))

	w := in.Model.Weights
	fmt.Fprintf(c.out, "\n── MODEL ──\n")
	fmt.Fprintf(c.out, "  Weights: accel %.3f | liq %.3f | age %.3f | bp %.3f\n",
		w.Accel, w.Liquidity, w.Age, w.BuyPressure)
	c.printEdges(in)

	if len(in.ExitReasons) > 0 {
		fmt.Fprintf(c.out, "\n── EXITS ──\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Reason", "Count", "Wins", "Avg%")
		for _, r := range in.ExitReasons {
			tbl.Append(string(r.Reason), fmt.Sprintf("%d", r.Count), fmt.Sprintf("%d", r.Wins), fmt.Sprintf("%+.2f", r.AvgPnLPct))
		}
		tbl.Render()
	}

	if len(in.Open) > 0 {
		fmt.Fprintf(c.out, "\n── OPEN (%d) ──\n", len(in.Open))
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Token", "Entry", "Last", "PnL%", "Peak%", "Opened")
		for _, t := range in.Open {
			tbl.Append(
				displaySymbol(t.Symbol, t.Token),
				fmt.Sprintf("%.8g", t.EntryPrice),
				fmt.Sprintf("%.8g", t.LastPrice),
				fmt.Sprintf("%+.2f", t.PnLPct),
				fmt.Sprintf("%+.2f", t.PeakPnLPct),
				t.EntryAt.Format("01-02 15:04"),
			)
		}
		tbl.Render()
	}

	if len(in.Recent) > 0 {
		fmt.Fprintf(c.out, "\n── RECENT CLOSES ──\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Token", "Reason", "PnL%", "Peak%", "Closed")
		for _, t := range in.Recent {
			closed := "-"
			if t.ExitAt != nil {
				closed = t.ExitAt.Format("01-02 15:04")
			}
			tbl.Append(
				displaySymbol(t.Symbol, t.Token),
				string(t.ExitReason),
				fmt.Sprintf("%+.2f", t.PnLPct),
				fmt.Sprintf("%+.2f", t.PeakPnLPct),
				closed,
			)
		}
		tbl.Render()
	}

	if in.Live.Open > 0 || in.Live.Closed > 0 || len(in.LiveTrades) > 0 {
		c.printLiveSection(in.Live, in.LiveRisk, in.LiveTrades)
	}
	fmt.Fprintln(c.out)
}

// bucketEdge es un bucket con edge distinto de cero.
type bucketEdge struct {
	key  string
	stat domain.BucketStat
	edge float64
}

// printEdges imprime los buckets con más edge (en valor absoluto).
func (c *Console) printEdges(in ReportInput) {
	var edges []bucketEdge
	for k, st := range in.Model.Buckets {
		e := in.Model.Edge(k, in.ModelConfig)
		if e == 0 {
			continue
		}
		edges = append(edges, bucketEdge{key: k, stat: st, edge: e})
	}
	if len(edges) == 0 {
		fmt.Fprintf(c.out, "  No bucket has enough samples for an edge yet.\n")
		return
	}
	sort.Slice(edges, func(i, j int) bool {
		ai, aj := math.Abs(edges[i].edge), math.Abs(edges[j].edge)
		if ai != aj {
			return ai > aj
		}
		return edges[i].key < edges[j].key
	})
	if in.TopEdges > 0 && len(edges) > in.TopEdges {
		edges = edges[:in.TopEdges]
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Bucket", "N", "Win%", "Avg%", "Edge")
	for _, e := range edges {
		tbl.Append(
			e.key,
			fmt.Sprintf("%d", e.stat.Count),
			fmt.Sprintf("%.0f", e.stat.WinRate()*100),
			fmt.Sprintf("%+.2f", e.stat.AvgReturn()),
			fmt.Sprintf("%+.3f", e.edge),
		)
	}
	tbl.Render()
}
