package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sort"
	"time"

	"github.com/alejandrodnm/memegate/internal/application/engine"
	"github.com/alejandrodnm/memegate/internal/application/engine/live"
	"github.com/alejandrodnm/memegate/internal/application/engine/paper"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/ports"
	"github.com/alejandrodnm/memegate/internal/state"
)

// ErrTooManyFailures se devuelve cuando Run supera el máximo de ciclos fallidos seguidos.
var ErrTooManyFailures = errors.New("too many consecutive failed cycles")

const defaultMaxFailures = 5

// Config contiene la configuración del scanner.
type Config struct {
	Chain                  string
	ScanInterval           time.Duration
	Filter                 FilterConfig
	SnapshotWorkers        int    // goroutines para snapshots en paralelo (0 = 4)
	MaxConsecutiveFailures int    // 0 = 5
	StopFile               string // si existe, Run termina limpiamente
	Once                   bool
}

// Deps agrupa los colaboradores externos del scanner.
type Deps struct {
	Discovery ports.CandidateProvider
	Snapshots ports.SnapshotProvider
	Repo      ports.StateRepository
	Journal   ports.Journal // opcional
	Notifier  ports.Notifier
}

// Scanner es el orquestador principal del loop de escaneo.
// Es el único dueño del State Store: los ciclos nunca se solapan.
type Scanner struct {
	cfg    Config
	deps   Deps
	store  *state.Store
	filter *Filter
	paper  *paper.Engine
	live   *live.Engine
	now    engine.Clock
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(cfg Config, deps Deps, store *state.Store, pe *paper.Engine, le *live.Engine, now engine.Clock) *Scanner {
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = defaultMaxFailures
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		cfg:    cfg,
		deps:   deps,
		store:  store,
		filter: NewFilter(cfg.Filter),
		paper:  pe,
		live:   le,
		now:    now,
	}
}

// Store expone el State Store (reportes y tests).
func (s *Scanner) Store() *state.Store { return s.store }

// Run ejecuta el loop de escaneo hasta que el contexto se cancele, aparezca el
// STOP file o fallen demasiados ciclos seguidos. Con cfg.Once solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"chain", s.cfg.Chain,
		"interval", s.cfg.ScanInterval,
		"once", s.cfg.Once,
		"live", s.live != nil && s.live.Active(),
	)

	if err := s.store.CheckInvariants(); err != nil {
		slog.Warn("state invariants violated on load", "err", err)
	}

	failures := 0
	step := func() error {
		if _, err := s.RunOnce(ctx); err != nil {
			failures++
			slog.Error("scan cycle failed", "err", err, "consecutive_failures", failures)
			if failures >= s.cfg.MaxConsecutiveFailures {
				return fmt.Errorf("scanner.Run: %d failures: %w", failures, ErrTooManyFailures)
			}
			return nil
		}
		failures = 0
		return nil
	}

	if s.stopRequested() {
		slog.Info("stop file present, not starting", "path", s.cfg.StopFile)
		return nil
	}
	if err := step(); err != nil {
		return err
	}
	if s.cfg.Once {
		if failures > 0 {
			return errors.New("scanner.Run: single cycle failed")
		}
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if s.stopRequested() {
				slog.Info("stop file found, exiting", "path", s.cfg.StopFile)
				return nil
			}
			if err := step(); err != nil {
				return err
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo. Un panic dentro del ciclo se recupera
// y se devuelve como error.
func (s *Scanner) RunOnce(ctx context.Context) (report domain.CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scan cycle panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("scanner.RunOnce: panic: %v", r)
		}
	}()
	return s.cycle(ctx)
}

// cycle es discovery → filter → score → manage → open → gate → persist → notify.
func (s *Scanner) cycle(ctx context.Context) (domain.CycleReport, error) {
	start := s.now().UTC()
	st := s.store

	report := domain.CycleReport{StartedAt: start}
	report.ScanNumber = st.NextScan(start)
	st.PruneCooldowns(start)
	st.RollLiveDay(start)
	st.EvaluateGate(start)

	report.Closed = append(report.Closed, s.paper.CloseInvalid(st)...)

	// Discovery: un fallo degrada a lista vacía, el resto del ciclo sigue
	cands, err := s.deps.Discovery.FetchCandidates(ctx, s.cfg.Chain)
	if err != nil {
		slog.Warn("discovery failed", "chain", s.cfg.Chain, "err", err)
		report.Errors = append(report.Errors, fmt.Sprintf("discovery: %v", err))
		cands = nil
	}
	report.Discovered = len(cands)
	report.Ranked = s.rank(s.filter.Apply(cands, st, start))

	// Posiciones abiertas: snapshots en paralelo, mutaciones en serie
	open := st.OpenTrades()
	tokens := make([]string, 0, len(open))
	for _, t := range open {
		tokens = append(tokens, t.Token)
	}
	snaps := fetchSnapshotsConcurrent(ctx, s.deps.Snapshots, tokens, s.cfg.SnapshotWorkers)
	report.Closed = append(report.Closed, s.paper.ManageOpen(st, engine.ByToken(snaps))...)
	for _, c := range report.Closed {
		if c.Trade.LiveTradeID == "" {
			continue
		}
		if lt, ok := st.LiveTrade(c.Trade.LiveTradeID); ok && lt.Status == domain.StatusClosed {
			report.LiveClosed = append(report.LiveClosed, *lt)
		}
	}

	for _, t := range s.paper.OpenNew(st, report.Ranked) {
		if s.live != nil {
			if lt := s.live.MaybeBuy(ctx, st, t); lt != nil {
				report.Live = append(report.Live, *lt)
			}
		}
		report.Opened = append(report.Opened, *t)
	}

	report.Gate = st.EvaluateGate(s.now().UTC())
	report.OpenPositions = len(st.OpenTrades())
	report.Paper = st.PaperStats()
	report.LiveStats = st.LiveStats()
	report.Weights = st.Model().Weights

	if err := s.deps.Repo.Save(ctx, st.Doc()); err != nil {
		return report, fmt.Errorf("scanner.cycle: save state: %w", err)
	}

	report.Duration = s.now().UTC().Sub(start)

	if s.deps.Journal != nil {
		if err := s.deps.Journal.SaveCycle(ctx, report); err != nil {
			slog.Warn("journal error", "err", err)
		}
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"scan", report.ScanNumber,
		"discovered", report.Discovered,
		"ranked", len(report.Ranked),
		"opened", len(report.Opened),
		"closed", len(report.Closed),
		"open_positions", report.OpenPositions,
		"gate", report.Gate.Eligible,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}

// rank asigna buckets y score a cada candidato y ordena por score descendente.
func (s *Scanner) rank(cands []domain.Candidate) []domain.Candidate {
	model := s.store.Model()
	cfg := s.store.Config().Model
	for i := range cands {
		model.Rate(&cands[i], cfg)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands
}

// stopRequested consume el STOP file si existe, para que el próximo arranque no se detenga.
func (s *Scanner) stopRequested() bool {
	if s.cfg.StopFile == "" {
		return false
	}
	if _, err := os.Stat(s.cfg.StopFile); err != nil {
		return false
	}
	if err := os.Remove(s.cfg.StopFile); err != nil {
		slog.Warn("could not remove stop file", "path", s.cfg.StopFile, "err", err)
	}
	return true
}
