package state

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrPositionOpen  = errors.New("position already open for token")
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeClosed   = errors.New("trade already closed")
)

// Config son los parámetros que las mutaciones necesitan.
type Config struct {
	Model domain.ModelConfig
	Gate  domain.GateConfig
}

// DefaultConfig devuelve la configuración por defecto del modelo y del gate.
func DefaultConfig() Config {
	return Config{
		Model: domain.DefaultModelConfig(),
		Gate:  domain.DefaultGateConfig(),
	}
}

// Store es el único dueño del documento de estado.
// No es seguro para escritores concurrentes: el scanner serializa los ciclos.
// Cada método deja el documento consistente antes de devolver.
type Store struct {
	doc *State
	cfg Config
}

// NewStore envuelve un documento. Si doc es nil arranca con uno vacío.
func NewStore(doc *State, cfg Config) *Store {
	if doc == nil {
		doc = New()
	}
	doc.backfill()
	return &Store{doc: doc, cfg: cfg}
}

// Doc devuelve el documento para persistirlo. No retener entre ciclos.
func (s *Store) Doc() *State { return s.doc }

// Config devuelve la configuración activa.
func (s *Store) Config() Config { return s.cfg }

// Model devuelve una vista del modelo para scoring (solo lectura por convención).
func (s *Store) Model() domain.Model { return s.doc.Model }

// NextScan incrementa y devuelve el contador de scans.
func (s *Store) NextScan(now time.Time) int {
	s.doc.ScanCount++
	s.doc.UpdatedAt = now.UTC()
	return s.doc.ScanCount
}

// --- Paper trades ---

// HasOpenPosition devuelve true si el token ya tiene un trade paper OPEN.
func (s *Store) HasOpenPosition(token string) bool {
	for _, t := range s.doc.PaperTrades {
		if t.Token == token && t.IsOpen() {
			return true
		}
	}
	return false
}

// OpenTrades devuelve los trades paper abiertos (punteros al ledger).
func (s *Store) OpenTrades() []*domain.PaperTrade {
	var open []*domain.PaperTrade
	for _, t := range s.doc.PaperTrades {
		if t.IsOpen() {
			open = append(open, t)
		}
	}
	return open
}

// Trade busca un trade paper por ID.
func (s *Store) Trade(id string) (*domain.PaperTrade, bool) {
	for _, t := range s.doc.PaperTrades {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// OpenPaper abre una posición simulada y la añade al ledger.
func (s *Store) OpenPaper(c domain.Candidate, now time.Time) (*domain.PaperTrade, error) {
	if c.Token != "" && s.HasOpenPosition(c.Token) {
		return nil, fmt.Errorf("state.OpenPaper %s: %w", c.Token, ErrPositionOpen)
	}
	t, err := domain.NewPaperTrade(uuid.New().String(), c, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("state.OpenPaper %q: %w", c.Token, err)
	}
	s.doc.PaperTrades = append(s.doc.PaperTrades, t)
	s.doc.Stats.Paper.RecordOpen()
	return t, nil
}

// MarkPaper registra un precio observado en un trade abierto.
func (s *Store) MarkPaper(id string, price float64, now time.Time) error {
	t, ok := s.Trade(id)
	if !ok {
		return fmt.Errorf("state.MarkPaper %s: %w", id, ErrTradeNotFound)
	}
	t.Mark(price, now.UTC())
	return nil
}

// ClosePaper cierra un trade: stats agregadas, learner, espejo live y gate.
// Devuelve el flag de win y el P&L final en %.
func (s *Store) ClosePaper(id string, price float64, reason domain.ExitReason, now time.Time) (win bool, pnlPct float64, err error) {
	t, ok := s.Trade(id)
	if !ok {
		return false, 0, fmt.Errorf("state.ClosePaper %s: %w", id, ErrTradeNotFound)
	}
	if !t.IsOpen() {
		return false, 0, fmt.Errorf("state.ClosePaper %s: %w", id, ErrTradeClosed)
	}
	now = now.UTC()

	win, pnlPct = t.Close(price, reason, now)
	s.doc.Stats.Paper.RecordClose(win, pnlPct)
	s.doc.Model.Learn(domain.Outcome{Win: win, PnLPct: pnlPct, Buckets: t.Buckets}, s.cfg.Model)

	if t.LiveTradeID != "" {
		s.closeLiveMirror(t, now)
	}

	s.EvaluateGate(now)
	return win, pnlPct, nil
}

// EvaluateGate recalcula el veredicto live desde las stats paper y lo guarda.
func (s *Store) EvaluateGate(now time.Time) domain.GateVerdict {
	s.doc.Gate = domain.EvaluateGate(s.doc.Stats.Paper, s.cfg.Gate, now.UTC())
	return s.doc.Gate
}

// Gate devuelve el último veredicto sin recalcular.
func (s *Store) Gate() domain.GateVerdict { return s.doc.Gate }

// PaperStats devuelve los contadores paper.
func (s *Store) PaperStats() domain.TradeStats { return s.doc.Stats.Paper }

// LiveStats devuelve los contadores live.
func (s *Store) LiveStats() domain.TradeStats { return s.doc.Stats.Live }

// --- Blacklist y cooldowns ---

// Blacklist excluye un token de forma permanente.
func (s *Store) Blacklist(token, reason string) {
	if token == "" {
		return
	}
	s.doc.Blacklist[token] = reason
}

// IsBlacklisted devuelve true si el token está en la blacklist.
func (s *Store) IsBlacklisted(token string) bool {
	_, ok := s.doc.Blacklist[token]
	return ok
}

// SetCooldown bloquea key hasta until.
func (s *Store) SetCooldown(key string, until time.Time) {
	s.doc.Cooldowns[key] = until.Unix()
}

// InCooldown devuelve true si key sigue bloqueada en now.
func (s *Store) InCooldown(key string, now time.Time) bool {
	exp, ok := s.doc.Cooldowns[key]
	return ok && now.Unix() < exp
}

// PruneCooldowns elimina los cooldowns expirados y devuelve cuántos borró.
func (s *Store) PruneCooldowns(now time.Time) int {
	n := 0
	for k, exp := range s.doc.Cooldowns {
		if now.Unix() >= exp {
			delete(s.doc.Cooldowns, k)
			n++
		}
	}
	return n
}

// --- Live ---

// RollLiveDay resetea los contadores diarios de riesgo si cambió el día UTC.
func (s *Store) RollLiveDay(now time.Time) bool {
	return s.doc.LiveRisk.Roll(now)
}

// LiveRisk devuelve los contadores de riesgo actuales.
func (s *Store) LiveRisk() domain.LiveRisk { return s.doc.LiveRisk }

// RecordLiveAttempt añade un intento de compra real al audit log.
// Solo un intento exitoso cuenta como posición live abierta.
func (s *Store) RecordLiveAttempt(t *domain.PaperTrade, sizeUSD float64, res domain.SwapResult, now time.Time) *domain.LiveTrade {
	lt := &domain.LiveTrade{
		ID:           uuid.New().String(),
		PaperTradeID: t.ID,
		Token:        t.Token,
		Symbol:       t.Symbol,
		SizeUSD:      sizeUSD,
		RequestedAt:  now.UTC(),
		Success:      res.Success,
		Detail:       res.Detail,
		Status:       domain.StatusFailed,
	}
	if res.Success {
		lt.Status = domain.StatusOpen
		t.LiveTradeID = lt.ID
		s.doc.Stats.Live.RecordOpen()
		s.doc.LiveRisk.RecordOpen()
	}
	s.doc.LiveTrades = append(s.doc.LiveTrades, lt)
	return lt
}

// LiveTrade busca un registro live por ID.
func (s *Store) LiveTrade(id string) (*domain.LiveTrade, bool) {
	for _, lt := range s.doc.LiveTrades {
		if lt.ID == id {
			return lt, true
		}
	}
	return nil, false
}

// closeLiveMirror cierra el registro live enlazado con el resultado del paper trade.
func (s *Store) closeLiveMirror(t *domain.PaperTrade, now time.Time) {
	for _, lt := range s.doc.LiveTrades {
		if lt.ID != t.LiveTradeID || lt.Status != domain.StatusOpen {
			continue
		}
		closedAt := now
		lt.Status = domain.StatusClosed
		lt.PnLPct = t.PnLPct
		lt.ClosedAt = &closedAt

		s.doc.Stats.Live.RecordClose(t.PnLPct > 0, t.PnLPct)
		s.doc.LiveRisk.Roll(now)
		s.doc.LiveRisk.RecordClose(lt.SizeUSD * t.PnLPct / 100)
		return
	}
}

// --- Invariantes ---

// CheckInvariants verifica que los contadores incrementales coinciden con el ledger
// y que el modelo respeta sus invariantes. Devuelve todas las violaciones juntas.
func (s *Store) CheckInvariants() error {
	var errs []error

	var want domain.TradeStats
	for _, t := range s.doc.PaperTrades {
		if t.IsOpen() {
			want.Open++
			continue
		}
		want.Closed++
		if t.Win() {
			want.Wins++
		} else {
			want.Losses++
		}
		want.CumReturnPct += t.PnLPct
	}
	got := s.doc.Stats.Paper
	if got.Open != want.Open || got.Closed != want.Closed || got.Wins != want.Wins || got.Losses != want.Losses {
		errs = append(errs, fmt.Errorf("paper stats %+v do not match ledger %+v", got, want))
	}
	if math.Abs(got.CumReturnPct-want.CumReturnPct) > 1e-6 {
		errs = append(errs, fmt.Errorf("paper cum return %.6f != ledger %.6f", got.CumReturnPct, want.CumReturnPct))
	}

	open := make(map[string]bool)
	for _, t := range s.doc.PaperTrades {
		if !t.IsOpen() {
			continue
		}
		if open[t.Token] {
			errs = append(errs, fmt.Errorf("token %s has more than one open position", t.Token))
		}
		open[t.Token] = true
	}

	for k, b := range s.doc.Model.Buckets {
		if b.Wins > b.Count {
			errs = append(errs, fmt.Errorf("bucket %s: wins %d > count %d", k, b.Wins, b.Count))
		}
	}
	if w := s.doc.Model.Weights; !w.Positive() {
		errs = append(errs, fmt.Errorf("weights not all positive: %+v", w))
	}
	if sum := s.doc.Model.Weights.Sum(); math.Abs(sum-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("weights sum %.12f != 1", sum))
	}
	return errors.Join(errs...)
}
