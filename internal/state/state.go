package state

// state.go: documento persistido del bot.
//
// Un único documento tipado y versionado. Decode parte de los defaults y
// superpone el JSON: las keys que falten (documentos de versiones anteriores)
// se rellenan con el default sin perder los datos existentes.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/memegate/internal/domain"
)

// Version es la versión del schema que este binario escribe.
const Version = 1

// ErrUnsupportedVersion se devuelve al cargar un documento de una versión futura.
var ErrUnsupportedVersion = errors.New("unsupported state version")

// Stats agrupa los contadores agregados por clase de trade.
type Stats struct {
	Paper domain.TradeStats `json:"paper"`
	Live  domain.TradeStats `json:"live"`
}

// State es todo el estado mutable persistido entre ciclos.
type State struct {
	Version     int                  `json:"version"`
	ScanCount   int                  `json:"scan_count"`
	PaperTrades []*domain.PaperTrade `json:"paper_trades"`
	LiveTrades  []*domain.LiveTrade  `json:"live_trades"`
	Blacklist   map[string]string    `json:"blacklist"` // token → motivo
	Cooldowns   map[string]int64     `json:"cooldowns"` // key → unix expiry
	Model       domain.Model         `json:"model"`
	Stats       Stats                `json:"stats"`
	Gate        domain.GateVerdict   `json:"live_gate"`
	LiveRisk    domain.LiveRisk      `json:"live_risk"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// New devuelve un documento vacío con todos los defaults.
func New() *State {
	return &State{
		Version:     Version,
		PaperTrades: []*domain.PaperTrade{},
		LiveTrades:  []*domain.LiveTrade{},
		Blacklist:   make(map[string]string),
		Cooldowns:   make(map[string]int64),
		Model:       domain.NewModel(),
		Gate:        domain.GateVerdict{Reason: domain.GateNeedMoreData},
	}
}

// Decode parsea un documento y rellena las keys ausentes con los defaults.
func Decode(data []byte) (*State, error) {
	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("state.Decode: %w", err)
	}
	if st.Version > Version {
		return nil, fmt.Errorf("state.Decode: version %d > %d: %w", st.Version, Version, ErrUnsupportedVersion)
	}
	st.backfill()
	return st, nil
}

// Encode serializa el documento (JSON indentado, legible en un diff de git).
func Encode(st *State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("state.Encode: %w", err)
	}
	return data, nil
}

// backfill repara lo que un JSON parcial o null puede dejar a cero.
func (st *State) backfill() {
	if st.PaperTrades == nil {
		st.PaperTrades = []*domain.PaperTrade{}
	}
	if st.LiveTrades == nil {
		st.LiveTrades = []*domain.LiveTrade{}
	}
	if st.Blacklist == nil {
		st.Blacklist = make(map[string]string)
	}
	if st.Cooldowns == nil {
		st.Cooldowns = make(map[string]int64)
	}
	if st.Model.Buckets == nil {
		st.Model.Buckets = make(map[string]domain.BucketStat)
	}
	// Pesos a cero, negativos o NaN pasan por el floor aunque la suma sea 1
	if sum := st.Model.Weights.Sum(); !(sum > 0) || math.IsInf(sum, 0) {
		st.Model.Weights = domain.DefaultWeights()
	} else if !st.Model.Weights.Positive() || math.Abs(sum-1) > 1e-9 {
		st.Model.Weights.Normalize(domain.DefaultModelConfig().WeightFloor)
	}
	if st.Gate.Reason == "" {
		st.Gate.Reason = domain.GateNeedMoreData
	}
	st.Version = Version
}
