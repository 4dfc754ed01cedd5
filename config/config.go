package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/memegate/internal/application/engine/live"
	"github.com/alejandrodnm/memegate/internal/application/engine/paper"
	"github.com/alejandrodnm/memegate/internal/application/scanner"
	"github.com/alejandrodnm/memegate/internal/domain"
	"github.com/alejandrodnm/memegate/internal/state"
)

// Config es la configuración completa del scanner.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Filter  FilterConfig  `yaml:"filter"`
	Paper   PaperConfig   `yaml:"paper"`
	Model   ModelConfig   `yaml:"model"`
	Gate    GateConfig    `yaml:"gate"`
	Live    LiveConfig    `yaml:"live"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el loop de escaneo.
type ScannerConfig struct {
	Chain                  string `yaml:"chain"`
	IntervalSeconds        int    `yaml:"interval_seconds"`
	SnapshotWorkers        int    `yaml:"snapshot_workers"`
	MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
	StopFile               string `yaml:"stop_file"`
}

// FilterConfig son los umbrales duros de descubrimiento. 0 desactiva el filtro.
type FilterConfig struct {
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MaxAgeMinutes   float64 `yaml:"max_age_minutes"`
	MinVolume1h     float64 `yaml:"min_volume_1h"`
	MinLiqToMcap    float64 `yaml:"min_liq_to_mcap"`
}

// PaperConfig controla apertura y salida de posiciones simuladas.
type PaperConfig struct {
	MaxOpen                int     `yaml:"max_open"`
	MinScore               float64 `yaml:"min_score"`
	ReentryCooldownMinutes int     `yaml:"reentry_cooldown_minutes"`
	StopLossPct            float64 `yaml:"stop_loss_pct"` // negativo
	TakeProfitPct          float64 `yaml:"take_profit_pct"`
	TrailActivatePct       float64 `yaml:"trail_activate_pct"`
	TrailDropPct           float64 `yaml:"trail_drop_pct"`
	MaxHoldMinutes         float64 `yaml:"max_hold_minutes"`
}

// ModelConfig expone las constantes empíricas del scoring y del learner.
type ModelConfig struct {
	LearnRate       float64 `yaml:"learn_rate"`
	AccelStep       float64 `yaml:"accel_step"`
	AgeStep         float64 `yaml:"age_step"`
	LiquidityStep   float64 `yaml:"liquidity_step"`
	BuyPressureStep float64 `yaml:"buy_pressure_step"`
	WeightFloor     float64 `yaml:"weight_floor"`
	EdgeMinSamples  int     `yaml:"edge_min_samples"`
	EdgeReturnScale float64 `yaml:"edge_return_scale"`
	EdgeClamp       float64 `yaml:"edge_clamp"`
	EdgeBlend       float64 `yaml:"edge_blend"`
}

// GateConfig son los umbrales paper que habilitan live.
type GateConfig struct {
	MinClosed    int     `yaml:"min_closed"`
	MinWinRate   float64 `yaml:"min_win_rate"`
	MinAvgReturn float64 `yaml:"min_avg_return"`
}

// LiveConfig controla la ejecución real. Enabled y Mirror vienen normalmente del entorno.
type LiveConfig struct {
	Enabled              bool    `yaml:"enabled"`
	Mirror               bool    `yaml:"mirror"`
	DryRun               bool    `yaml:"dry_run"`
	SizeUSD              float64 `yaml:"size_usd"`
	SlippageBps          int     `yaml:"slippage_bps"`
	MaxDailyLossUSD      float64 `yaml:"max_daily_loss_usd"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses"`
	MaxOpenPositions     int     `yaml:"max_open_positions"`
	ExecutorURL          string  `yaml:"executor_url"`
	ExecutorToken        string  `yaml:"-"` // solo desde SWAP_EXECUTOR_TOKEN
}

// APIConfig contiene los base URLs y las queries de descubrimiento.
type APIConfig struct {
	DexScreenerBase string   `yaml:"dexscreener_base"`
	SearchQueries   []string `yaml:"search_queries"`
	TelegramBase    string   `yaml:"telegram_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	StatePath string `yaml:"state_path"` // documento JSON autoritativo
	DSN       string `yaml:"dsn"`        // journal SQLite, o ":memory:"
}

// NotifyConfig controla las salidas de cada ciclo.
type NotifyConfig struct {
	Table            bool   `yaml:"table"`
	Top              int    `yaml:"top"`
	TelegramBotToken string `yaml:"-"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	OnlyActivity     bool   `yaml:"only_activity"` // Telegram solo si hubo aperturas/cierres
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse aplica YAML, overrides de entorno y defaults, y valida el resultado.
func Parse(data []byte) (*Config, error) {
	cfg := prefilled()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.Storage.StatePath = v
	}
	if v := os.Getenv("SWAP_EXECUTOR_URL"); v != "" {
		cfg.Live.ExecutorURL = v
	}
	if v := os.Getenv("SWAP_EXECUTOR_TOKEN"); v != "" {
		cfg.Live.ExecutorToken = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.TelegramBotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.TelegramChatID = v
	}
	for name, dst := range map[string]*bool{
		"LIVE_TRADING_ENABLED": &cfg.Live.Enabled,
		"LIVE_MIRROR":          &cfg.Live.Mirror,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config.Load: %s=%q: %w", name, v, err)
		}
		*dst = b
	}
	return nil
}

// prefilled devuelve la config con los defaults de las secciones donde 0 es un
// valor válido (filtro, salidas, modelo, gate). El YAML solo pisa las keys presentes,
// así que un 0 explícito se respeta: desactiva un filtro o anula un término.
func prefilled() Config {
	f := scanner.DefaultFilterConfig()
	exit := domain.DefaultExitConfig()
	m := domain.DefaultModelConfig()
	g := domain.DefaultGateConfig()
	return Config{
		Filter: FilterConfig{
			MinLiquidityUSD: f.MinLiquidityUSD,
			MaxAgeMinutes:   f.MaxAgeMinutes,
			MinVolume1h:     f.MinVolume1h,
			MinLiqToMcap:    f.MinLiqToMcap,
		},
		Paper: PaperConfig{
			StopLossPct:      exit.StopLossPct,
			TakeProfitPct:    exit.TakeProfitPct,
			TrailActivatePct: exit.TrailActivatePct,
			TrailDropPct:     exit.TrailDropPct,
			MaxHoldMinutes:   exit.MaxHoldMinutes,
		},
		Model: ModelConfig{
			LearnRate:       m.LearnRate,
			AccelStep:       m.AccelStep,
			AgeStep:         m.AgeStep,
			LiquidityStep:   m.LiquidityStep,
			BuyPressureStep: m.BuyPressureStep,
			WeightFloor:     m.WeightFloor,
			EdgeMinSamples:  m.EdgeMinSamples,
			EdgeReturnScale: m.EdgeReturnScale,
			EdgeClamp:       m.EdgeClamp,
			EdgeBlend:       m.EdgeBlend,
		},
		Gate: GateConfig{
			MinClosed:    g.MinClosed,
			MinWinRate:   g.MinWinRate,
			MinAvgReturn: g.MinAvgReturn,
		},
	}
}

// setDefaults rellena los valores donde 0 o vacío no tienen sentido.
func setDefaults(cfg *Config) {
	if cfg.Scanner.Chain == "" {
		cfg.Scanner.Chain = "solana"
	}
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.SnapshotWorkers <= 0 {
		cfg.Scanner.SnapshotWorkers = 4
	}
	if cfg.Scanner.MaxConsecutiveFailures <= 0 {
		cfg.Scanner.MaxConsecutiveFailures = 5
	}
	if cfg.Scanner.StopFile == "" {
		cfg.Scanner.StopFile = "STOP"
	}

	if cfg.Paper.MaxOpen <= 0 {
		cfg.Paper.MaxOpen = paper.DefaultMaxOpen
	}
	if cfg.Paper.ReentryCooldownMinutes <= 0 {
		cfg.Paper.ReentryCooldownMinutes = int(paper.DefaultReentryCooldown / time.Minute)
	}
	if cfg.Model.EdgeMinSamples <= 0 {
		cfg.Model.EdgeMinSamples = domain.DefaultModelConfig().EdgeMinSamples
	}
	if cfg.Gate.MinClosed <= 0 {
		cfg.Gate.MinClosed = domain.DefaultGateConfig().MinClosed
	}

	if cfg.Live.SizeUSD <= 0 {
		cfg.Live.SizeUSD = 25
	}
	if cfg.Live.SlippageBps <= 0 {
		cfg.Live.SlippageBps = 300
	}

	if len(cfg.API.SearchQueries) == 0 {
		cfg.API.SearchQueries = []string{"solana", "pump", "raydium"}
	}
	if cfg.Notify.Top <= 0 {
		cfg.Notify.Top = 10
	}
	if cfg.Storage.StatePath == "" {
		cfg.Storage.StatePath = "data/state.json"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/memegate.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate rechaza combinaciones inconsistentes. Main lo trata como fatal.
func (c *Config) Validate() error {
	var errs []error
	if c.Paper.StopLossPct >= 0 {
		errs = append(errs, fmt.Errorf("paper.stop_loss_pct must be negative, got %v", c.Paper.StopLossPct))
	}
	if c.Paper.TakeProfitPct <= 0 {
		errs = append(errs, fmt.Errorf("paper.take_profit_pct must be > 0, got %v", c.Paper.TakeProfitPct))
	}
	if c.Paper.TrailActivatePct <= 0 {
		errs = append(errs, fmt.Errorf("paper.trail_activate_pct must be > 0, got %v", c.Paper.TrailActivatePct))
	}
	if c.Paper.TrailDropPct <= 0 {
		errs = append(errs, fmt.Errorf("paper.trail_drop_pct must be > 0, got %v", c.Paper.TrailDropPct))
	}
	if c.Paper.MaxHoldMinutes <= 0 {
		errs = append(errs, fmt.Errorf("paper.max_hold_minutes must be > 0, got %v", c.Paper.MaxHoldMinutes))
	}
	for name, v := range map[string]float64{
		"filter.min_liquidity_usd": c.Filter.MinLiquidityUSD,
		"filter.max_age_minutes":   c.Filter.MaxAgeMinutes,
		"filter.min_volume_1h":     c.Filter.MinVolume1h,
		"filter.min_liq_to_mcap":   c.Filter.MinLiqToMcap,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, v))
		}
	}
	if c.Model.LearnRate < 0 || c.Model.WeightFloor <= 0 || c.Model.WeightFloor >= 0.25 {
		errs = append(errs, fmt.Errorf("model: learn_rate must be >= 0 and weight_floor in (0, 0.25)"))
	}
	if c.Model.EdgeClamp <= 0 || c.Model.EdgeReturnScale <= 0 {
		errs = append(errs, fmt.Errorf("model: edge_clamp and edge_return_scale must be > 0"))
	}
	if c.Gate.MinWinRate < 0 || c.Gate.MinWinRate > 1 {
		errs = append(errs, fmt.Errorf("gate.min_win_rate must be in [0,1], got %v", c.Gate.MinWinRate))
	}
	if c.Live.Enabled && !c.Live.DryRun && c.Live.ExecutorURL == "" {
		errs = append(errs, errors.New("live.enabled requires live.executor_url (or SWAP_EXECUTOR_URL) unless live.dry_run"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// --- Mappers hacia los paquetes de aplicación ---

// StateConfig devuelve los parámetros del modelo y del gate para el State Store.
func (c *Config) StateConfig() state.Config {
	m := c.Model
	return state.Config{
		Model: domain.ModelConfig{
			LearnRate:       m.LearnRate,
			AccelStep:       m.AccelStep,
			AgeStep:         m.AgeStep,
			LiquidityStep:   m.LiquidityStep,
			BuyPressureStep: m.BuyPressureStep,
			WeightFloor:     m.WeightFloor,
			EdgeMinSamples:  m.EdgeMinSamples,
			EdgeReturnScale: m.EdgeReturnScale,
			EdgeClamp:       m.EdgeClamp,
			EdgeBlend:       m.EdgeBlend,
		},
		Gate: domain.GateConfig{
			MinClosed:    c.Gate.MinClosed,
			MinWinRate:   c.Gate.MinWinRate,
			MinAvgReturn: c.Gate.MinAvgReturn,
		},
	}
}

// PaperEngineConfig devuelve la configuración del paper engine.
func (c *Config) PaperEngineConfig() paper.Config {
	p := c.Paper
	return paper.Config{
		MaxOpen:         p.MaxOpen,
		MinScore:        p.MinScore,
		ReentryCooldown: time.Duration(p.ReentryCooldownMinutes) * time.Minute,
		Exit: domain.ExitConfig{
			StopLossPct:      p.StopLossPct,
			TakeProfitPct:    p.TakeProfitPct,
			TrailActivatePct: p.TrailActivatePct,
			TrailDropPct:     p.TrailDropPct,
			MaxHoldMinutes:   p.MaxHoldMinutes,
		},
	}
}

// LiveEngineConfig devuelve la configuración del live engine.
func (c *Config) LiveEngineConfig() live.Config {
	l := c.Live
	return live.Config{
		Enabled:              l.Enabled,
		Mirror:               l.Mirror,
		SizeUSD:              l.SizeUSD,
		MaxDailyLossUSD:      l.MaxDailyLossUSD,
		MaxConsecutiveLosses: l.MaxConsecutiveLosses,
		MaxOpenPositions:     l.MaxOpenPositions,
	}
}

// LoopConfig devuelve la configuración del loop de escaneo.
func (c *Config) LoopConfig(once bool) scanner.Config {
	return scanner.Config{
		Chain:        c.Scanner.Chain,
		ScanInterval: c.ScanInterval(),
		Filter: scanner.FilterConfig{
			MinLiquidityUSD: c.Filter.MinLiquidityUSD,
			MaxAgeMinutes:   c.Filter.MaxAgeMinutes,
			MinVolume1h:     c.Filter.MinVolume1h,
			MinLiqToMcap:    c.Filter.MinLiqToMcap,
		},
		SnapshotWorkers:        c.Scanner.SnapshotWorkers,
		MaxConsecutiveFailures: c.Scanner.MaxConsecutiveFailures,
		StopFile:               c.Scanner.StopFile,
		Once:                   once,
	}
}
