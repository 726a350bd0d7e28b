package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/levels"
	"github.com/jackleZac/trading-algorithm/internal/session"
)

// LevelSource configures one timeframe feeding the level aggregator. An
// empty Timeframe reads the base series.
type LevelSource struct {
	Timeframe string `toml:"timeframe" yaml:"timeframe"`
	Period    int    `toml:"period" yaml:"period"`
}

// BreakoutParams configures the triangle breakout with martingale layering.
type BreakoutParams struct {
	BaseLayerSize        float64        `toml:"base_layer_size" yaml:"base_layer_size"`
	MaxLayers            int            `toml:"max_layers" yaml:"max_layers"`
	SLPips               float64        `toml:"sl_pips" yaml:"sl_pips"`
	TPPips               float64        `toml:"tp_pips" yaml:"tp_pips"`
	MartingaleMultiplier float64        `toml:"martingale_multiplier" yaml:"martingale_multiplier"`
	VolatilityThreshold  float64        `toml:"volatility_threshold" yaml:"volatility_threshold"`
	VolatilityPeriod     int            `toml:"volatility_period" yaml:"volatility_period"`
	BreakoutBuffer       float64        `toml:"breakout_buffer" yaml:"breakout_buffer"`
	TriangleLookback     int            `toml:"triangle_lookback" yaml:"triangle_lookback"`
	Sessions             []session.Band `toml:"sessions" yaml:"sessions"`
}

// SRTrendParams configures the multi-timeframe S/R strategy with EMA trend
// and engulfing confirmation.
type SRTrendParams struct {
	LayerSize          float64        `toml:"layer_size" yaml:"layer_size"`
	MaxLayers          int            `toml:"max_layers" yaml:"max_layers"`
	SLPips             float64        `toml:"sl_pips" yaml:"sl_pips"`
	TPPips             float64        `toml:"tp_pips" yaml:"tp_pips"`
	EMAFast            int            `toml:"ema_fast" yaml:"ema_fast"`
	EMASlow            int            `toml:"ema_slow" yaml:"ema_slow"`
	ProximityTolerance float64        `toml:"proximity_tolerance" yaml:"proximity_tolerance"`
	Levels             []LevelSource  `toml:"levels" yaml:"levels"`
	Sessions           []session.Band `toml:"sessions" yaml:"sessions"`
}

// DualModeParams configures the ATR-filtered breakout and bounce strategy.
type DualModeParams struct {
	LayerSize          float64        `toml:"layer_size" yaml:"layer_size"`
	MaxLayers          int            `toml:"max_layers" yaml:"max_layers"`
	SLPips             float64        `toml:"sl_pips" yaml:"sl_pips"`
	TPPips             float64        `toml:"tp_pips" yaml:"tp_pips"`
	ATRPeriod          int            `toml:"atr_period" yaml:"atr_period"`
	ATRMultiplier      float64        `toml:"atr_multiplier" yaml:"atr_multiplier"`
	BreakoutBuffer     float64        `toml:"breakout_buffer" yaml:"breakout_buffer"`
	ProximityTolerance float64        `toml:"proximity_tolerance" yaml:"proximity_tolerance"`
	Levels             []LevelSource  `toml:"levels" yaml:"levels"`
	Sessions           []session.Band `toml:"sessions" yaml:"sessions"`
}

// MASRParams configures the moving average and previous-bar S/R strategy.
type MASRParams struct {
	Size      float64        `toml:"size" yaml:"size"`
	MAPeriod  int            `toml:"ma_period" yaml:"ma_period"`
	SRPeriod  int            `toml:"sr_period" yaml:"sr_period"`
	ATRPeriod int            `toml:"atr_period" yaml:"atr_period"`
	SLMult    float64        `toml:"sl_mult" yaml:"sl_mult"`
	TPMult    float64        `toml:"tp_mult" yaml:"tp_mult"`
	Sessions  []session.Band `toml:"sessions" yaml:"sessions"`
}

// EMABollingerParams configures the EMA crossover with Bollinger band filter.
type EMABollingerParams struct {
	Size     float64 `toml:"size" yaml:"size"`
	EMAFast  int     `toml:"ema_fast" yaml:"ema_fast"`
	EMASlow  int     `toml:"ema_slow" yaml:"ema_slow"`
	BBPeriod int     `toml:"bb_period" yaml:"bb_period"`
	BBDev    float64 `toml:"bb_dev" yaml:"bb_dev"`
}

// Params groups the parameters of every variant.
type Params struct {
	Breakout     BreakoutParams     `toml:"breakout" yaml:"breakout"`
	SRTrend      SRTrendParams      `toml:"sr_trend" yaml:"sr_trend"`
	DualMode     DualModeParams     `toml:"dual_mode" yaml:"dual_mode"`
	MASR         MASRParams         `toml:"ma_sr" yaml:"ma_sr"`
	EMABollinger EMABollingerParams `toml:"ema_bollinger" yaml:"ema_bollinger"`
}

// DefaultParams returns the stock parameters for every variant.
func DefaultParams() Params {
	return Params{
		Breakout: BreakoutParams{
			BaseLayerSize:        0.01,
			MaxLayers:            5,
			SLPips:               0.50,
			TPPips:               1.00,
			MartingaleMultiplier: 2,
			VolatilityThreshold:  0.05,
			VolatilityPeriod:     20,
			BreakoutBuffer:       0.10,
			TriangleLookback:     30,
			Sessions:             []session.Band{session.LondonNewYork, session.London},
		},
		SRTrend: SRTrendParams{
			LayerSize:          0.01,
			MaxLayers:          3,
			SLPips:             0.50,
			TPPips:             1.00,
			EMAFast:            20,
			EMASlow:            50,
			ProximityTolerance: 0.20,
			Levels:             []LevelSource{{Period: 80}, {Timeframe: "1h", Period: 20}},
			Sessions:           []session.Band{{Start: 8, End: 17}},
		},
		DualMode: DualModeParams{
			LayerSize:          0.01,
			MaxLayers:          3,
			SLPips:             0.50,
			TPPips:             1.00,
			ATRPeriod:          14,
			ATRMultiplier:      0.10,
			BreakoutBuffer:     0.10,
			ProximityTolerance: 0.20,
			Levels:             []LevelSource{{Period: 80}},
			Sessions:           []session.Band{{Start: 8, End: 17}},
		},
		MASR: MASRParams{
			Size:      1,
			MAPeriod:  50,
			SRPeriod:  20,
			ATRPeriod: 14,
			SLMult:    1.5,
			TPMult:    3.0,
		},
		EMABollinger: EMABollingerParams{
			Size:     100,
			EMAFast:  20,
			EMASlow:  50,
			BBPeriod: 20,
			BBDev:    2.0,
		},
	}
}

// LevelSpecs converts configured sources into aggregator specs.
func LevelSpecs(sources []LevelSource) ([]levels.Spec, error) {
	specs := make([]levels.Spec, 0, len(sources))
	for _, src := range sources {
		var tf time.Duration
		if src.Timeframe != "" {
			d, err := time.ParseDuration(src.Timeframe)
			if err != nil {
				return nil, fmt.Errorf("level timeframe %q: %w", src.Timeframe, err)
			}
			tf = d
		}
		specs = append(specs, levels.Spec{Timeframe: tf, Period: src.Period})
	}
	return specs, nil
}

func validateSessions(prefix string, bands []session.Band) []error {
	var errs []error
	for i, b := range bands {
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.sessions[%d]: %w", prefix, i, err))
		}
	}
	return errs
}

func validateLevels(prefix string, sources []LevelSource) []error {
	var errs []error
	if len(sources) == 0 {
		errs = append(errs, fmt.Errorf("%s.levels must not be empty", prefix))
	}
	for i, src := range sources {
		if src.Period < 1 {
			errs = append(errs, fmt.Errorf("%s.levels[%d].period must be positive", prefix, i))
		}
		if src.Timeframe != "" {
			if d, err := time.ParseDuration(src.Timeframe); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("%s.levels[%d].timeframe %q is not a positive duration", prefix, i, src.Timeframe))
			}
		}
	}
	return errs
}

func positive(errs []error, name string, v float64) []error {
	if v <= 0 {
		return append(errs, fmt.Errorf("%s must be positive", name))
	}
	return errs
}

// Validate checks the breakout parameters.
func (p BreakoutParams) Validate() error {
	var errs []error
	errs = positive(errs, "breakout.base_layer_size", p.BaseLayerSize)
	errs = positive(errs, "breakout.max_layers", float64(p.MaxLayers))
	errs = positive(errs, "breakout.sl_pips", p.SLPips)
	errs = positive(errs, "breakout.tp_pips", p.TPPips)
	if p.MartingaleMultiplier < 1 {
		errs = append(errs, errors.New("breakout.martingale_multiplier must be at least 1"))
	}
	errs = positive(errs, "breakout.volatility_period", float64(p.VolatilityPeriod))
	if p.TriangleLookback < 2 {
		errs = append(errs, errors.New("breakout.triangle_lookback must be at least 2"))
	}
	if p.BreakoutBuffer < 0 {
		errs = append(errs, errors.New("breakout.breakout_buffer must not be negative"))
	}
	errs = append(errs, validateSessions("breakout", p.Sessions)...)
	return errors.Join(errs...)
}

// Validate checks the sr_trend parameters.
func (p SRTrendParams) Validate() error {
	var errs []error
	errs = positive(errs, "sr_trend.layer_size", p.LayerSize)
	errs = positive(errs, "sr_trend.max_layers", float64(p.MaxLayers))
	errs = positive(errs, "sr_trend.sl_pips", p.SLPips)
	errs = positive(errs, "sr_trend.tp_pips", p.TPPips)
	errs = positive(errs, "sr_trend.ema_fast", float64(p.EMAFast))
	errs = positive(errs, "sr_trend.ema_slow", float64(p.EMASlow))
	if p.EMAFast >= p.EMASlow {
		errs = append(errs, errors.New("sr_trend.ema_fast must be shorter than ema_slow"))
	}
	if p.ProximityTolerance < 0 {
		errs = append(errs, errors.New("sr_trend.proximity_tolerance must not be negative"))
	}
	errs = append(errs, validateLevels("sr_trend", p.Levels)...)
	errs = append(errs, validateSessions("sr_trend", p.Sessions)...)
	return errors.Join(errs...)
}

// Validate checks the dual_mode parameters.
func (p DualModeParams) Validate() error {
	var errs []error
	errs = positive(errs, "dual_mode.layer_size", p.LayerSize)
	errs = positive(errs, "dual_mode.max_layers", float64(p.MaxLayers))
	errs = positive(errs, "dual_mode.sl_pips", p.SLPips)
	errs = positive(errs, "dual_mode.tp_pips", p.TPPips)
	errs = positive(errs, "dual_mode.atr_period", float64(p.ATRPeriod))
	if p.ATRMultiplier < 0 {
		errs = append(errs, errors.New("dual_mode.atr_multiplier must not be negative"))
	}
	if p.BreakoutBuffer < 0 || p.ProximityTolerance < 0 {
		errs = append(errs, errors.New("dual_mode buffers must not be negative"))
	}
	errs = append(errs, validateLevels("dual_mode", p.Levels)...)
	errs = append(errs, validateSessions("dual_mode", p.Sessions)...)
	return errors.Join(errs...)
}

// Validate checks the ma_sr parameters.
func (p MASRParams) Validate() error {
	var errs []error
	errs = positive(errs, "ma_sr.size", p.Size)
	errs = positive(errs, "ma_sr.ma_period", float64(p.MAPeriod))
	errs = positive(errs, "ma_sr.sr_period", float64(p.SRPeriod))
	errs = positive(errs, "ma_sr.atr_period", float64(p.ATRPeriod))
	errs = positive(errs, "ma_sr.sl_mult", p.SLMult)
	errs = positive(errs, "ma_sr.tp_mult", p.TPMult)
	errs = append(errs, validateSessions("ma_sr", p.Sessions)...)
	return errors.Join(errs...)
}

// Validate checks the ema_bollinger parameters.
func (p EMABollingerParams) Validate() error {
	var errs []error
	errs = positive(errs, "ema_bollinger.size", p.Size)
	errs = positive(errs, "ema_bollinger.ema_fast", float64(p.EMAFast))
	errs = positive(errs, "ema_bollinger.ema_slow", float64(p.EMASlow))
	errs = positive(errs, "ema_bollinger.bb_period", float64(p.BBPeriod))
	errs = positive(errs, "ema_bollinger.bb_dev", p.BBDev)
	return errors.Join(errs...)
}

// Validate checks the parameters of the named variants.
func (p Params) Validate(names []string) []error {
	var errs []error
	for _, name := range names {
		var err error
		switch name {
		case NameBreakout:
			err = p.Breakout.Validate()
		case NameSRTrend:
			err = p.SRTrend.Validate()
		case NameDualMode:
			err = p.DualMode.Validate()
		case NameMASR:
			err = p.MASR.Validate()
		case NameEMABollinger:
			err = p.EMABollinger.Validate()
		default:
			err = fmt.Errorf("strategy %q is not registered", name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// MaxWindow returns the longest lookback any of the named variants reads from
// the base series.
func (p Params) MaxWindow(names []string) int {
	n := 0
	for _, name := range names {
		switch name {
		case NameBreakout:
			n = max(n, p.Breakout.TriangleLookback+1, p.Breakout.VolatilityPeriod)
		case NameSRTrend:
			n = max(n, p.SRTrend.EMASlow)
			for _, l := range p.SRTrend.Levels {
				n = max(n, l.Period)
			}
		case NameDualMode:
			n = max(n, p.DualMode.ATRPeriod+1)
			for _, l := range p.DualMode.Levels {
				n = max(n, l.Period)
			}
		case NameMASR:
			n = max(n, p.MASR.MAPeriod, p.MASR.SRPeriod+1, p.MASR.ATRPeriod+1)
		case NameEMABollinger:
			n = max(n, p.EMABollinger.EMASlow, p.EMABollinger.BBPeriod)
		}
	}
	return n
}
