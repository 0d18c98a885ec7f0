package engine

import (
	"errors"
	"fmt"
	"time"
)

// The engine is a pure synchronous transform: no I/O, no timers, no
// goroutines. The orchestrating service owns every read and write around it.

type GameKey string

const (
	GameStroop GameKey = "stroop"
	GameMemory GameKey = "memory"
	GameNaming GameKey = "naming"
)

func (k GameKey) Valid() bool {
	switch k {
	case GameStroop, GameMemory, GameNaming:
		return true
	}
	return false
}

func AllGameKeys() []GameKey {
	return []GameKey{GameStroop, GameMemory, GameNaming}
}

func ParseGameKey(s string) (GameKey, error) {
	key := GameKey(s)
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGame, s)
	}
	return key, nil
}

type TrafficLight string

const (
	LightGreen  TrafficLight = "green"
	LightYellow TrafficLight = "yellow"
	LightRed    TrafficLight = "red"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

type BaselineStatus string

const (
	BaselineReady    BaselineStatus = "ready"
	BaselineBuilding BaselineStatus = "building"
)

type Phase string

const (
	PhaseLearning   Phase = "learning"
	PhaseBaseline   Phase = "baseline"
	PhaseProduction Phase = "production"
)

// PhaseForSession derives the informational phase from the 1-based session
// number: 1-2 learning, 3-5 baseline, 6+ production.
func PhaseForSession(sessionNumber int) Phase {
	switch {
	case sessionNumber <= 2:
		return PhaseLearning
	case sessionNumber <= 5:
		return PhaseBaseline
	default:
		return PhaseProduction
	}
}

// Validation sentinels. Missing mandatory game data is a client error the
// orchestrator rejects before any scoring happens.
var (
	ErrUnsupportedGame = errors.New("unsupported game key")
	ErrNoTrials        = errors.New("session has no trials")
	ErrNoAttempts      = errors.New("session has no recall attempts")
	ErrEmptyWordList   = errors.New("session has no word list")
)

func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedGame) ||
		errors.Is(err, ErrNoTrials) ||
		errors.Is(err, ErrNoAttempts) ||
		errors.Is(err, ErrEmptyWordList)
}

// Submission is the raw client payload for one session, before any typing.
// Which of the three collections is mandatory depends on the game.
type Submission struct {
	Trials   []map[string]any
	Attempts []map[string]any
	List     []any
	Settings map[string]any
	Now      time.Time
}

func (s Submission) now() time.Time {
	if s.Now.IsZero() {
		return time.Now().UTC()
	}
	return s.Now
}

// Payload is the canonical, typed form of one game's submission.
type Payload interface {
	Game() GameKey
}

// GameMetrics is the scored record of one session. Trend is attached after
// computation because it needs the composite values of prior sessions.
type GameMetrics interface {
	Composite() float64
	Light() TrafficLight
	CurrentTrend() Trend
	ApplyTrend(Trend)
}

// Baseline is a user's rolling personal reference for one game. A nil
// Baseline means "first-ever session, score against self".
type Baseline interface {
	BaselineStatus() BaselineStatus
}

// Calculator is the per-game capability set. Adding a fourth game means
// adding a variant that implements this and registering it in New.
type Calculator interface {
	Key() GameKey
	Normalize(sub Submission) (Payload, error)
	DeriveBaseline(history []GameMetrics) Baseline
	Compute(p Payload, base Baseline) (GameMetrics, error)
	DecodeMetrics(raw []byte) (GameMetrics, error)
}

type Engine struct {
	cfg   Config
	calcs map[GameKey]Calculator
}

func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		calcs: map[GameKey]Calculator{
			GameStroop: &stroopCalculator{cfg: cfg},
			GameMemory: &memoryCalculator{cfg: cfg},
			GameNaming: &namingCalculator{cfg: cfg},
		},
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Calculator(key GameKey) (Calculator, error) {
	calc, ok := e.calcs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGame, key)
	}
	return calc, nil
}

// ClassifyTrend is a relative-change detector over the trailing window of a
// chronological score series ending in the newest value. It is deliberately
// not a regression slope: short noisy series need something more robust.
func (e *Engine) ClassifyTrend(series []float64) Trend {
	window := series
	if len(window) > e.cfg.TrendWindow {
		window = window[len(window)-e.cfg.TrendWindow:]
	}
	if len(window) < 2 {
		return TrendFlat
	}
	latest := window[len(window)-1]
	rest := Average(window[:len(window)-1])
	if rest == 0 {
		return TrendFlat
	}
	delta := (latest - rest) / rest
	switch {
	case delta >= e.cfg.TrendUpDelta:
		return TrendUp
	case delta <= e.cfg.TrendDownDelta:
		return TrendDown
	default:
		return TrendFlat
	}
}

// CompositeIndex blends the latest per-game scores with the configured
// weights, normalized by the weight mass of the games actually present, so
// a single-game user is not diluted by games they never played. Nil only
// when there is nothing to blend.
func (e *Engine) CompositeIndex(latest map[GameKey]float64) *float64 {
	var sum, mass float64
	for key, score := range latest {
		weight := e.cfg.GameWeights[key]
		if weight <= 0 {
			continue
		}
		sum += weight * score
		mass += weight
	}
	if mass == 0 {
		return nil
	}
	v := Round2(sum / mass)
	return &v
}
