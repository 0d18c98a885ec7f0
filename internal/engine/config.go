package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/mindgarden-backend/internal/logger"
)

// Config carries every tuning constant of the scoring engine. It is built
// once at startup and injected into New; nothing in the engine reads
// globals, so alternate tunings are a construction-time concern.
type Config struct {
	BaselineWindow        int                 `yaml:"baseline_window"`
	TrendWindow           int                 `yaml:"trend_window"`
	TrendUpDelta          float64             `yaml:"trend_up_delta"`
	TrendDownDelta        float64             `yaml:"trend_down_delta"`
	ScoreFloor            float64             `yaml:"score_floor"`
	ScoreCeiling          float64             `yaml:"score_ceiling"`
	GameWeights           map[GameKey]float64 `yaml:"game_weights"`
	RecentSessionLimit    int                 `yaml:"recent_session_limit"`
	CompositeHistoryLimit int                 `yaml:"composite_history_limit"`
	MovingAveragePoints   int                 `yaml:"moving_average_points"`
	ForgettingAlertDelta  float64             `yaml:"forgetting_alert_delta"`
	GreenRatioMin         float64             `yaml:"green_ratio_min"`
	RedRatioMax           float64             `yaml:"red_ratio_max"`
	GreenScoreMin         float64             `yaml:"green_score_min"`
	MemoryYellowMin       float64             `yaml:"memory_yellow_min"`
	NamingYellowMin       float64             `yaml:"naming_yellow_min"`
}

func DefaultConfig() Config {
	return Config{
		BaselineWindow: 3,
		TrendWindow:    3,
		TrendUpDelta:   0.05,
		TrendDownDelta: -0.05,
		ScoreFloor:     60,
		ScoreCeiling:   130,
		GameWeights: map[GameKey]float64{
			GameStroop: 0.4,
			GameMemory: 0.4,
			GameNaming: 0.2,
		},
		RecentSessionLimit:    10,
		CompositeHistoryLimit: 25,
		MovingAveragePoints:   7,
		ForgettingAlertDelta:  20,
		GreenRatioMin:         0.95,
		RedRatioMax:           0.8,
		GreenScoreMin:         95,
		MemoryYellowMin:       75,
		NamingYellowMin:       80,
	}
}

// LoadConfig overlays an optional YAML tuning file onto the defaults. A
// missing or unreadable file keeps the defaults; a present file only needs
// to name the fields it changes.
func LoadConfig(path string, log *logger.Logger) Config {
	cfg := DefaultConfig()
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.Warn("Engine config file not readable, using defaults", "path", path, "error", err)
		}
		return cfg
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		if log != nil {
			log.Warn("Engine config file not parseable, using defaults", "path", path, "error", err)
		}
		return DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		if log != nil {
			log.Warn("Engine config invalid, using defaults", "path", path, "error", err)
		}
		return DefaultConfig()
	}
	if log != nil {
		log.Info("Engine config loaded", "path", path)
	}
	return cfg
}

func (c Config) validate() error {
	if c.BaselineWindow < 1 {
		return fmt.Errorf("baseline_window must be >= 1")
	}
	if c.TrendWindow < 2 {
		return fmt.Errorf("trend_window must be >= 2")
	}
	if c.ScoreFloor >= c.ScoreCeiling {
		return fmt.Errorf("score_floor must be below score_ceiling")
	}
	if len(c.GameWeights) == 0 {
		return fmt.Errorf("game_weights must not be empty")
	}
	for key, w := range c.GameWeights {
		if !key.Valid() {
			return fmt.Errorf("game_weights: unknown game %q", key)
		}
		if w <= 0 {
			return fmt.Errorf("game_weights: weight for %q must be positive", key)
		}
	}
	return nil
}
