package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	stroopAccuracyWeight = 0.6
	stroopSpeedWeight    = 0.4
)

type StroopTrial struct {
	Word           string    `json:"word"`
	InkColor       string    `json:"ink_color"`
	CorrectColor   string    `json:"correct_color"`
	PresentedAt    time.Time `json:"presented_at"`
	RespondedAt    time.Time `json:"responded_at"`
	ResponseTimeMs *float64  `json:"response_time_ms"`
	SelectedColor  string    `json:"selected_color"`
	Correct        bool      `json:"correct"`
	Congruent      bool      `json:"congruent"`
}

type StroopPayload struct {
	Trials   []StroopTrial  `json:"trials"`
	Settings map[string]any `json:"settings,omitempty"`
}

func (*StroopPayload) Game() GameKey { return GameStroop }

type StroopMetrics struct {
	AccuracyPct           float64      `json:"accuracy_pct"`
	MedianRTMs            float64      `json:"median_rt_ms"`
	CongruentMedianRTMs   float64      `json:"congruent_median_rt_ms"`
	IncongruentMedianRTMs float64      `json:"incongruent_median_rt_ms"`
	InterferenceMs        float64      `json:"interference_ms"`
	AccuracyScore         float64      `json:"accuracy_score"`
	SpeedScore            float64      `json:"speed_score"`
	CompositeScore        float64      `json:"composite_score"`
	TrafficLight          TrafficLight `json:"traffic_light"`
	Trend                 Trend        `json:"trend"`
	BaselineAccuracyPct   *float64     `json:"baseline_accuracy_pct"`
	BaselineMedianRTMs    *float64     `json:"baseline_median_rt_ms"`
}

func (m *StroopMetrics) Composite() float64  { return m.CompositeScore }
func (m *StroopMetrics) Light() TrafficLight { return m.TrafficLight }
func (m *StroopMetrics) CurrentTrend() Trend { return m.Trend }
func (m *StroopMetrics) ApplyTrend(t Trend)  { m.Trend = t }

type StroopBaseline struct {
	AccuracyPct           float64        `json:"accuracy_pct"`
	MedianRTMs            float64        `json:"median_rt_ms"`
	CongruentMedianRTMs   float64        `json:"congruent_median_rt_ms"`
	IncongruentMedianRTMs float64        `json:"incongruent_median_rt_ms"`
	Sessions              int            `json:"sessions"`
	Status                BaselineStatus `json:"status"`
}

func (b *StroopBaseline) BaselineStatus() BaselineStatus { return b.Status }

type stroopCalculator struct {
	cfg Config
}

func (c *stroopCalculator) Key() GameKey { return GameStroop }

func (c *stroopCalculator) Normalize(sub Submission) (Payload, error) {
	if len(sub.Trials) == 0 {
		return nil, ErrNoTrials
	}
	now := sub.now()
	trials := make([]StroopTrial, 0, len(sub.Trials))
	for _, raw := range sub.Trials {
		trials = append(trials, StroopTrial{
			Word:           coerceString(raw["word"]),
			InkColor:       coerceString(raw["ink_color"]),
			CorrectColor:   coerceString(raw["correct_color"]),
			PresentedAt:    ParseTime(raw["presented_at"], now),
			RespondedAt:    ParseTime(raw["responded_at"], now),
			ResponseTimeMs: coerceFloat(raw["response_time_ms"]),
			SelectedColor:  coerceString(raw["selected_color"]),
			Correct:        coerceBool(raw["correct"]),
			Congruent:      coerceBool(raw["congruent"]),
		})
	}
	return &StroopPayload{Trials: trials, Settings: sub.Settings}, nil
}

func (c *stroopCalculator) DeriveBaseline(history []GameMetrics) Baseline {
	if len(history) == 0 {
		return nil
	}
	window := history
	if len(window) > c.cfg.BaselineWindow {
		window = window[len(window)-c.cfg.BaselineWindow:]
	}
	var accuracy, median, congruent, incongruent []float64
	for _, m := range window {
		sm, ok := m.(*StroopMetrics)
		if !ok {
			continue
		}
		accuracy = append(accuracy, sm.AccuracyPct)
		median = append(median, sm.MedianRTMs)
		congruent = append(congruent, sm.CongruentMedianRTMs)
		incongruent = append(incongruent, sm.IncongruentMedianRTMs)
	}
	status := BaselineBuilding
	if len(window) == c.cfg.BaselineWindow {
		status = BaselineReady
	}
	return &StroopBaseline{
		AccuracyPct:           Average(accuracy),
		MedianRTMs:            Average(median),
		CongruentMedianRTMs:   Average(congruent),
		IncongruentMedianRTMs: Average(incongruent),
		Sessions:              len(window),
		Status:                status,
	}
}

func (c *stroopCalculator) Compute(p Payload, base Baseline) (GameMetrics, error) {
	payload, ok := p.(*StroopPayload)
	if !ok {
		return nil, fmt.Errorf("stroop: unexpected payload type %T", p)
	}
	var baseline *StroopBaseline
	if base != nil {
		baseline, ok = base.(*StroopBaseline)
		if !ok {
			return nil, fmt.Errorf("stroop: unexpected baseline type %T", base)
		}
	}

	var correct float64
	var allRTs, congruentRTs, incongruentRTs []float64
	for _, trial := range payload.Trials {
		if trial.Correct {
			correct++
		}
		if trial.ResponseTimeMs == nil {
			continue
		}
		allRTs = append(allRTs, *trial.ResponseTimeMs)
		if trial.Congruent {
			congruentRTs = append(congruentRTs, *trial.ResponseTimeMs)
		} else {
			incongruentRTs = append(incongruentRTs, *trial.ResponseTimeMs)
		}
	}

	accuracy := Percent(correct, float64(len(payload.Trials)))
	medianRT := Median(allRTs)
	congruentMedian := medianRT
	if len(congruentRTs) > 0 {
		congruentMedian = Median(congruentRTs)
	}
	incongruentMedian := medianRT
	if len(incongruentRTs) > 0 {
		incongruentMedian = Median(incongruentRTs)
	}

	accuracyScore := 100.0
	if baseline != nil && baseline.AccuracyPct > 0 {
		accuracyScore = Clamp(accuracy/baseline.AccuracyPct*100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
	}
	speedScore := 100.0
	if baseline != nil && baseline.MedianRTMs > 0 && medianRT > 0 {
		speedScore = Clamp(baseline.MedianRTMs/medianRT*100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
	}
	composite := Round2(stroopAccuracyWeight*accuracyScore + stroopSpeedWeight*speedScore)

	metrics := &StroopMetrics{
		AccuracyPct:           accuracy,
		MedianRTMs:            medianRT,
		CongruentMedianRTMs:   congruentMedian,
		IncongruentMedianRTMs: incongruentMedian,
		// Interference stays unclamped: a negative observed value is real.
		InterferenceMs: incongruentMedian - congruentMedian,
		AccuracyScore:  accuracyScore,
		SpeedScore:     speedScore,
		CompositeScore: composite,
		TrafficLight:   LightYellow,
		Trend:          TrendFlat,
	}
	if baseline != nil {
		accPct := baseline.AccuracyPct
		medRT := baseline.MedianRTMs
		metrics.BaselineAccuracyPct = &accPct
		metrics.BaselineMedianRTMs = &medRT
	}

	// Only a ready baseline is allowed to judge; with insufficient history
	// the light stays yellow regardless of the score.
	if baseline != nil && baseline.Status == BaselineReady {
		accuracyRatio := 1.0
		if baseline.AccuracyPct > 0 {
			accuracyRatio = accuracy / baseline.AccuracyPct
		}
		speedRatio := 1.0
		if baseline.MedianRTMs > 0 && medianRT > 0 {
			speedRatio = baseline.MedianRTMs / medianRT
		}
		switch {
		case accuracyRatio < c.cfg.RedRatioMax || speedRatio < c.cfg.RedRatioMax:
			metrics.TrafficLight = LightRed
		case accuracyRatio >= c.cfg.GreenRatioMin && speedRatio >= c.cfg.GreenRatioMin && composite >= c.cfg.GreenScoreMin:
			metrics.TrafficLight = LightGreen
		default:
			metrics.TrafficLight = LightYellow
		}
	}
	return metrics, nil
}

func (c *stroopCalculator) DecodeMetrics(raw []byte) (GameMetrics, error) {
	var m StroopMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("stroop: decode metrics: %w", err)
	}
	return &m, nil
}
