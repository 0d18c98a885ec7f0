package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Naming rewards correctness over speed more heavily than Stroop does.
const (
	namingAccuracyWeight = 0.7
	namingSpeedWeight    = 0.3
)

type NamingTrial struct {
	PromptID       string    `json:"prompt_id"`
	PromptLabel    string    `json:"prompt_label"`
	DisplayedAt    time.Time `json:"displayed_at"`
	SubmittedAt    time.Time `json:"submitted_at"`
	ResponseTimeMs *float64  `json:"response_time_ms"`
	Answer         string    `json:"answer"`
	Correct        bool      `json:"correct"`
	HintUsed       bool      `json:"hint_used"`
}

type NamingPayload struct {
	Trials   []NamingTrial  `json:"trials"`
	Settings map[string]any `json:"settings,omitempty"`
}

func (*NamingPayload) Game() GameKey { return GameNaming }

type NamingMetrics struct {
	AccuracyPct         float64      `json:"accuracy_pct"`
	MedianRTMs          float64      `json:"median_rt_ms"`
	AccuracyScore       float64      `json:"accuracy_score"`
	SpeedScore          float64      `json:"speed_score"`
	NamingScore         float64      `json:"naming_score"`
	TrafficLight        TrafficLight `json:"traffic_light"`
	Trend               Trend        `json:"trend"`
	BaselineAccuracyPct *float64     `json:"baseline_accuracy_pct"`
	BaselineMedianRTMs  *float64     `json:"baseline_median_rt_ms"`
}

func (m *NamingMetrics) Composite() float64  { return m.NamingScore }
func (m *NamingMetrics) Light() TrafficLight { return m.TrafficLight }
func (m *NamingMetrics) CurrentTrend() Trend { return m.Trend }
func (m *NamingMetrics) ApplyTrend(t Trend)  { m.Trend = t }

type NamingBaseline struct {
	AccuracyPct float64        `json:"accuracy_pct"`
	MedianRTMs  float64        `json:"median_rt_ms"`
	Sessions    int            `json:"sessions"`
	Status      BaselineStatus `json:"status"`
}

func (b *NamingBaseline) BaselineStatus() BaselineStatus { return b.Status }

type namingCalculator struct {
	cfg Config
}

func (c *namingCalculator) Key() GameKey { return GameNaming }

func (c *namingCalculator) Normalize(sub Submission) (Payload, error) {
	if len(sub.Trials) == 0 {
		return nil, ErrNoTrials
	}
	now := sub.now()
	trials := make([]NamingTrial, 0, len(sub.Trials))
	for _, raw := range sub.Trials {
		trials = append(trials, NamingTrial{
			PromptID:       coerceString(raw["prompt_id"]),
			PromptLabel:    coerceString(raw["prompt_label"]),
			DisplayedAt:    ParseTime(raw["displayed_at"], now),
			SubmittedAt:    ParseTime(raw["submitted_at"], now),
			ResponseTimeMs: coerceFloat(raw["response_time_ms"]),
			Answer:         coerceString(raw["answer"]),
			Correct:        coerceBool(raw["correct"]),
			HintUsed:       coerceBool(raw["hint_used"]),
		})
	}
	return &NamingPayload{Trials: trials, Settings: sub.Settings}, nil
}

func (c *namingCalculator) DeriveBaseline(history []GameMetrics) Baseline {
	if len(history) == 0 {
		return nil
	}
	window := history
	if len(window) > c.cfg.BaselineWindow {
		window = window[len(window)-c.cfg.BaselineWindow:]
	}
	var accuracy, median []float64
	for _, m := range window {
		nm, ok := m.(*NamingMetrics)
		if !ok {
			continue
		}
		accuracy = append(accuracy, nm.AccuracyPct)
		median = append(median, nm.MedianRTMs)
	}
	status := BaselineBuilding
	if len(window) == c.cfg.BaselineWindow {
		status = BaselineReady
	}
	return &NamingBaseline{
		AccuracyPct: Average(accuracy),
		MedianRTMs:  Average(median),
		Sessions:    len(window),
		Status:      status,
	}
}

func (c *namingCalculator) Compute(p Payload, base Baseline) (GameMetrics, error) {
	payload, ok := p.(*NamingPayload)
	if !ok {
		return nil, fmt.Errorf("naming: unexpected payload type %T", p)
	}
	var baseline *NamingBaseline
	if base != nil {
		baseline, ok = base.(*NamingBaseline)
		if !ok {
			return nil, fmt.Errorf("naming: unexpected baseline type %T", base)
		}
	}

	var correct float64
	var rts []float64
	for _, trial := range payload.Trials {
		if trial.Correct {
			correct++
		}
		if trial.ResponseTimeMs != nil {
			rts = append(rts, *trial.ResponseTimeMs)
		}
	}
	accuracy := Percent(correct, float64(len(payload.Trials)))
	medianRT := Median(rts)

	accuracyScore := 100.0
	if baseline != nil && baseline.AccuracyPct > 0 {
		accuracyScore = Clamp(accuracy/baseline.AccuracyPct*100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
	}
	speedScore := 100.0
	if baseline != nil && baseline.MedianRTMs > 0 && medianRT > 0 {
		speedScore = Clamp(baseline.MedianRTMs/medianRT*100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
	}

	metrics := &NamingMetrics{
		AccuracyPct:   accuracy,
		MedianRTMs:    medianRT,
		AccuracyScore: accuracyScore,
		SpeedScore:    speedScore,
		NamingScore:   Round2(namingAccuracyWeight*accuracyScore + namingSpeedWeight*speedScore),
		TrafficLight:  LightYellow,
		Trend:         TrendFlat,
	}
	if baseline != nil {
		accPct := baseline.AccuracyPct
		medRT := baseline.MedianRTMs
		metrics.BaselineAccuracyPct = &accPct
		metrics.BaselineMedianRTMs = &medRT
	}

	if baseline != nil && baseline.Status == BaselineReady {
		switch {
		case accuracyScore >= c.cfg.GreenScoreMin && speedScore >= c.cfg.GreenScoreMin:
			metrics.TrafficLight = LightGreen
		case accuracyScore >= c.cfg.NamingYellowMin:
			metrics.TrafficLight = LightYellow
		default:
			metrics.TrafficLight = LightRed
		}
	}
	return metrics, nil
}

func (c *namingCalculator) DecodeMetrics(raw []byte) (GameMetrics, error) {
	var m NamingMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("naming: decode metrics: %w", err)
	}
	return &m, nil
}
