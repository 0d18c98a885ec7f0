package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MemoryPhaseImmediate = "immediate"
	MemoryPhaseDelayed   = "delayed"
)

type MemoryAttempt struct {
	Phase         string   `json:"phase"`
	Responses     []string `json:"responses"`
	RecalledCount int      `json:"recalled_count"`
}

type MemoryPayload struct {
	List     []string        `json:"list"`
	Attempts []MemoryAttempt `json:"attempts"`
	Settings map[string]any  `json:"settings,omitempty"`
}

func (*MemoryPayload) Game() GameKey { return GameMemory }

type MemoryMetrics struct {
	ImmediateRecallPct   float64      `json:"immediate_recall_pct"`
	DelayedRecallPct     *float64     `json:"delayed_recall_pct"`
	ForgettingRatePct    *float64     `json:"forgetting_rate_pct"`
	ImmediateScore       float64      `json:"immediate_score"`
	DelayedScore         *float64     `json:"delayed_score"`
	MemoryScore          float64      `json:"memory_score"`
	ForgettingFlag       bool         `json:"forgetting_flag"`
	TrafficLight         TrafficLight `json:"traffic_light"`
	Trend                Trend        `json:"trend"`
	BaselineImmediatePct *float64     `json:"baseline_immediate_pct"`
	BaselineDelayedPct   *float64     `json:"baseline_delayed_pct"`
}

func (m *MemoryMetrics) Composite() float64  { return m.MemoryScore }
func (m *MemoryMetrics) Light() TrafficLight { return m.TrafficLight }
func (m *MemoryMetrics) CurrentTrend() Trend { return m.Trend }
func (m *MemoryMetrics) ApplyTrend(t Trend)  { m.Trend = t }

type MemoryBaseline struct {
	ImmediateRecallPct float64        `json:"immediate_recall_pct"`
	DelayedRecallPct   *float64       `json:"delayed_recall_pct"`
	ForgettingRatePct  *float64       `json:"forgetting_rate_pct"`
	Sessions           int            `json:"sessions"`
	Status             BaselineStatus `json:"status"`
}

func (b *MemoryBaseline) BaselineStatus() BaselineStatus { return b.Status }

type memoryCalculator struct {
	cfg Config
}

func (c *memoryCalculator) Key() GameKey { return GameMemory }

func (c *memoryCalculator) Normalize(sub Submission) (Payload, error) {
	list := coerceStringSlice(sub.List)
	if len(list) == 0 {
		return nil, ErrEmptyWordList
	}
	if len(sub.Attempts) == 0 {
		return nil, ErrNoAttempts
	}
	attempts := make([]MemoryAttempt, 0, len(sub.Attempts))
	for _, raw := range sub.Attempts {
		phase := MemoryPhaseImmediate
		if coerceString(raw["phase"]) == MemoryPhaseDelayed {
			phase = MemoryPhaseDelayed
		}
		responses := coerceStringSlice(raw["responses"])
		attempts = append(attempts, MemoryAttempt{
			Phase:         phase,
			Responses:     responses,
			RecalledCount: orderedRecallCount(list, responses),
		})
	}
	return &MemoryPayload{List: list, Attempts: attempts, Settings: sub.Settings}, nil
}

// orderedRecallCount scores recognition of sequence, not set membership: a
// response only counts when it matches the target word at the same
// position, case-insensitively.
func orderedRecallCount(list, responses []string) int {
	count := 0
	for i, response := range responses {
		if i >= len(list) {
			break
		}
		if strings.EqualFold(strings.TrimSpace(response), strings.TrimSpace(list[i])) {
			count++
		}
	}
	return count
}

func (c *memoryCalculator) DeriveBaseline(history []GameMetrics) Baseline {
	if len(history) == 0 {
		return nil
	}
	window := history
	if len(window) > c.cfg.BaselineWindow {
		window = window[len(window)-c.cfg.BaselineWindow:]
	}
	var immediate, delayed, forgetting []float64
	for _, m := range window {
		mm, ok := m.(*MemoryMetrics)
		if !ok {
			continue
		}
		immediate = append(immediate, mm.ImmediateRecallPct)
		// Delayed recall is legitimately absent on sessions that skipped the
		// delayed phase; average only the non-null subset.
		if mm.DelayedRecallPct != nil {
			delayed = append(delayed, *mm.DelayedRecallPct)
		}
		if mm.ForgettingRatePct != nil {
			forgetting = append(forgetting, *mm.ForgettingRatePct)
		}
	}
	status := BaselineBuilding
	if len(window) == c.cfg.BaselineWindow {
		status = BaselineReady
	}
	baseline := &MemoryBaseline{
		ImmediateRecallPct: Average(immediate),
		Sessions:           len(window),
		Status:             status,
	}
	if len(delayed) > 0 {
		avg := Average(delayed)
		baseline.DelayedRecallPct = &avg
	}
	if len(forgetting) > 0 {
		avg := Average(forgetting)
		baseline.ForgettingRatePct = &avg
	}
	return baseline
}

func (c *memoryCalculator) Compute(p Payload, base Baseline) (GameMetrics, error) {
	payload, ok := p.(*MemoryPayload)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected payload type %T", p)
	}
	var baseline *MemoryBaseline
	if base != nil {
		baseline, ok = base.(*MemoryBaseline)
		if !ok {
			return nil, fmt.Errorf("memory: unexpected baseline type %T", base)
		}
	}

	var immediate, delayed *MemoryAttempt
	for i := range payload.Attempts {
		attempt := &payload.Attempts[i]
		switch {
		case attempt.Phase == MemoryPhaseImmediate && immediate == nil:
			immediate = attempt
		case attempt.Phase == MemoryPhaseDelayed && delayed == nil:
			delayed = attempt
		}
	}
	if immediate == nil {
		return nil, ErrNoAttempts
	}

	listLen := float64(len(payload.List))
	immediatePct := Percent(float64(immediate.RecalledCount), listLen)

	metrics := &MemoryMetrics{
		ImmediateRecallPct: immediatePct,
		TrafficLight:       LightYellow,
		Trend:              TrendFlat,
	}

	var delayedPct *float64
	if delayed != nil {
		pct := Percent(float64(delayed.RecalledCount), listLen)
		delayedPct = &pct
		metrics.DelayedRecallPct = &pct
		forgetting := immediatePct - pct
		if forgetting < 0 {
			forgetting = 0
		}
		metrics.ForgettingRatePct = &forgetting
	}

	immediateScore := 100.0
	if baseline != nil && baseline.ImmediateRecallPct > 0 {
		immediateScore = Clamp(immediatePct/baseline.ImmediateRecallPct*100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
	}
	metrics.ImmediateScore = immediateScore

	// The memory score averages the scores that exist for this session; a
	// skipped delayed phase does not get a synthetic neutral entry.
	scoreSum := immediateScore
	scoreCount := 1.0
	if delayedPct != nil {
		delayedScore := 100.0
		if baseline != nil && baseline.DelayedRecallPct != nil && *baseline.DelayedRecallPct > 0 {
			delayedScore = Clamp(*delayedPct / *baseline.DelayedRecallPct * 100, c.cfg.ScoreFloor, c.cfg.ScoreCeiling)
		}
		metrics.DelayedScore = &delayedScore
		scoreSum += delayedScore
		scoreCount++
	}
	metrics.MemoryScore = Round2(scoreSum / scoreCount)

	if baseline != nil {
		immPct := baseline.ImmediateRecallPct
		metrics.BaselineImmediatePct = &immPct
		metrics.BaselineDelayedPct = baseline.DelayedRecallPct
	}

	if baseline != nil && baseline.Status == BaselineReady {
		if baseline.ForgettingRatePct != nil && metrics.ForgettingRatePct != nil &&
			*metrics.ForgettingRatePct-*baseline.ForgettingRatePct > c.cfg.ForgettingAlertDelta {
			metrics.ForgettingFlag = true
		}
		switch {
		case metrics.MemoryScore >= c.cfg.GreenScoreMin:
			metrics.TrafficLight = LightGreen
		case metrics.MemoryScore >= c.cfg.MemoryYellowMin:
			metrics.TrafficLight = LightYellow
		default:
			metrics.TrafficLight = LightRed
		}
	}
	return metrics, nil
}

func (c *memoryCalculator) DecodeMetrics(raw []byte) (GameMetrics, error) {
	var m MemoryMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("memory: decode metrics: %w", err)
	}
	return &m, nil
}
