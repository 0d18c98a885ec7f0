package engine

import (
	"errors"
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }

func stroopTrials(n int, correct bool, rtMs float64, congruent bool) []StroopTrial {
	trials := make([]StroopTrial, n)
	for i := range trials {
		trials[i] = StroopTrial{
			Word:      "RED",
			InkColor:  "blue",
			Correct:   correct,
			Congruent: congruent,
		}
		rt := rtMs
		trials[i].ResponseTimeMs = &rt
	}
	return trials
}

func TestStroopNormalizeRejectsEmptyTrials(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}
	_, err := calc.Normalize(Submission{})
	if !errors.Is(err, ErrNoTrials) {
		t.Fatalf("Normalize on empty trials: got %v, want ErrNoTrials", err)
	}
	if !IsValidationError(err) {
		t.Fatalf("ErrNoTrials must classify as a validation error")
	}
}

func TestStroopNormalizeCoercesMalformedFields(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := calc.Normalize(Submission{
		Now: now,
		Trials: []map[string]any{
			{
				"word":             123.0,
				"correct":          "yes",
				"congruent":        nil,
				"response_time_ms": "not-a-number",
				"presented_at":     "garbage",
			},
		},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	payload := p.(*StroopPayload)
	trial := payload.Trials[0]
	if trial.Word != "123" {
		t.Fatalf("word coercion: got %q", trial.Word)
	}
	if !trial.Correct {
		t.Fatalf("correct coercion: 'yes' should be true")
	}
	if trial.Congruent {
		t.Fatalf("congruent coercion: nil should be false")
	}
	if trial.ResponseTimeMs != nil {
		t.Fatalf("response time coercion: garbage should yield nil, got %v", *trial.ResponseTimeMs)
	}
	if !trial.PresentedAt.Equal(now) {
		t.Fatalf("presented_at fallback: got %v, want %v", trial.PresentedAt, now)
	}
}

func TestStroopFirstSessionScoresNeutral(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}
	payload := &StroopPayload{Trials: stroopTrials(10, true, 500, true)}

	m, err := calc.Compute(payload, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got := m.(*StroopMetrics)
	if got.AccuracyPct != 100 {
		t.Fatalf("accuracy: got %v, want 100", got.AccuracyPct)
	}
	if got.MedianRTMs != 500 {
		t.Fatalf("median rt: got %v, want 500", got.MedianRTMs)
	}
	if got.AccuracyScore != 100 || got.SpeedScore != 100 || got.CompositeScore != 100 {
		t.Fatalf("neutral scores: got acc=%v speed=%v composite=%v, want 100/100/100",
			got.AccuracyScore, got.SpeedScore, got.CompositeScore)
	}
	if got.TrafficLight != LightYellow {
		t.Fatalf("light without baseline: got %q, want yellow", got.TrafficLight)
	}
	if got.BaselineAccuracyPct != nil {
		t.Fatalf("baseline snapshot should be null on the first session")
	}
}

func TestStroopScoresAgainstBaseline(t *testing.T) {
	cfg := DefaultConfig()
	calc := &stroopCalculator{cfg: cfg}

	readyBase := func(accuracy, medianRT float64) *StroopBaseline {
		return &StroopBaseline{
			AccuracyPct:           accuracy,
			MedianRTMs:            medianRT,
			CongruentMedianRTMs:   medianRT,
			IncongruentMedianRTMs: medianRT,
			Sessions:              cfg.BaselineWindow,
			Status:                BaselineReady,
		}
	}

	cases := []struct {
		name          string
		trials        []StroopTrial
		base          *StroopBaseline
		wantAccScore  float64
		wantSpeed     float64
		wantComposite float64
		wantLight     TrafficLight
	}{
		{
			name:          "matching_baseline_is_green",
			trials:        append(stroopTrials(8, true, 500, true), stroopTrials(2, false, 500, false)...),
			base:          readyBase(80, 500),
			wantAccScore:  100,
			wantSpeed:     100,
			wantComposite: 100,
			wantLight:     LightGreen,
		},
		{
			name:          "accuracy_collapse_is_red",
			trials:        append(stroopTrials(7, true, 500, true), stroopTrials(3, false, 500, false)...),
			base:          readyBase(100, 500),
			wantAccScore:  70,
			wantSpeed:     100,
			wantComposite: 82,
			wantLight:     LightRed,
		},
		{
			name:          "improvement_clamps_at_ceiling",
			trials:        stroopTrials(10, true, 250, true),
			base:          readyBase(50, 500),
			wantAccScore:  130,
			wantSpeed:     130,
			wantComposite: 130,
			wantLight:     LightGreen,
		},
		{
			name:          "building_baseline_stays_yellow",
			trials:        stroopTrials(3, true, 500, true),
			base:          &StroopBaseline{AccuracyPct: 100, MedianRTMs: 500, Sessions: 2, Status: BaselineBuilding},
			wantAccScore:  100,
			wantSpeed:     100,
			wantComposite: 100,
			wantLight:     LightYellow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := calc.Compute(&StroopPayload{Trials: tc.trials}, tc.base)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			got := m.(*StroopMetrics)
			if got.AccuracyScore != tc.wantAccScore {
				t.Fatalf("accuracy score: got %v, want %v", got.AccuracyScore, tc.wantAccScore)
			}
			if got.SpeedScore != tc.wantSpeed {
				t.Fatalf("speed score: got %v, want %v", got.SpeedScore, tc.wantSpeed)
			}
			if got.CompositeScore != tc.wantComposite {
				t.Fatalf("composite: got %v, want %v", got.CompositeScore, tc.wantComposite)
			}
			if got.TrafficLight != tc.wantLight {
				t.Fatalf("light: got %q, want %q", got.TrafficLight, tc.wantLight)
			}
		})
	}
}

func TestStroopInterferenceCanBeNegative(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}
	trials := append(stroopTrials(5, true, 600, true), stroopTrials(5, true, 400, false)...)
	m, err := calc.Compute(&StroopPayload{Trials: trials}, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got := m.(*StroopMetrics)
	if got.InterferenceMs != -200 {
		t.Fatalf("interference: got %v, want -200", got.InterferenceMs)
	}
}

func TestStroopDeriveBaselineWindow(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}

	if base := calc.DeriveBaseline(nil); base != nil {
		t.Fatalf("baseline from empty history should be nil, got %#v", base)
	}

	history := []GameMetrics{
		&StroopMetrics{AccuracyPct: 70, MedianRTMs: 700},
		&StroopMetrics{AccuracyPct: 80, MedianRTMs: 600},
	}
	base := calc.DeriveBaseline(history).(*StroopBaseline)
	if base.Status != BaselineBuilding {
		t.Fatalf("two sessions: status %q, want building", base.Status)
	}
	if base.AccuracyPct != 75 || base.MedianRTMs != 650 {
		t.Fatalf("two-session averages: got acc=%v rt=%v", base.AccuracyPct, base.MedianRTMs)
	}

	history = append(history, &StroopMetrics{AccuracyPct: 90, MedianRTMs: 500})
	base = calc.DeriveBaseline(history).(*StroopBaseline)
	if base.Status != BaselineReady {
		t.Fatalf("three sessions: status %q, want ready", base.Status)
	}
	if base.Sessions != 3 {
		t.Fatalf("sessions: got %d, want 3", base.Sessions)
	}

	// Only the trailing window contributes once history exceeds it.
	history = append([]GameMetrics{&StroopMetrics{AccuracyPct: 10, MedianRTMs: 9000}}, history...)
	base = calc.DeriveBaseline(history).(*StroopBaseline)
	if base.AccuracyPct != 80 {
		t.Fatalf("windowed average: got %v, want 80", base.AccuracyPct)
	}
}

func TestStroopDecodeMetricsRoundTrip(t *testing.T) {
	calc := &stroopCalculator{cfg: DefaultConfig()}
	raw := []byte(`{"composite_score":97.5,"traffic_light":"green","trend":"up"}`)
	m, err := calc.DecodeMetrics(raw)
	if err != nil {
		t.Fatalf("DecodeMetrics: %v", err)
	}
	if m.Composite() != 97.5 || m.Light() != LightGreen || m.CurrentTrend() != TrendUp {
		t.Fatalf("decoded metrics mismatch: %v %v %v", m.Composite(), m.Light(), m.CurrentTrend())
	}
	if _, err := calc.DecodeMetrics([]byte("{")); err == nil {
		t.Fatalf("DecodeMetrics should fail on truncated JSON")
	}
}
