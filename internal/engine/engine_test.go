package engine

import (
	"errors"
	"testing"
)

func TestParseGameKey(t *testing.T) {
	for _, key := range AllGameKeys() {
		got, err := ParseGameKey(string(key))
		if err != nil || got != key {
			t.Fatalf("ParseGameKey(%q)=%q,%v", key, got, err)
		}
	}
	for _, bad := range []string{"", "chess", "Stroop", "STROOP"} {
		_, err := ParseGameKey(bad)
		if !errors.Is(err, ErrUnsupportedGame) {
			t.Fatalf("ParseGameKey(%q): got %v, want ErrUnsupportedGame", bad, err)
		}
	}
}

func TestCalculatorLookup(t *testing.T) {
	eng := New(DefaultConfig())
	for _, key := range AllGameKeys() {
		calc, err := eng.Calculator(key)
		if err != nil {
			t.Fatalf("Calculator(%q): %v", key, err)
		}
		if calc.Key() != key {
			t.Fatalf("Calculator(%q) reports key %q", key, calc.Key())
		}
	}
	if _, err := eng.Calculator(GameKey("chess")); !errors.Is(err, ErrUnsupportedGame) {
		t.Fatalf("unknown calculator: got %v, want ErrUnsupportedGame", err)
	}
}

func TestPhaseForSession(t *testing.T) {
	cases := []struct {
		n    int
		want Phase
	}{
		{1, PhaseLearning},
		{2, PhaseLearning},
		{3, PhaseBaseline},
		{5, PhaseBaseline},
		{6, PhaseProduction},
		{40, PhaseProduction},
	}
	for _, tc := range cases {
		if got := PhaseForSession(tc.n); got != tc.want {
			t.Fatalf("PhaseForSession(%d)=%q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestCompositeIndex(t *testing.T) {
	eng := New(DefaultConfig())

	if got := eng.CompositeIndex(nil); got != nil {
		t.Fatalf("empty latest map: got %v, want nil", *got)
	}

	// A single game renormalizes to its own score, undiluted by the games
	// the user never played.
	got := eng.CompositeIndex(map[GameKey]float64{GameNaming: 90})
	if got == nil || *got != 90 {
		t.Fatalf("single game: got %v, want 90", got)
	}

	// (0.4*100 + 0.4*90) / 0.8
	got = eng.CompositeIndex(map[GameKey]float64{GameStroop: 100, GameMemory: 90})
	if got == nil || *got != 95 {
		t.Fatalf("two games: got %v, want 95", got)
	}

	// (0.4*100 + 0.4*90 + 0.2*80) / 1.0
	got = eng.CompositeIndex(map[GameKey]float64{GameStroop: 100, GameMemory: 90, GameNaming: 80})
	if got == nil || *got != 92 {
		t.Fatalf("three games: got %v, want 92", got)
	}

	// Unweighted keys carry no mass.
	if got := eng.CompositeIndex(map[GameKey]float64{GameKey("chess"): 100}); got != nil {
		t.Fatalf("unweighted game only: got %v, want nil", *got)
	}
}
