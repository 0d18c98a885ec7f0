package engine

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{name: "empty", in: nil, want: 0},
		{name: "single", in: []float64{5}, want: 5},
		{name: "odd", in: []float64{3, 1, 2}, want: 2},
		{name: "even", in: []float64{1, 2, 3, 4}, want: 2.5},
		{name: "non_finite_ignored", in: []float64{math.NaN(), 10, math.Inf(1), 20}, want: 15},
		{name: "all_non_finite", in: []float64{math.NaN(), math.Inf(-1)}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Median(tc.in); got != tc.want {
				t.Fatalf("Median(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{name: "empty", in: []float64{}, want: 0},
		{name: "single", in: []float64{5}, want: 5},
		{name: "plain", in: []float64{1, 2, 3, 4}, want: 2.5},
		{name: "non_finite_ignored", in: []float64{math.NaN(), 10, 20}, want: 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Average(tc.in); got != tc.want {
				t.Fatalf("Average(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		name        string
		part, total float64
		want        float64
	}{
		{name: "zero_total", part: 0, total: 0, want: 0},
		{name: "negative_total", part: 5, total: -1, want: 0},
		{name: "half", part: 1, total: 2, want: 50},
		{name: "full", part: 10, total: 10, want: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Percent(tc.part, tc.total)
			if got != tc.want {
				t.Fatalf("Percent(%v,%v)=%v, want %v", tc.part, tc.total, got, tc.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("Percent(%v,%v) produced non-finite %v", tc.part, tc.total, got)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(50, 60, 130); got != 60 {
		t.Fatalf("Clamp below: got %v, want 60", got)
	}
	if got := Clamp(200, 60, 130); got != 130 {
		t.Fatalf("Clamp above: got %v, want 130", got)
	}
	if got := Clamp(100, 60, 130); got != 100 {
		t.Fatalf("Clamp inside: got %v, want 100", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(99.995); got != 100 {
		t.Fatalf("Round2(99.995)=%v, want 100", got)
	}
	if got := Round2(97.004); got != 97 {
		t.Fatalf("Round2(97.004)=%v, want 97", got)
	}
}
