package engine

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	fallback := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rfc := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   any
		want time.Time
	}{
		{name: "native_time", in: rfc, want: rfc},
		{name: "rfc3339", in: "2026-02-10T09:30:00Z", want: rfc},
		{name: "rfc3339_nano", in: "2026-02-10T09:30:00.000000000Z", want: rfc},
		{name: "epoch_millis_number", in: float64(rfc.UnixMilli()), want: rfc},
		{name: "epoch_millis_string", in: "1770715800000", want: time.UnixMilli(1770715800000).UTC()},
		{name: "empty_string", in: "", want: fallback},
		{name: "garbage", in: "yesterday-ish", want: fallback},
		{name: "nil", in: nil, want: fallback},
		{name: "negative_number", in: -5.0, want: fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseTime(tc.in, fallback); !got.Equal(tc.want) {
				t.Fatalf("ParseTime(%v)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *float64
	}{
		{name: "float", in: 412.5, want: fptr(412.5)},
		{name: "int", in: 300, want: fptr(300)},
		{name: "numeric_string", in: " 250 ", want: fptr(250)},
		{name: "garbage_string", in: "fast", want: nil},
		{name: "nil", in: nil, want: nil},
		{name: "bool", in: true, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := coerceFloat(tc.in)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("coerceFloat(%v)=%v, want %v", tc.in, got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("coerceFloat(%v)=%v, want %v", tc.in, *got, *tc.want)
			}
		})
	}
}

func TestCoerceStringSlice(t *testing.T) {
	got := coerceStringSlice([]any{"apple", 7.0, true})
	want := []string{"apple", "7", "true"}
	if len(got) != len(want) {
		t.Fatalf("coerceStringSlice length: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("coerceStringSlice[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
	if got := coerceStringSlice(42); len(got) != 0 {
		t.Fatalf("coerceStringSlice(non-list): got %v, want empty", got)
	}
}
