package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse-or-default coercion over arbitrary client JSON. Normalization never
// fails a request on a malformed optional field: the helpers substitute a
// documented default (zero string, false, nil, the supplied fallback time)
// and keep going.

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes":
			return true
		}
		return false
	case float64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}

// coerceFloat returns nil for anything that does not parse to a finite
// number, so a garbage response time becomes "no signal" instead of zero.
func coerceFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if !isFinite(f) {
		return nil
	}
	return &f
}

// ParseTime defensively parses a client timestamp: RFC3339 strings and
// epoch milliseconds are accepted, anything else yields the fallback.
func ParseTime(v any, fallback time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return fallback
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed
		}
		if millis, err := strconv.ParseFloat(s, 64); err == nil && isFinite(millis) && millis > 0 {
			return time.UnixMilli(int64(millis)).UTC()
		}
		return fallback
	default:
		if f := coerceFloat(v); f != nil && *f > 0 {
			return time.UnixMilli(int64(*f)).UTC()
		}
		return fallback
	}
}

func coerceStringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, coerceString(item))
		}
		return out
	default:
		return []string{}
	}
}
