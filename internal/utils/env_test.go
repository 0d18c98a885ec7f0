package utils

import "testing"

func TestGetEnv(t *testing.T) {
	if got := GetEnv("MINDGARDEN_TEST_UNSET", "fallback", nil); got != "fallback" {
		t.Fatalf("unset var: got %q, want fallback", got)
	}
	t.Setenv("MINDGARDEN_TEST_SET", "value")
	if got := GetEnv("MINDGARDEN_TEST_SET", "fallback", nil); got != "value" {
		t.Fatalf("set var: got %q, want value", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	if got := GetEnvAsInt("MINDGARDEN_TEST_UNSET", 42, nil); got != 42 {
		t.Fatalf("unset var: got %d, want 42", got)
	}
	t.Setenv("MINDGARDEN_TEST_INT", "7")
	if got := GetEnvAsInt("MINDGARDEN_TEST_INT", 42, nil); got != 7 {
		t.Fatalf("set var: got %d, want 7", got)
	}
	t.Setenv("MINDGARDEN_TEST_INT", "seven")
	if got := GetEnvAsInt("MINDGARDEN_TEST_INT", 42, nil); got != 42 {
		t.Fatalf("bad var: got %d, want 42", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	if got := GetEnvAsFloat("MINDGARDEN_TEST_UNSET", 1.5, nil); got != 1.5 {
		t.Fatalf("unset var: got %v, want 1.5", got)
	}
	t.Setenv("MINDGARDEN_TEST_FLOAT", "0.25")
	if got := GetEnvAsFloat("MINDGARDEN_TEST_FLOAT", 1.5, nil); got != 0.25 {
		t.Fatalf("set var: got %v, want 0.25", got)
	}
	t.Setenv("MINDGARDEN_TEST_FLOAT", "fast")
	if got := GetEnvAsFloat("MINDGARDEN_TEST_FLOAT", 1.5, nil); got != 1.5 {
		t.Fatalf("bad var: got %v, want 1.5", got)
	}
}
