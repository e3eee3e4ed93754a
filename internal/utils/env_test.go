package utils

import (
	"testing"
	"time"
)

func TestSafeEnv(t *testing.T) {
	const key = "_MOOD_TEST_SAFEENV"
	t.Setenv(key, "")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, "value")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestEnvBool(t *testing.T) {
	const key = "_MOOD_TEST_BOOL"
	cases := []struct {
		raw      string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"off", true, false},
		{"YES", false, true},
		{"maybe", false, false},
	}
	for _, c := range cases {
		t.Setenv(key, c.raw)
		if got := EnvBool(key, c.fallback); got != c.want {
			t.Fatalf("EnvBool(%q,%v)=%v, want %v", c.raw, c.fallback, got, c.want)
		}
	}
}

func TestEnvDuration(t *testing.T) {
	const key = "_MOOD_TEST_DURATION"
	t.Setenv(key, "1500ms")
	if got := EnvDuration(key, time.Second); got != 1500*time.Millisecond {
		t.Fatalf("got %v", got)
	}
	t.Setenv(key, "30")
	if got := EnvDuration(key, time.Second); got != 30*time.Second {
		t.Fatalf("bare seconds: got %v", got)
	}
	t.Setenv(key, "soon")
	if got := EnvDuration(key, time.Second); got != time.Second {
		t.Fatalf("fallback: got %v", got)
	}
}
