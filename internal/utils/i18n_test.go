package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
}

func TestT_Localized(t *testing.T) {
	if got := T("zh", "ema.already_submitted"); got == T("en", "ema.already_submitted") {
		t.Fatalf("expected zh translation, got %q", got)
	}
}

func TestT_UnknownKey(t *testing.T) {
	if got := T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should echo itself, got %q", got)
	}
}

func TestT_EveryKeyTranslated(t *testing.T) {
	for key := range translations["en"] {
		if _, ok := translations["zh"][key]; !ok {
			t.Fatalf("zh missing %q", key)
		}
	}
}
