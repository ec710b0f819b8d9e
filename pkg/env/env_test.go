package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("TINY_INVENTORY_ENV_TEST", "   ")
	if got := Get("TINY_INVENTORY_ENV_TEST", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	t.Setenv("TINY_INVENTORY_ENV_TEST", "console")
	if got := Get("TINY_INVENTORY_ENV_TEST", "json"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("TINY_INVENTORY_ENV_INT", "42")
	if got := Int("TINY_INVENTORY_ENV_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("TINY_INVENTORY_ENV_INT", "many")
	if got := Int("TINY_INVENTORY_ENV_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}
