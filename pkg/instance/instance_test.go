package instance

import "testing"

func TestGetID(t *testing.T) {
	t.Setenv("INSTANCE_ID", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local default, got %q", got)
	}

	t.Setenv("HOSTNAME", "web-7f9c")
	if got := GetID(); got != "web-7f9c" {
		t.Fatalf("expected hostname, got %q", got)
	}

	t.Setenv("INSTANCE_ID", "api-1")
	if got := GetID(); got != "api-1" {
		t.Fatalf("expected explicit instance id, got %q", got)
	}
}
