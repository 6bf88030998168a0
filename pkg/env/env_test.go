package env

import "testing"

func TestGetFallback(t *testing.T) {
	t.Setenv("DURENT_TEST_UNSET", "")
	if got := Get("DURENT_TEST_UNSET", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("DURENT_TEST_SET", "console")
	if got := Get("DURENT_TEST_SET", "json"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestFirstOrder(t *testing.T) {
	t.Setenv("DURENT_A", "")
	t.Setenv("DURENT_B", "b")
	t.Setenv("DURENT_C", "c")
	if got := First("x", "DURENT_A", "DURENT_B", "DURENT_C"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	t.Setenv("DURENT_B", "")
	t.Setenv("DURENT_C", "")
	if got := First("x", "DURENT_A", "DURENT_B", "DURENT_C"); got != "x" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
