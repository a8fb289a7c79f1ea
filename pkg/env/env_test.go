package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("ARTX_TEST_VALUE", "  R9 ")
	if got := Get("ARTX_TEST_VALUE", "x"); got != "R9" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("ARTX_TEST_BLANK", "   ")
	if got := Get("ARTX_TEST_BLANK", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	if Has("ARTX_TEST_BLANK") {
		t.Fatalf("blank variable should not count as set")
	}
	if !Has("ARTX_TEST_VALUE") {
		t.Fatalf("expected variable to be set")
	}
}
