package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	n := NewNormalizer("us")
	if got := n.NormalizeE164("(650) 253-0000"); got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}
}

func TestNormalizeE164KeepsUnparseableInput(t *testing.T) {
	n := NewNormalizer("")
	if got := n.NormalizeE164("  call reception  "); got != "call reception" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
	if got := n.NormalizeE164(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestNormalizeE164InternationalPrefix(t *testing.T) {
	n := NewNormalizer("US")
	if got := n.NormalizeE164("+44 20 7031 3000"); got != "+442070313000" {
		t.Fatalf("expected +442070313000, got %q", got)
	}
}
