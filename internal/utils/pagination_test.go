package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("", 20); got != 20 {
		t.Fatalf("empty: got %d", got)
	}
	if got := AtoiDefault("3", 20); got != 3 {
		t.Fatalf("valid: got %d", got)
	}
	if got := AtoiDefault("-8", 1); got != -8 {
		t.Fatalf("negative: got %d", got)
	}
	if got := AtoiDefault("two", 7); got != 7 {
		t.Fatalf("garbage: got %d", got)
	}
	if got := AtoiDefault(" 5", 7); got != 7 {
		t.Fatalf("untrimmed input must not parse: got %d", got)
	}
	if got := AtoiDefault("92233720368547758089", 4); got != 4 {
		t.Fatalf("overflow: got %d", got)
	}
}
