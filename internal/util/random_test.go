package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(32)
	if len(hex) != 32 {
		t.Errorf("length = %d, want 32", len(hex))
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("non-hex character %q", c)
		}
	}
	if GenerateRandomHex(0) != "" {
		t.Error("expected empty string for zero length")
	}
	if GenerateRandomHex(-5) != "" {
		t.Error("expected empty string for negative length")
	}
}

func TestGenerateOrderReference(t *testing.T) {
	ref := GenerateOrderReference()
	if !strings.HasPrefix(ref, "ord_") {
		t.Errorf("reference %q missing ord_ prefix", ref)
	}
	if len(ref) != len("ord_")+16 {
		t.Errorf("reference length = %d", len(ref))
	}
	if ref == GenerateOrderReference() && ref == GenerateOrderReference() {
		t.Error("three identical references in a row, randomness suspect")
	}
}

func TestRandomInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := RandomInRange(15, 35)
		if n < 15 || n > 35 {
			t.Fatalf("RandomInRange(15, 35) = %d", n)
		}
	}
	if RandomInRange(7, 7) != 7 {
		t.Error("degenerate range should return min")
	}
	if RandomInRange(9, 3) != 9 {
		t.Error("inverted range should return min")
	}
}
