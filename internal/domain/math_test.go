package domain

import (
	"errors"
	"math"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(6_000_000, 300, 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if got != 180_000 {
		t.Errorf("expected 180000, got %d", got)
	}

	// 128-bit intermediate: a*b overflows uint64 but the quotient fits.
	got, err = MulDiv(math.MaxUint64/2, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != math.MaxUint64/4 {
		t.Errorf("wide intermediate wrong: %d", got)
	}

	if _, err := MulDiv(math.MaxUint64, 2, 1); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected division by zero, got %v", err)
	}
}

func TestSafeSub(t *testing.T) {
	if _, err := SafeSub(1, 2); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("expected underflow error, got %v", err)
	}
	got, err := SafeSub(5, 2)
	if err != nil || got != 3 {
		t.Errorf("expected 3, got %d (%v)", got, err)
	}
}

func TestParseMint(t *testing.T) {
	// The ed25519 generator is on-curve by construction.
	onCurve := base58.Encode(edwards25519.NewGeneratorPoint().Bytes())
	m, err := ParseMint(onCurve)
	if err != nil {
		t.Fatalf("valid mint rejected: %v", err)
	}
	if m.String() != onCurve {
		t.Errorf("mint round-trip mismatch: %s", m)
	}

	if _, err := ParseMint("not base58 ~~~"); !errors.Is(err, ErrInvalidMint) {
		t.Errorf("expected ErrInvalidMint, got %v", err)
	}
	if _, err := ParseMint("abc"); !errors.Is(err, ErrInvalidMint) {
		t.Errorf("expected ErrInvalidMint for short input, got %v", err)
	}
}
