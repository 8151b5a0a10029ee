package dex

import (
	"context"
	"errors"
	"testing"
)

func TestSim_QuoteAndSwap(t *testing.T) {
	s := NewSim(30) // 30 bps fee
	s.AddPool("mintA", 1_000_000, "mintB", 1_000_000)

	ctx := context.Background()

	quoted, err := s.Quote(ctx, "mintA", "mintB", 10_000)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quoted == 0 || quoted >= 10_000 {
		t.Errorf("implausible quote for balanced pool: %d", quoted)
	}

	out, err := s.Swap(ctx, "mintA", "mintB", 10_000, quoted)
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if out != quoted {
		t.Errorf("swap output %d != quote %d", out, quoted)
	}

	// Reserves moved, so the same trade now yields less.
	quoted2, err := s.Quote(ctx, "mintA", "mintB", 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if quoted2 >= quoted {
		t.Errorf("price impact missing: %d >= %d", quoted2, quoted)
	}
}

func TestSim_SlippageExceeded(t *testing.T) {
	s := NewSim(0)
	s.AddPool("mintA", 1_000_000, "mintB", 1_000_000)

	ctx := context.Background()
	quoted, err := s.Quote(ctx, "mintA", "mintB", 10_000)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Swap(ctx, "mintA", "mintB", 10_000, quoted+1); !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("expected ErrSlippageExceeded, got %v", err)
	}

	// Failed swap must not move reserves.
	again, err := s.Quote(ctx, "mintA", "mintB", 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if again != quoted {
		t.Errorf("reserves moved on failed swap: %d != %d", again, quoted)
	}
}

func TestSim_UnknownPairAndLiquidity(t *testing.T) {
	s := NewSim(0)
	ctx := context.Background()

	if _, err := s.Quote(ctx, "mintA", "mintB", 100); !errors.Is(err, ErrUnknownPair) {
		t.Errorf("expected ErrUnknownPair, got %v", err)
	}

	s.AddPool("mintA", 1_000_000, "mintB", 1)
	if _, err := s.Quote(ctx, "mintA", "mintB", 1000); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Errorf("expected ErrInsufficientLiquidity, got %v", err)
	}
}
