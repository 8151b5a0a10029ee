package oracle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestCache_GetPrice(t *testing.T) {
	c := NewCache(30*time.Second, 10*time.Minute)
	c.SetClock(fixedClock(1000))

	ctx := context.Background()

	if _, err := c.GetPrice(ctx, "SOL"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}

	c.Observe("SOL", 100, 5, 990)
	q, err := c.GetPrice(ctx, "SOL")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if q.Price != 100 || q.AsOf != 990 {
		t.Errorf("unexpected quote: %+v", q)
	}
}

func TestCache_Staleness(t *testing.T) {
	c := NewCache(30*time.Second, 10*time.Minute)
	c.SetClock(fixedClock(1000))
	c.Observe("SOL", 100, 5, 950) // 50s old, bound is 30s

	if _, err := c.GetPrice(context.Background(), "SOL"); !errors.Is(err, ErrStaleData) {
		t.Errorf("expected ErrStaleData, got %v", err)
	}
}

func TestCache_OutOfOrderDropped(t *testing.T) {
	c := NewCache(time.Minute, 10*time.Minute)
	c.SetClock(fixedClock(1000))
	c.Observe("SOL", 100, 1, 990)
	c.Observe("SOL", 200, 1, 980) // older than latest, dropped

	q, err := c.GetPrice(context.Background(), "SOL")
	if err != nil {
		t.Fatal(err)
	}
	if q.Price != 100 {
		t.Errorf("out-of-order tick applied: %+v", q)
	}
}

func TestCache_TWAP(t *testing.T) {
	c := NewCache(time.Minute, 10*time.Minute)
	c.SetClock(fixedClock(1000))

	// Price 100 live for 20s (970->990), price 200 live for 10s (990->now=1000).
	c.Observe("SOL", 100, 1, 970)
	c.Observe("SOL", 200, 1, 990)

	twap, err := c.GetTWAP(context.Background(), "SOL", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	want := uint64((100*20 + 200*10) / 30)
	if twap != want {
		t.Errorf("expected TWAP %d, got %d", want, twap)
	}
}

func TestCache_VWAP(t *testing.T) {
	c := NewCache(time.Minute, 10*time.Minute)
	c.SetClock(fixedClock(1000))

	c.Observe("SOL", 100, 30, 980)
	c.Observe("SOL", 200, 10, 990)

	vwap, err := c.GetVWAP(context.Background(), "SOL", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	want := uint64((100*30 + 200*10) / 40)
	if vwap != want {
		t.Errorf("expected VWAP %d, got %d", want, vwap)
	}
}

func TestCache_VWAP_NoVolume(t *testing.T) {
	c := NewCache(time.Minute, 10*time.Minute)
	c.SetClock(fixedClock(1000))
	c.Observe("SOL", 100, 0, 990)

	if _, err := c.GetVWAP(context.Background(), "SOL", time.Minute); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCache_IntervalExcludesOldTicks(t *testing.T) {
	c := NewCache(time.Minute, time.Hour)
	c.SetClock(fixedClock(1000))

	c.Observe("SOL", 500, 1, 100) // far outside the interval
	c.Observe("SOL", 100, 1, 990)

	twap, err := c.GetTWAP(context.Background(), "SOL", 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if twap != 100 {
		t.Errorf("old tick leaked into interval: %d", twap)
	}
}
