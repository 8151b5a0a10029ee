package memory

import (
	"context"
	"errors"
	"testing"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

func TestRegistryStore_SaveAndGetByKind(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	records := []*domain.RegistryRecord{
		{Kind: domain.RegistryAlgorithm, Name: "MARKET_CAP", Creator: "creator", CreatedAt: 100, IsActive: true, Meta: []byte(`{"version":"1"}`)},
		{Kind: domain.RegistryAlgorithm, Name: "EQUAL_WEIGHT", Creator: "creator", CreatedAt: 100, IsActive: true, Meta: []byte(`{"version":"1"}`)},
		{Kind: domain.RegistryOracle, Name: "pyth-main", Creator: "creator", CreatedAt: 100, IsActive: true},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s failed: %v", rec.Name, err)
		}
	}

	got, err := store.GetByKind(ctx, domain.RegistryAlgorithm)
	if err != nil {
		t.Fatalf("GetByKind failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 algorithm records, got %d", len(got))
	}
	// Name ASC.
	if got[0].Name != "EQUAL_WEIGHT" || got[1].Name != "MARKET_CAP" {
		t.Errorf("records out of order: %s, %s", got[0].Name, got[1].Name)
	}
}

func TestRegistryStore_SaveUpserts(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	rec := &domain.RegistryRecord{Kind: domain.RegistryDex, Name: "raydium", Creator: "creator", CreatedAt: 100, IsActive: true}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec.IsActive = false
	rec.LastUpdated = 200
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.GetByKind(ctx, domain.RegistryDex)
	if err != nil {
		t.Fatalf("GetByKind failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert duplicated the record: %d entries", len(got))
	}
	if got[0].IsActive || got[0].LastUpdated != 200 {
		t.Errorf("deactivation did not round-trip: %+v", got[0])
	}
}

func TestRegistryStore_InvalidInput(t *testing.T) {
	store := NewRegistryStore()
	if err := store.Save(context.Background(), &domain.RegistryRecord{Kind: domain.RegistryDex}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStrategyConfigStore_AppendOnly(t *testing.T) {
	store := NewStrategyConfigStore()
	ctx := context.Background()

	cfg := &domain.StrategyConfig{
		ID:          1,
		Weight:      domain.WeightConfig{Algorithm: domain.WeightAlgoEqual},
		Rebalancing: domain.RebalancingConfig{DriftThresholdBps: 200},
		CreatedAt:   100,
	}
	if err := store.Insert(ctx, cfg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, cfg); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on re-insert, got %v", err)
	}

	got, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Weight.Algorithm != domain.WeightAlgoEqual {
		t.Errorf("unexpected config: %+v", got)
	}

	if _, err := store.GetByID(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
