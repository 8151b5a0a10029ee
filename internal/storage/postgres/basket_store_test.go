package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
	pgstore "solana-basket-engine/internal/storage/postgres"
)

func testBasket(id uint64) *domain.BasketIndexState {
	return &domain.BasketIndexState{
		ID:           id,
		Authority:    "authority",
		Manager:      (*domain.Mint)(ptr("manager")),
		FeeCollector: "collector",
		Constituents: []domain.BasketConstituent{
			{Mint: "mintA", Symbol: "SOL", Balance: 100, WeightBps: 6000},
			{Mint: "mintB", Symbol: "USDC", Balance: 400, WeightBps: 4000},
		},
		TotalValue:        1000,
		TotalSupply:       1000,
		NavPerToken:       domain.PricePrecision,
		CreationFeeBps:    50,
		RedemptionFeeBps:  25,
		Status:            domain.StatusActive,
		EnableRebalancing: true,
		StrategyConfigID:  1,
		AISignals:         []float64{0.1, 0.9},
		ExternalSignals:   []float64{0.5, 0.5},
		ExecutionStats: domain.ExecutionStats{
			TotalExecutions:      3,
			SuccessfulExecutions: 2,
			FailedExecutions:     1,
			TotalComputeUnits:    9000,
			AvgExecutionTimeMs:   120,
			LastExecution:        1704067100,
		},
		RiskMetrics: &domain.RiskMetrics{
			RiskScore:      1500,
			MaxDrawdownBps: 800,
			NavPeak:        1100,
		},
		LastRebalanced: 1704067000,
		CreatedAt:      1704067200,
		UpdatedAt:      1704067200,
	}
}

func TestBasketStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	ctx := context.Background()

	b := testBasket(1)
	require.NoError(t, store.Insert(ctx, b))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, b.ID, got.ID)
	require.Equal(t, b.Authority, got.Authority)
	require.NotNil(t, got.Manager)
	require.Equal(t, *b.Manager, *got.Manager)
	require.Equal(t, b.Constituents, got.Constituents)
	require.Equal(t, b.Status, got.Status)
	require.Equal(t, b.AISignals, got.AISignals)
	require.Equal(t, b.ExecutionStats, got.ExecutionStats)
	require.NotNil(t, got.RiskMetrics)
	require.Equal(t, *b.RiskMetrics, *got.RiskMetrics)
}

func TestBasketStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testBasket(1)))
	require.ErrorIs(t, store.Insert(ctx, testBasket(1)), storage.ErrDuplicateKey)
}

func TestBasketStore_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	_, err := store.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBasketStore_UpdateRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	ctx := context.Background()

	b := testBasket(1)
	require.NoError(t, store.Insert(ctx, b))

	b.Constituents[0].Balance = 95
	b.Constituents[0].WeightBps = 5900
	b.Constituents[1].WeightBps = 4100
	b.Status = domain.StatusPaused
	b.ExecutionStats.TotalExecutions = 4
	b.RiskMetrics.MaxDrawdownBps = 1200
	b.UpdatedAt = 1704067300
	require.NoError(t, store.Update(ctx, b))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(95), got.Constituents[0].Balance)
	require.Equal(t, domain.StatusPaused, got.Status)
	require.Equal(t, uint64(4), got.ExecutionStats.TotalExecutions)
	require.Equal(t, uint64(1200), got.RiskMetrics.MaxDrawdownBps)
	require.Equal(t, int64(1704067300), got.UpdatedAt)
}

func TestBasketStore_UpdateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	require.ErrorIs(t, store.Update(context.Background(), testBasket(9)), storage.ErrNotFound)
}

func TestBasketStore_ListOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	ctx := context.Background()

	for _, id := range []uint64{3, 1, 2} {
		require.NoError(t, store.Insert(ctx, testBasket(id)))
	}

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, uint64(1), got[0].ID)
	require.Equal(t, uint64(2), got[1].ID)
	require.Equal(t, uint64(3), got[2].ID)
}

func TestBasketStore_NilOptionalFields(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := pgstore.NewBasketStore(pool)
	ctx := context.Background()

	b := testBasket(1)
	b.Manager = nil
	b.RiskMetrics = nil
	b.AISignals = nil
	b.ExternalSignals = nil
	require.NoError(t, store.Insert(ctx, b))

	got, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got.Manager)
	require.Nil(t, got.RiskMetrics)
	require.Empty(t, got.AISignals)
}
