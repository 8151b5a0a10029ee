package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// BasketStore implements storage.BasketStore using PostgreSQL. The
// composition and signal vectors are stored as JSONB; everything else is
// flat columns.
type BasketStore struct {
	pool *Pool
}

// NewBasketStore creates a new BasketStore.
func NewBasketStore(pool *Pool) *BasketStore {
	return &BasketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BasketStore = (*BasketStore)(nil)

const basketColumns = `
	id, authority, manager, fee_collector, constituents,
	total_value, total_supply, nav_per_token,
	creation_fee_bps, redemption_fee_bps, fees_collected,
	status, enable_rebalancing, strategy_config_id, last_rebalanced,
	ai_signals, external_signals,
	total_executions, successful_executions, failed_executions,
	total_compute_units, avg_execution_time_ms, last_execution,
	risk_score, max_drawdown_bps, nav_peak,
	created_at, updated_at
`

// Insert adds a new basket. Returns ErrDuplicateKey if the id exists.
func (s *BasketStore) Insert(ctx context.Context, b *domain.BasketIndexState) error {
	args, err := basketArgs(b)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO baskets (` + basketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert basket: %w", err)
	}
	return nil
}

// GetByID retrieves a basket by id. Returns ErrNotFound if absent.
func (s *BasketStore) GetByID(ctx context.Context, id uint64) (*domain.BasketIndexState, error) {
	query := `SELECT ` + basketColumns + ` FROM baskets WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, int64(id))
	b, err := scanBasket(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get basket by id: %w", err)
	}
	return b, nil
}

// Update replaces the stored aggregate. Returns ErrNotFound if absent.
func (s *BasketStore) Update(ctx context.Context, b *domain.BasketIndexState) error {
	args, err := basketArgs(b)
	if err != nil {
		return err
	}

	query := `
		UPDATE baskets SET
			authority = $2, manager = $3, fee_collector = $4, constituents = $5,
			total_value = $6, total_supply = $7, nav_per_token = $8,
			creation_fee_bps = $9, redemption_fee_bps = $10, fees_collected = $11,
			status = $12, enable_rebalancing = $13, strategy_config_id = $14, last_rebalanced = $15,
			ai_signals = $16, external_signals = $17,
			total_executions = $18, successful_executions = $19, failed_executions = $20,
			total_compute_units = $21, avg_execution_time_ms = $22, last_execution = $23,
			risk_score = $24, max_drawdown_bps = $25, nav_peak = $26,
			created_at = $27, updated_at = $28
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update basket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all baskets ordered by id ASC.
func (s *BasketStore) List(ctx context.Context) ([]*domain.BasketIndexState, error) {
	query := `SELECT ` + basketColumns + ` FROM baskets ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list baskets: %w", err)
	}
	defer rows.Close()

	var baskets []*domain.BasketIndexState
	for rows.Next() {
		b, err := scanBasket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan basket row: %w", err)
		}
		baskets = append(baskets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate basket rows: %w", err)
	}
	return baskets, nil
}

// basketArgs flattens the aggregate into positional query arguments.
func basketArgs(b *domain.BasketIndexState) ([]any, error) {
	if b == nil || b.ID == 0 {
		return nil, storage.ErrInvalidInput
	}

	constituents, err := json.Marshal(b.Constituents)
	if err != nil {
		return nil, fmt.Errorf("marshal constituents: %w", err)
	}
	aiSignals, err := json.Marshal(b.AISignals)
	if err != nil {
		return nil, fmt.Errorf("marshal ai signals: %w", err)
	}
	externalSignals, err := json.Marshal(b.ExternalSignals)
	if err != nil {
		return nil, fmt.Errorf("marshal external signals: %w", err)
	}

	var manager *string
	if b.Manager != nil {
		m := string(*b.Manager)
		manager = &m
	}

	var riskScore, maxDrawdown, navPeak *int64
	if b.RiskMetrics != nil {
		riskScore = ptrInt64(int64(b.RiskMetrics.RiskScore))
		maxDrawdown = ptrInt64(int64(b.RiskMetrics.MaxDrawdownBps))
		navPeak = ptrInt64(int64(b.RiskMetrics.NavPeak))
	}

	return []any{
		int64(b.ID),
		string(b.Authority),
		manager,
		string(b.FeeCollector),
		constituents,
		int64(b.TotalValue),
		int64(b.TotalSupply),
		int64(b.NavPerToken),
		int32(b.CreationFeeBps),
		int32(b.RedemptionFeeBps),
		int64(b.FeesCollected),
		b.Status.String(),
		b.EnableRebalancing,
		int64(b.StrategyConfigID),
		b.LastRebalanced,
		aiSignals,
		externalSignals,
		int64(b.ExecutionStats.TotalExecutions),
		int64(b.ExecutionStats.SuccessfulExecutions),
		int64(b.ExecutionStats.FailedExecutions),
		int64(b.ExecutionStats.TotalComputeUnits),
		int64(b.ExecutionStats.AvgExecutionTimeMs),
		b.ExecutionStats.LastExecution,
		riskScore,
		maxDrawdown,
		navPeak,
		b.CreatedAt,
		b.UpdatedAt,
	}, nil
}

// scanBasket scans a single row into a BasketIndexState.
func scanBasket(row pgx.Row) (*domain.BasketIndexState, error) {
	var b domain.BasketIndexState
	var (
		id, totalValue, totalSupply, navPerToken, feesCollected int64
		strategyConfigID                                        int64
		creationFee, redemptionFee                              int32
		manager                                                 *string
		statusStr                                               string
		constituents, aiSignals, externalSignals                []byte
		totalExec, okExec, failExec, computeUnits, avgMs        int64
		riskScore, maxDrawdown, navPeak                         *int64
	)

	err := row.Scan(
		&id,
		&b.Authority,
		&manager,
		&b.FeeCollector,
		&constituents,
		&totalValue,
		&totalSupply,
		&navPerToken,
		&creationFee,
		&redemptionFee,
		&feesCollected,
		&statusStr,
		&b.EnableRebalancing,
		&strategyConfigID,
		&b.LastRebalanced,
		&aiSignals,
		&externalSignals,
		&totalExec,
		&okExec,
		&failExec,
		&computeUnits,
		&avgMs,
		&b.ExecutionStats.LastExecution,
		&riskScore,
		&maxDrawdown,
		&navPeak,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(constituents, &b.Constituents); err != nil {
		return nil, fmt.Errorf("unmarshal constituents: %w", err)
	}
	if len(aiSignals) > 0 {
		if err := json.Unmarshal(aiSignals, &b.AISignals); err != nil {
			return nil, fmt.Errorf("unmarshal ai signals: %w", err)
		}
	}
	if len(externalSignals) > 0 {
		if err := json.Unmarshal(externalSignals, &b.ExternalSignals); err != nil {
			return nil, fmt.Errorf("unmarshal external signals: %w", err)
		}
	}

	status, err := domain.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}

	b.ID = uint64(id)
	if manager != nil {
		m := domain.Mint(*manager)
		b.Manager = &m
	}
	b.TotalValue = uint64(totalValue)
	b.TotalSupply = uint64(totalSupply)
	b.NavPerToken = uint64(navPerToken)
	b.CreationFeeBps = uint16(creationFee)
	b.RedemptionFeeBps = uint16(redemptionFee)
	b.FeesCollected = uint64(feesCollected)
	b.Status = status
	b.StrategyConfigID = uint64(strategyConfigID)
	b.ExecutionStats.TotalExecutions = uint64(totalExec)
	b.ExecutionStats.SuccessfulExecutions = uint64(okExec)
	b.ExecutionStats.FailedExecutions = uint64(failExec)
	b.ExecutionStats.TotalComputeUnits = uint64(computeUnits)
	b.ExecutionStats.AvgExecutionTimeMs = uint64(avgMs)
	if riskScore != nil {
		b.RiskMetrics = &domain.RiskMetrics{
			RiskScore: uint32(*riskScore),
		}
		if maxDrawdown != nil {
			b.RiskMetrics.MaxDrawdownBps = uint64(*maxDrawdown)
		}
		if navPeak != nil {
			b.RiskMetrics.NavPeak = uint64(*navPeak)
		}
	}
	return &b, nil
}

func ptrInt64(v int64) *int64 {
	return &v
}
