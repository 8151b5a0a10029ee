// Package engine sequences policy evaluation, DEX execution and state
// commit for basket index tokens. One Engine serves all baskets;
// evaluations for the same basket are serialized, different baskets run
// in parallel.
package engine

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"solana-basket-engine/internal/dex"
	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/observability"
	"solana-basket-engine/internal/oracle"
	"solana-basket-engine/internal/registry"
	"solana-basket-engine/internal/storage"
)

// VolatilitySource supplies rolling volatility estimates per symbol, in
// bps. Needed by the risk-parity strategy and the risk-reduction path.
type VolatilitySource interface {
	VolatilityBps(ctx context.Context, symbol string) (uint64, error)
}

// Engine owns the evaluate-and-execute flow.
type Engine struct {
	baskets storage.BasketStore
	configs storage.StrategyConfigStore
	history storage.NavHistoryStore // optional

	oracle     oracle.PriceOracle
	dex        dex.Adapter
	volatility VolatilitySource // optional
	algorithms *registry.Registry[domain.AlgorithmMeta]

	clock   func() int64
	logger  *log.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// Options for creating an Engine.
type Options struct {
	// Required stores and adapters
	BasketStore         storage.BasketStore
	StrategyConfigStore storage.StrategyConfigStore
	Oracle              oracle.PriceOracle
	Dex                 dex.Adapter
	Algorithms          *registry.Registry[domain.AlgorithmMeta]

	// Optional collaborators
	NavHistoryStore storage.NavHistoryStore
	Volatility      VolatilitySource
	Metrics         *observability.Metrics
	Logger          *log.Logger

	// Clock overrides time.Now for tests. Unix seconds.
	Clock func() int64
}

// New creates a new Engine.
func New(opts Options) *Engine {
	e := &Engine{
		baskets:    opts.BasketStore,
		configs:    opts.StrategyConfigStore,
		history:    opts.NavHistoryStore,
		oracle:     opts.Oracle,
		dex:        opts.Dex,
		volatility: opts.Volatility,
		algorithms: opts.Algorithms,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		locks:      make(map[uint64]*sync.Mutex),
	}
	if e.clock == nil {
		e.clock = func() int64 { return time.Now().Unix() }
	}
	if e.logger == nil {
		e.logger = log.New(os.Stderr, "[engine] ", log.LstdFlags|log.Lmsgprefix)
	}
	return e
}

// basketLock returns the mutex serializing one basket's evaluations.
func (e *Engine) basketLock(id uint64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// adapterCtx bounds one oracle or DEX call.
func adapterCtx(ctx context.Context, cfg domain.OptimizationSettings) (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.AdapterTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (e *Engine) logf(format string, args ...any) {
	e.logger.Printf(format, args...)
}
