// Package main is the one-shot rebalance trigger: it evaluates one basket
// against supplied prices and executes the resulting plan against the
// simulated venue. Intended for operational dry runs and cron-style
// triggering without the long-running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"solana-basket-engine/internal/dex"
	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/engine"
	"solana-basket-engine/internal/oracle"
	"solana-basket-engine/internal/registry"
	chstore "solana-basket-engine/internal/storage/clickhouse"
	"solana-basket-engine/internal/storage/migrations"
	pgstore "solana-basket-engine/internal/storage/postgres"
)

func main() {
	basketID := flag.Uint64("basket-id", 0, "Basket to evaluate")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables NAV history)")
	prices := flag.String("prices", "", "Comma-separated SYMBOL=price quotes, PricePrecision-scaled")
	vols := flag.String("volatility", "", "Comma-separated SYMBOL=bps volatility estimates")
	simFeeBps := flag.Uint64("sim-fee-bps", 30, "Swap fee of the simulated venue")
	simPools := flag.String("sim-pools", os.Getenv("SIM_POOLS"), "Seed pools, semicolon-separated mintA:reserveA:mintB:reserveB")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall run timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[rebalance] ", log.LstdFlags)

	if *basketID == 0 {
		logger.Fatal("--basket-id is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *prices == "" {
		logger.Fatal("--prices is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	quotes, err := parseQuotes(*prices)
	if err != nil {
		logger.Fatalf("Bad --prices: %v", err)
	}
	volMap, err := parsePairs(*vols)
	if err != nil {
		logger.Fatalf("Bad --volatility: %v", err)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Postgres migrations: %v", err)
	}

	opts := engine.Options{
		BasketStore:         pgstore.NewBasketStore(pool),
		StrategyConfigStore: pgstore.NewStrategyConfigStore(pool),
		Oracle:              oracle.NewStatic(quotes),
		Dex:                 newVenue(*simFeeBps, *simPools, logger),
		Algorithms:          buildAlgorithms(),
		Logger:              logger,
	}
	if len(volMap) > 0 {
		opts.Volatility = staticVol(volMap)
	}
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Clickhouse migrations: %v", err)
		}
		defer conn.Close()
		opts.NavHistoryStore = chstore.NewNavHistoryStore(conn)
	}

	result, err := engine.New(opts).EvaluateAndExecute(ctx, *basketID)
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}
	if err != nil {
		logger.Fatalf("Evaluation failed (%s): %v", engine.ClassOf(err), err)
	}
}

func newVenue(feeBps uint64, poolSpec string, logger *log.Logger) *dex.Sim {
	venue := dex.NewSim(feeBps)
	if poolSpec == "" {
		return venue
	}
	for _, entry := range strings.Split(poolSpec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			logger.Fatalf("Bad --sim-pools entry %q: want mintA:reserveA:mintB:reserveB", entry)
		}
		ra, errA := strconv.ParseUint(parts[1], 10, 64)
		rb, errB := strconv.ParseUint(parts[3], 10, 64)
		if errA != nil || errB != nil {
			logger.Fatalf("Bad --sim-pools entry %q: reserves must be integers", entry)
		}
		venue.AddPool(domain.Mint(parts[0]), ra, domain.Mint(parts[2]), rb)
	}
	return venue
}

func buildAlgorithms() *registry.Registry[domain.AlgorithmMeta] {
	reg := registry.New[domain.AlgorithmMeta](domain.RegistryAlgorithm)
	now := time.Now().Unix()
	for _, name := range []string{
		domain.WeightAlgoEqual,
		domain.WeightAlgoMarketCap,
		domain.WeightAlgoRiskParity,
		domain.WeightAlgoSignal,
		domain.WeightAlgoMomentum,
	} {
		reg.Register(name, "", domain.AlgorithmMeta{Version: "1"}, now)
	}
	return reg
}

// staticVol serves fixed per-symbol volatility estimates.
type staticVol map[string]uint64

func (v staticVol) VolatilityBps(_ context.Context, symbol string) (uint64, error) {
	bps, ok := v[symbol]
	if !ok {
		return 0, fmt.Errorf("no volatility for %s", symbol)
	}
	return bps, nil
}

// parseQuotes parses SYMBOL=price pairs into oracle quotes stamped now.
func parseQuotes(s string) (map[string]oracle.Quote, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	quotes := make(map[string]oracle.Quote, len(pairs))
	for symbol, price := range pairs {
		quotes[symbol] = oracle.Quote{Symbol: symbol, Price: price, AsOf: now}
	}
	return quotes, nil
}

func parsePairs(s string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	if s == "" {
		return out, nil
	}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, val, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: want SYMBOL=value", entry)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		out[strings.TrimSpace(key)] = n
	}
	return out, nil
}
