// Package main runs the basket engine service:
// - Oracle feed (continuous): WebSocket price ticks filling the cache
// - Evaluation scheduler (periodic): evaluate_and_execute over all baskets
// - HTTP API: basket CRUD, supply ops, lifecycle, evaluation, /metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-basket-engine/internal/dex"
	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/engine"
	"solana-basket-engine/internal/observability"
	"solana-basket-engine/internal/oracle"
	"solana-basket-engine/internal/registry"
	"solana-basket-engine/internal/storage"
	chstore "solana-basket-engine/internal/storage/clickhouse"
	"solana-basket-engine/internal/storage/memory"
	"solana-basket-engine/internal/storage/migrations"
	pgstore "solana-basket-engine/internal/storage/postgres"
)

// Server holds all components of the service.
type Server struct {
	engine   *engine.Engine
	stores   *allStores
	registry *registry.Registry[domain.AlgorithmMeta]
	metrics  *observability.Metrics
	logger   *log.Logger

	evaluateInterval time.Duration

	mu            sync.Mutex
	started       time.Time
	lastSweep     time.Time
	sweepRuns     int
	sweepRunning  bool
	feedConnected bool
}

// allStores holds all storage implementations.
type allStores struct {
	baskets  storage.BasketStore
	configs  storage.StrategyConfigStore
	registry storage.RegistryStore
	history  storage.NavHistoryStore
}

func main() {
	loadEnvFile()

	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	feedURL := flag.String("feed-url", os.Getenv("ORACLE_FEED_URL"), "Price feed WebSocket endpoint")
	symbols := flag.String("symbols", envOr("ORACLE_SYMBOLS", "SOL,USDC"), "Comma-separated symbols to subscribe")
	maxPriceAge := flag.Duration("max-price-age", 60*time.Second, "Oracle freshness bound for cache reads")
	retention := flag.Duration("feed-retention", 24*time.Hour, "Feed history retained for TWAP/volatility")
	evaluateInterval := flag.Duration("evaluate-interval", 1*time.Minute, "Basket evaluation sweep interval")
	simFeeBps := flag.Uint64("sim-fee-bps", 30, "Swap fee of the simulated venue")
	simPools := flag.String("sim-pools", os.Getenv("SIM_POOLS"), "Seed pools, semicolon-separated mintA:reserveA:mintB:reserveB")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *feedURL == "" {
		logger.Fatal("--feed-url is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	cache := oracle.NewCache(*maxPriceAge, *retention)
	feed := oracle.NewFeedClient(*feedURL, splitList(*symbols), cache, nil,
		log.New(os.Stdout, "[oracle] ", log.LstdFlags))
	feed.Metrics = metrics

	venue := dex.NewSim(*simFeeBps)
	if err := seedPools(venue, *simPools); err != nil {
		logger.Fatalf("Bad --sim-pools: %v", err)
	}

	algos, err := buildAlgorithmRegistry(ctx, stores.registry)
	if err != nil {
		logger.Fatalf("Failed to build algorithm registry: %v", err)
	}

	eng := engine.New(engine.Options{
		BasketStore:         stores.baskets,
		StrategyConfigStore: stores.configs,
		NavHistoryStore:     stores.history,
		Oracle:              cache,
		Dex:                 venue,
		Volatility:          oracle.NewCacheVolatility(cache, *retention, 0),
		Algorithms:          algos,
		Metrics:             metrics,
		Logger:              log.New(os.Stdout, "[engine] ", log.LstdFlags),
	})

	server := &Server{
		engine:           eng,
		stores:           stores,
		registry:         algos,
		metrics:          metrics,
		logger:           logger,
		evaluateInterval: *evaluateInterval,
		started:          time.Now(),
	}

	done := make(chan error, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go server.startHTTPServer(*listenAddr)

	err = server.Run(ctx, feed)
	done <- err

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		return &allStores{
			baskets:  memory.NewBasketStore(),
			configs:  memory.NewStrategyConfigStore(),
			registry: memory.NewRegistryStore(),
			history:  memory.NewNavHistoryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		baskets:  pgstore.NewBasketStore(pool),
		configs:  pgstore.NewStrategyConfigStore(pool),
		registry: pgstore.NewRegistryStore(pool),
		history:  chstore.NewNavHistoryStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// buildAlgorithmRegistry registers the built-in weight algorithms and
// persists their catalog records.
func buildAlgorithmRegistry(ctx context.Context, store storage.RegistryStore) (*registry.Registry[domain.AlgorithmMeta], error) {
	reg := registry.New[domain.AlgorithmMeta](domain.RegistryAlgorithm)
	now := time.Now().Unix()
	for _, name := range []string{
		domain.WeightAlgoEqual,
		domain.WeightAlgoMarketCap,
		domain.WeightAlgoRiskParity,
		domain.WeightAlgoSignal,
		domain.WeightAlgoMomentum,
	} {
		entry, err := reg.Register(name, "", domain.AlgorithmMeta{Version: "1"}, now)
		if err != nil {
			return nil, err
		}
		record := &domain.RegistryRecord{
			Kind:        domain.RegistryAlgorithm,
			Name:        entry.Name,
			CreatedAt:   entry.CreatedAt,
			LastUpdated: entry.LastUpdated,
			IsActive:    entry.IsActive,
		}
		if err := store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("persist registry entry %s: %w", name, err)
		}
	}
	return reg, nil
}

// Run starts the feed and the evaluation scheduler.
func (s *Server) Run(ctx context.Context, feed *oracle.FeedClient) error {
	errCh := make(chan error, 2)

	go func() {
		s.mu.Lock()
		s.feedConnected = true
		s.mu.Unlock()
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("oracle feed: %w", err)
		}
	}()

	go func() {
		if err := s.runScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scheduler: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runScheduler sweeps all baskets on the evaluation interval.
func (s *Server) runScheduler(ctx context.Context) error {
	s.logger.Printf("Starting evaluation scheduler (interval: %v)...", s.evaluateInterval)

	ticker := time.NewTicker(s.evaluateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep evaluates every basket once. Rejections are expected for paused,
// closed or disabled baskets and are not treated as sweep failures.
func (s *Server) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweepRunning {
		s.mu.Unlock()
		s.logger.Println("Sweep already running, skipping...")
		return
	}
	s.sweepRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweepRunning = false
		s.lastSweep = time.Now()
		s.sweepRuns++
		s.mu.Unlock()
	}()

	baskets, err := s.stores.baskets.List(ctx)
	if err != nil {
		s.logger.Printf("Sweep list failed: %v", err)
		return
	}

	for _, b := range baskets {
		if b.Status == domain.StatusClosed {
			continue
		}
		res, err := s.engine.EvaluateAndExecute(ctx, b.ID)
		switch {
		case err != nil && engine.ClassOf(err) == engine.ClassState:
			// Paused, frozen without breach, disabled: nothing to do.
		case err != nil:
			s.logger.Printf("Sweep basket %d: %v", b.ID, err)
		case res.Outcome == domain.OutcomeRebalanced:
			s.logger.Printf("Sweep basket %d: %s trigger=%s legs=%d/%d nav=%d",
				b.ID, res.Outcome, res.Trigger, res.LegsExecuted, len(res.Legs), res.NewNav)
		}
	}
}

// startHTTPServer serves the API, health and metrics endpoints.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /baskets", s.handleListBaskets)
	mux.HandleFunc("GET /baskets/{id}", s.handleGetBasket)
	mux.HandleFunc("GET /baskets/{id}/history", s.handleGetHistory)
	mux.HandleFunc("POST /baskets/{id}/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /baskets/{id}/mint", s.handleMint)
	mux.HandleFunc("POST /baskets/{id}/burn", s.handleBurn)
	mux.HandleFunc("POST /baskets/{id}/fees", s.handleSetFees)

	mux.HandleFunc("POST /baskets/{id}/pause", s.lifecycleHandler(s.engine.PauseBasket))
	mux.HandleFunc("POST /baskets/{id}/resume", s.lifecycleHandler(s.engine.ResumeBasket))
	mux.HandleFunc("POST /baskets/{id}/freeze", s.lifecycleHandler(s.engine.FreezeBasket))
	mux.HandleFunc("POST /baskets/{id}/unfreeze", s.lifecycleHandler(s.engine.UnfreezeBasket))
	mux.HandleFunc("POST /baskets/{id}/close", s.lifecycleHandler(s.engine.CloseBasket))

	mux.HandleFunc("GET /algorithms", s.handleListAlgorithms)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	LastSweep    time.Time `json:"last_sweep,omitempty"`
	SweepRuns    int       `json:"sweep_runs"`
	SweepRunning bool      `json:"sweep_running"`
	FeedStarted  bool      `json:"feed_started"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		LastSweep:    s.lastSweep,
		SweepRuns:    s.sweepRuns,
		SweepRunning: s.sweepRunning,
		FeedStarted:  s.feedConnected,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBaskets(w http.ResponseWriter, r *http.Request) {
	baskets, err := s.stores.baskets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, baskets)
}

func (s *Server) handleGetBasket(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	b, err := s.stores.baskets.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	points, err := s.stores.history.GetByBasketID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	res, err := s.engine.EvaluateAndExecute(r.Context(), id)
	if err != nil {
		if res == nil {
			writeError(w, err)
			return
		}
		// The result describes the rejection; surface it with the
		// classified status.
		writeJSON(w, statusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	var req struct {
		DepositValue uint64 `json:"deposit_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DepositValue == 0 {
		http.Error(w, "deposit_value required", http.StatusBadRequest)
		return
	}
	minted, err := s.engine.MintTokens(r.Context(), id, req.DepositValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"minted": minted})
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == 0 {
		http.Error(w, "amount required", http.StatusBadRequest)
		return
	}
	redeemed, err := s.engine.BurnTokens(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"redeemed": redeemed})
}

func (s *Server) handleSetFees(w http.ResponseWriter, r *http.Request) {
	id, ok := basketID(w, r)
	if !ok {
		return
	}
	var req struct {
		CreationFeeBps   uint16 `json:"creation_fee_bps"`
		RedemptionFeeBps uint16 `json:"redemption_fee_bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.engine.SetFees(r.Context(), id, req.CreationFeeBps, req.RedemptionFeeBps); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lifecycleHandler(op func(context.Context, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := basketID(w, r)
		if !ok {
			return
		}
		if err := op(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func basketID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid basket id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	switch engine.ClassOf(err) {
	case engine.ClassState:
		return http.StatusConflict
	case engine.ClassAdapter:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// seedPools parses pool specs like MINTA:1000000:MINTB:2000000 separated
// by semicolons and seeds the simulated venue.
func seedPools(venue *dex.Sim, spec string) error {
	if spec == "" {
		return nil
	}
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return fmt.Errorf("pool %q: want mintA:reserveA:mintB:reserveB", entry)
		}
		ra, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return fmt.Errorf("pool %q: reserve %q: %w", entry, parts[1], err)
		}
		rb, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return fmt.Errorf("pool %q: reserve %q: %w", entry, parts[3], err)
		}
		venue.AddPool(domain.Mint(parts[0]), ra, domain.Mint(parts[2]), rb)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
