package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"solana-basket-engine/internal/observability"
)

// FeedConfig configures the price-feed WebSocket client.
type FeedConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps exponential backoff between attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultFeedConfig returns default feed client configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// feedTick is one price update pushed by the feed.
type feedTick struct {
	Symbol    string `json:"symbol"`
	Price     uint64 `json:"price"`  // PricePrecision-scaled
	Volume    uint64 `json:"volume"` // interval volume in smallest units
	Timestamp int64  `json:"ts"`     // unix seconds
}

// subscribeRequest asks the feed to push the given symbols.
type subscribeRequest struct {
	Op      string   `json:"op"`
	Symbols []string `json:"symbols"`
}

// FeedClient streams price ticks from a feed endpoint into a Cache.
// It reconnects with exponential backoff and resubscribes after reconnect.
type FeedClient struct {
	endpoint string
	symbols  []string
	config   FeedConfig
	cache    *Cache
	logger   *log.Logger

	// Metrics, when set, counts ticks and reconnects.
	Metrics *observability.Metrics
}

// NewFeedClient creates a feed client that fills the given cache.
func NewFeedClient(endpoint string, symbols []string, cache *Cache, config *FeedConfig, logger *log.Logger) *FeedClient {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FeedClient{
		endpoint: endpoint,
		symbols:  symbols,
		config:   cfg,
		cache:    cache,
		logger:   logger,
	}
}

// Run connects and consumes ticks until ctx is canceled. Connection errors
// trigger reconnection; Run only returns on context cancellation.
func (f *FeedClient) Run(ctx context.Context) error {
	delay := f.config.ReconnectDelay
	for {
		err := f.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Printf("[oracle-feed] connection lost: %v; reconnecting in %s", err, delay)
		if f.Metrics != nil {
			f.Metrics.OracleFeedReconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// runOnce dials, subscribes and reads ticks until the connection fails.
func (f *FeedClient) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Symbols: f.symbols}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	// Close the connection when ctx is canceled to unblock ReadMessage.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	go f.pingLoop(ctx, conn)

	for {
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var tick feedTick
		if err := json.Unmarshal(data, &tick); err != nil {
			f.logger.Printf("[oracle-feed] malformed tick dropped: %v", err)
			continue
		}
		if tick.Symbol == "" || tick.Price == 0 {
			continue
		}
		f.cache.Observe(tick.Symbol, tick.Price, tick.Volume, tick.Timestamp)
		if f.Metrics != nil {
			f.Metrics.OracleFeedTicks.Inc()
		}
	}
}

func (f *FeedClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(f.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
