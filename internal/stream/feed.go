package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
)

const (
	defaultReconnectBase = time.Second
	defaultReconnectMax  = time.Minute
	defaultPingTimeout   = 90 * time.Second
	defaultWriteTimeout  = 10 * time.Second

	pingInterval = 30 * time.Second
)

// TradeSink receives live trades. Implemented by the store's idempotent
// trade upsert.
type TradeSink interface {
	UpsertTrades(ctx context.Context, trades []model.RecentTrade) error
}

// TokenSource lists the outcome tokens the feed should subscribe to.
type TokenSource interface {
	TrackedTokenIDs(ctx context.Context) ([]string, error)
}

// Config holds feed settings.
type Config struct {
	URL    string
	APIKey string

	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
}

func (c *Config) applyDefaults() {
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = defaultReconnectBase
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = defaultReconnectMax
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
}

// Feed is the live trade feed. Start connects and keeps the feed alive
// until Stop.
type Feed struct {
	cfg    Config
	sink   TradeSink
	tokens TokenSource
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFeed creates a Feed.
func NewFeed(cfg Config, sink TradeSink, tokens TokenSource, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Feed{
		cfg:    cfg,
		sink:   sink,
		tokens: tokens,
		logger: logger,
	}
}

// Start launches the connect/read/reconnect loop. Non-blocking.
func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(ctx)
	}()
}

// Stop tears the feed down and waits for its goroutines.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

// run reconnects forever with capped exponential backoff.
func (f *Feed) run(ctx context.Context) {
	delay := f.cfg.ReconnectBaseDelay

	for {
		if ctx.Err() != nil {
			return
		}

		err := f.session(ctx)
		if ctx.Err() != nil {
			return
		}

		f.logger.Warn("trade feed disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > f.cfg.ReconnectMaxDelay {
			delay = f.cfg.ReconnectMaxDelay
		}
	}
}

// session runs one connection: dial, subscribe, then read until the
// connection drops or goes stale.
func (f *Feed) session(ctx context.Context) error {
	c, err := dial(ctx, f.cfg.URL, f.cfg.APIKey, f.cfg.WriteTimeout)
	if err != nil {
		return err
	}
	defer c.close()

	if err := f.subscribe(ctx, c); err != nil {
		return err
	}
	f.logger.Info("trade feed connected", "url", f.cfg.URL)

	// Read loop in its own goroutine so the select below can also react
	// to cancellation and staleness.
	msgs := make(chan []byte, 64)
	readErr := make(chan error, 1)
	go func() {
		for {
			data, err := c.read()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- data:
			case <-ctx.Done():
				return
			default:
				f.logger.Warn("trade feed buffer full, dropping message")
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case data := <-msgs:
			f.handleMessage(ctx, data)
		case <-ticker.C:
			if time.Since(c.lastSeen()) > f.cfg.PingTimeout {
				f.logger.Warn("trade feed stale, reconnecting",
					"last_seen", c.lastSeen())
				return ErrNotConnected
			}
			if err := c.ping(); err != nil {
				return err
			}
		}
	}
}

// subscribeCommand is the wire format of a trade subscription.
type subscribeCommand struct {
	Command  string   `json:"command"`
	Channel  string   `json:"channel"`
	TokenIDs []string `json:"token_ids,omitempty"`
}

// subscribe requests trade events for all tracked tokens. An empty
// token set subscribes to the whole trade channel.
func (f *Feed) subscribe(ctx context.Context, c *conn) error {
	var tokenIDs []string
	if f.tokens != nil {
		ids, err := f.tokens.TrackedTokenIDs(ctx)
		if err != nil {
			// Fall back to the firehose rather than fail the session.
			f.logger.Warn("tracked token lookup failed, subscribing to all trades", "error", err)
		} else {
			tokenIDs = ids
		}
	}

	cmd := subscribeCommand{
		Command:  "subscribe",
		Channel:  "trades",
		TokenIDs: tokenIDs,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return c.send(data)
}

// tradeEnvelope is the wire format of one feed message.
type tradeEnvelope struct {
	Type  string             `json:"type"`
	Trade *exchange.APITrade `json:"trade,omitempty"`
}

// handleMessage decodes and persists a single trade event. Errors are
// logged and swallowed: the next snapshot sync repairs any gap.
func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	var env tradeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		f.logger.Warn("trade feed: undecodable message", "error", err)
		return
	}
	if !strings.EqualFold(env.Type, "trade") || env.Trade == nil {
		return
	}

	trade := env.Trade.ToModel()
	if trade.TradeID == "" || trade.TokenID == "" {
		f.logger.Warn("trade feed: incomplete trade dropped", "trade_id", trade.TradeID)
		return
	}

	if err := f.sink.UpsertTrades(ctx, []model.RecentTrade{trade}); err != nil {
		f.logger.Error("trade feed: persist failed",
			"trade_id", trade.TradeID,
			"token_id", trade.TokenID,
			"error", err,
		)
	}
}
