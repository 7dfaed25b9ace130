// Package config loads and validates the marketd YAML configuration.
//
// Files may reference environment variables as ${VAR}; variables are
// expanded before parsing. A .env file next to the process, when
// present, is loaded first.
package config

import "time"

// Config is the root configuration for a marketd instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Database DBConfig       `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Trading  TradingConfig  `yaml:"trading"`
	Stream   StreamConfig   `yaml:"stream"`
}

// InstanceConfig identifies this service instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ExchangeConfig holds exchange API settings.
type ExchangeConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	FetchRate  float64       `yaml:"fetch_rate"`  // snapshot fetches per second
	FetchBurst int           `yaml:"fetch_burst"` // limiter burst
}

// DBConfig holds the PostgreSQL connection for the local read store.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SyncConfig holds snapshot synchronization settings.
type SyncConfig struct {
	// BatchSize is the maximum condition ids per exchange request.
	BatchSize int `yaml:"batch_size"`

	// StalenessThreshold is the snapshot age beyond which a market is
	// considered stale.
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`

	// RecentTradesLimit is passed to the exchange batch endpoint.
	RecentTradesLimit int `yaml:"recent_trades_limit"`

	// CacheSize and CacheTTL bound the in-process read caches
	// (fee settings, event condition-id lookups).
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// TradingConfig holds order submission settings.
type TradingConfig struct {
	// ReferrerAddress is the platform wallet stamped on every order.
	ReferrerAddress string `yaml:"referrer_address"`

	// ConditionExpiry is how far in the future condition_expires_at is
	// set on submitted orders.
	ConditionExpiry time.Duration `yaml:"condition_expiry"`
}

// StreamConfig holds the live trade WebSocket feed settings.
type StreamConfig struct {
	Enabled            bool          `yaml:"enabled"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
}
