package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerPort         = 8080
	DefaultAPITimeout         = 5 * time.Second
	DefaultFetchRate          = 20.0
	DefaultFetchBurst         = 10
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultBatchSize          = 10
	DefaultStalenessThreshold = 30 * time.Second
	DefaultRecentTradesLimit  = 50
	DefaultCacheSize          = 1024
	DefaultCacheTTL           = time.Minute
	DefaultConditionExpiry    = 24 * time.Hour
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingTimeout        = 90 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	// Exchange defaults
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = DefaultAPITimeout
	}
	if c.Exchange.FetchRate == 0 {
		c.Exchange.FetchRate = DefaultFetchRate
	}
	if c.Exchange.FetchBurst == 0 {
		c.Exchange.FetchBurst = DefaultFetchBurst
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Sync defaults
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = DefaultBatchSize
	}
	if c.Sync.StalenessThreshold == 0 {
		c.Sync.StalenessThreshold = DefaultStalenessThreshold
	}
	if c.Sync.RecentTradesLimit == 0 {
		c.Sync.RecentTradesLimit = DefaultRecentTradesLimit
	}
	if c.Sync.CacheSize == 0 {
		c.Sync.CacheSize = DefaultCacheSize
	}
	if c.Sync.CacheTTL == 0 {
		c.Sync.CacheTTL = DefaultCacheTTL
	}

	// Trading defaults
	if c.Trading.ConditionExpiry == 0 {
		c.Trading.ConditionExpiry = DefaultConditionExpiry
	}

	// Stream defaults
	if c.Stream.ReconnectBaseDelay == 0 {
		c.Stream.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Stream.ReconnectMaxDelay == 0 {
		c.Stream.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}
}
