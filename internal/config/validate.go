package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Exchange.RestURL == "" {
		return errors.New("exchange.rest_url is required")
	}
	if c.Stream.Enabled && c.Exchange.WSURL == "" {
		return errors.New("exchange.ws_url is required when stream.enabled is true")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Sync.BatchSize < 1 {
		return errors.New("sync.batch_size must be >= 1")
	}
	if c.Sync.StalenessThreshold <= 0 {
		return errors.New("sync.staleness_threshold must be positive")
	}
	if c.Sync.RecentTradesLimit < 0 {
		return errors.New("sync.recent_trades_limit must be >= 0")
	}

	if c.Trading.ReferrerAddress == "" {
		return errors.New("trading.referrer_address is required")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must be <= max_conns", prefix)
	}
	return nil
}
