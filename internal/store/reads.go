package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/forkmarket/market-data/internal/model"
)

// ErrNotFound reports a missing row for single-row reads.
var ErrNotFound = errors.New("not found")

// GetEventBySlug returns an event and its condition ids.
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	var ev model.Event
	err := s.db.QueryRow(ctx, `
		SELECT e.id, e.slug, e.title,
		       COALESCE(array_agg(m.condition_id) FILTER (WHERE m.condition_id IS NOT NULL), '{}')
		FROM events e
		LEFT JOIN markets m ON m.event_id = e.id
		WHERE e.slug = $1
		GROUP BY e.id, e.slug, e.title
	`, slug).Scan(&ev.ID, &ev.Slug, &ev.Title, &ev.ConditionIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("get event %s: %w", slug, err)
	}
	return &ev, nil
}

// GetMarketsByEventSlug returns the markets backing an event.
func (s *Store) GetMarketsByEventSlug(ctx context.Context, slug string) ([]model.Market, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.condition_id, COALESCE(m.event_id, 0), m.status, m.outcome_count,
		       m.current_volume_24h, m.total_volume, COALESCE(m.last_snapshot_at, 'epoch'::timestamptz)
		FROM markets m
		JOIN events e ON e.id = m.event_id
		WHERE e.slug = $1
		ORDER BY m.condition_id
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("get markets for %s: %w", slug, err)
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		var m model.Market
		var lastSnapshot time.Time
		if err := rows.Scan(&m.ConditionID, &m.EventID, &m.Status, &m.OutcomeCount,
			&m.CurrentVolume24h, &m.TotalVolume, &lastSnapshot); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		if lastSnapshot.Unix() > 0 {
			m.LastSnapshotAt = lastSnapshot
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// GetOutcomesByConditionIDs returns outcome rows for the given conditions.
func (s *Store) GetOutcomesByConditionIDs(ctx context.Context, conditionIDs []string) ([]model.Outcome, error) {
	if len(conditionIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT token_id, condition_id,
		       best_bid_price, best_bid_size, best_ask_price, best_ask_size,
		       current_price, open_interest,
		       rolling_24h_volume, rolling_total_volume,
		       last_trade_price, COALESCE(last_trade_at, 'epoch'::timestamptz)
		FROM outcomes
		WHERE condition_id = ANY($1)
		ORDER BY condition_id, token_id
	`, conditionIDs)
	if err != nil {
		return nil, fmt.Errorf("get outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var lastTradeAt time.Time
		if err := rows.Scan(&o.TokenID, &o.ConditionID,
			&o.BestBidPrice, &o.BestBidSize, &o.BestAskPrice, &o.BestAskSize,
			&o.CurrentPrice, &o.OpenInterest,
			&o.Rolling24hVolume, &o.RollingTotalVolume,
			&o.LastTradePrice, &lastTradeAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if lastTradeAt.Unix() > 0 {
			o.LastTradeAt = lastTradeAt
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// GetRecentTrades returns the newest trades for a token, newest first.
func (s *Store) GetRecentTrades(ctx context.Context, tokenID string, limit int) ([]model.RecentTrade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT trade_id, token_id, price, size, side,
		       COALESCE(executed_at, 'epoch'::timestamptz),
		       COALESCE(buyer_order_id, ''), COALESCE(seller_order_id, '')
		FROM recent_trades
		WHERE token_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`, tokenID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent trades %s: %w", tokenID, err)
	}
	defer rows.Close()

	var trades []model.RecentTrade
	for rows.Next() {
		var t model.RecentTrade
		if err := rows.Scan(&t.TradeID, &t.TokenID, &t.Price, &t.Size, &t.Side,
			&t.ExecutedAt, &t.BuyerOrderID, &t.SellerOrderID); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetFeeSettings returns the current basis-point fee configuration.
// Exactly one row exists; callers cache the result.
func (s *Store) GetFeeSettings(ctx context.Context) (*model.FeeSettings, error) {
	var fs model.FeeSettings
	err := s.db.QueryRow(ctx, `
		SELECT trade_fee_bps, affiliate_share_bps
		FROM fee_settings
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&fs.TradeFeeBps, &fs.AffiliateShareBps)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fee settings: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get fee settings: %w", err)
	}
	return &fs, nil
}

// GetReferralForUser returns the affiliate relationship for a user, or
// nil when the user has none.
func (s *Store) GetReferralForUser(ctx context.Context, userID int64) (*model.AffiliateReferral, error) {
	var ref model.AffiliateReferral
	err := s.db.QueryRow(ctx, `
		SELECT r.user_id, r.affiliate_user_id, u.address
		FROM affiliate_referrals r
		JOIN users u ON u.id = r.affiliate_user_id
		WHERE r.user_id = $1
	`, userID).Scan(&ref.UserID, &ref.AffiliateUserID, &ref.AffiliateAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get referral for user %d: %w", userID, err)
	}
	return &ref, nil
}

// GetUserByToken resolves a session token to a user.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx, `
		SELECT id, address, COALESCE(referred_by_user_id, 0)
		FROM users
		WHERE session_token = $1
	`, token).Scan(&u.ID, &u.Address, &u.ReferredByUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return &u, nil
}

// GetUserByID returns a user row by id, or nil if absent.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx, `
		SELECT id, address, COALESCE(referred_by_user_id, 0)
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Address, &u.ReferredByUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// TrackedTokenIDs returns every outcome token currently in the store,
// used by the live trade stream to subscribe.
func (s *Store) TrackedTokenIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT token_id FROM outcomes ORDER BY token_id`)
	if err != nil {
		return nil, fmt.Errorf("tracked tokens: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
