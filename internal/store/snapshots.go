package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/forkmarket/market-data/internal/model"
)

// ApplySnapshots applies a batch of condition snapshots atomically.
// Either every market, outcome and trade write in the batch commits, or
// none do.
func (s *Store) ApplySnapshots(ctx context.Context, snapshots []model.ConditionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var trades int
	for i := range snapshots {
		n, err := s.applyCondition(ctx, tx, &snapshots[i])
		if err != nil {
			return fmt.Errorf("apply condition %s: %w", snapshots[i].ConditionID, err)
		}
		trades += n
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}

	s.logger.Debug("applied snapshots",
		"conditions", len(snapshots),
		"trades", trades,
		"duration", time.Since(start),
	)
	return nil
}

// applyCondition writes one condition's market aggregate, outcome rows
// and recent trades inside the batch transaction. Returns the number of
// trades upserted.
func (s *Store) applyCondition(ctx context.Context, tx pgx.Tx, snap *model.ConditionSnapshot) (int, error) {
	vol24h, total := AggregateVolumes(snap.Outcomes)

	snapshotAt := snap.SnapshotAt
	if snapshotAt.IsZero() {
		// Exchange omitted the timestamp; use apply-time now.
		snapshotAt = s.now().UTC()
	}

	// GREATEST keeps last_snapshot_at monotonically non-decreasing even
	// if an older batch lands after a newer one.
	_, err := tx.Exec(ctx, `
		INSERT INTO markets (condition_id, status, outcome_count, current_volume_24h, total_volume, last_snapshot_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (condition_id) DO UPDATE SET
			status             = EXCLUDED.status,
			outcome_count      = EXCLUDED.outcome_count,
			current_volume_24h = EXCLUDED.current_volume_24h,
			total_volume       = EXCLUDED.total_volume,
			last_snapshot_at   = GREATEST(markets.last_snapshot_at, EXCLUDED.last_snapshot_at)
	`, snap.ConditionID, snap.Status, len(snap.Outcomes), vol24h, total, snapshotAt)
	if err != nil {
		return 0, fmt.Errorf("upsert market: %w", err)
	}

	for i := range snap.Outcomes {
		if err := s.upsertOutcome(ctx, tx, snap.ConditionID, &snap.Outcomes[i]); err != nil {
			return 0, fmt.Errorf("upsert outcome %s: %w", snap.Outcomes[i].TokenID, err)
		}
	}

	trades := collectTrades(snap.Outcomes)
	if err := upsertTrades(ctx, tx, trades); err != nil {
		return 0, fmt.Errorf("upsert trades: %w", err)
	}

	return len(trades), nil
}

// upsertOutcome overwrites the outcome row with the incoming snapshot.
func (s *Store) upsertOutcome(ctx context.Context, tx pgx.Tx, conditionID string, o *model.OutcomeSnapshot) error {
	currentPrice := ResolveCurrentPrice(o.LastTradePrice, o.BestBidPrice, o.BestAskPrice)

	_, err := tx.Exec(ctx, `
		INSERT INTO outcomes (
			token_id, condition_id,
			best_bid_price, best_bid_size, best_ask_price, best_ask_size,
			current_price, open_interest,
			rolling_24h_volume, rolling_total_volume,
			last_trade_price, last_trade_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (token_id) DO UPDATE SET
			best_bid_price       = EXCLUDED.best_bid_price,
			best_bid_size        = EXCLUDED.best_bid_size,
			best_ask_price       = EXCLUDED.best_ask_price,
			best_ask_size        = EXCLUDED.best_ask_size,
			current_price        = EXCLUDED.current_price,
			open_interest        = EXCLUDED.open_interest,
			rolling_24h_volume   = EXCLUDED.rolling_24h_volume,
			rolling_total_volume = EXCLUDED.rolling_total_volume,
			last_trade_price     = EXCLUDED.last_trade_price,
			last_trade_at        = EXCLUDED.last_trade_at
	`,
		o.TokenID, conditionID,
		o.BestBidPrice, o.BestBidSize, o.BestAskPrice, o.BestAskSize,
		currentPrice, o.OpenInterest,
		o.Rolling24hVolume, o.RollingTotalVolume,
		o.LastTradePrice, nullTime(o.LastTradeAt),
	)
	return err
}

// UpsertTrades applies trades outside a snapshot batch (the live stream
// path), in its own transaction. The same idempotency rule applies.
func (s *Store) UpsertTrades(ctx context.Context, trades []model.RecentTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin trade tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertTrades(ctx, tx, trades); err != nil {
		return fmt.Errorf("upsert trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trade tx: %w", err)
	}
	return nil
}

// upsertTrades queues one upsert per trade on a pgx batch. Keyed by
// trade_id; on conflict every mutable field is overwritten with the
// incoming values — the exchange is the single source of truth, local
// data never wins.
func upsertTrades(ctx context.Context, tx pgx.Tx, trades []model.RecentTrade) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range trades {
		t := &trades[i]
		batch.Queue(`
			INSERT INTO recent_trades (trade_id, token_id, price, size, side, executed_at, buyer_order_id, seller_order_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (trade_id) DO UPDATE SET
				token_id        = EXCLUDED.token_id,
				price           = EXCLUDED.price,
				size            = EXCLUDED.size,
				side            = EXCLUDED.side,
				executed_at     = EXCLUDED.executed_at,
				buyer_order_id  = EXCLUDED.buyer_order_id,
				seller_order_id = EXCLUDED.seller_order_id
		`, t.TradeID, t.TokenID, t.Price, t.Size, t.Side, nullTime(t.ExecutedAt),
			emptyNull(t.BuyerOrderID), emptyNull(t.SellerOrderID))
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range trades {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// collectTrades flattens and de-duplicates the recent trades of a
// condition's outcomes. A trade id may appear in more than one delivery;
// the last occurrence wins, matching the upsert semantics.
func collectTrades(outcomes []model.OutcomeSnapshot) []model.RecentTrade {
	var out []model.RecentTrade
	index := make(map[string]int)

	for i := range outcomes {
		for _, t := range outcomes[i].RecentTrades {
			if t.TradeID == "" {
				continue
			}
			if j, ok := index[t.TradeID]; ok {
				out[j] = t
				continue
			}
			index[t.TradeID] = len(out)
			out = append(out, t)
		}
	}
	return out
}

// AggregateVolumes sums rolling volumes across a condition's outcomes.
func AggregateVolumes(outcomes []model.OutcomeSnapshot) (vol24h, total decimal.Decimal) {
	for i := range outcomes {
		vol24h = vol24h.Add(outcomes[i].Rolling24hVolume)
		total = total.Add(outcomes[i].RollingTotalVolume)
	}
	return vol24h, total
}

// ResolveCurrentPrice picks the display price for an outcome: last trade
// price, then best bid, then best ask. An executed trade is more
// authoritative than a resting quote.
func ResolveCurrentPrice(lastTrade, bestBid, bestAsk decimal.NullDecimal) decimal.NullDecimal {
	switch {
	case lastTrade.Valid:
		return lastTrade
	case bestBid.Valid:
		return bestBid
	case bestAsk.Valid:
		return bestAsk
	}
	return decimal.NullDecimal{}
}
