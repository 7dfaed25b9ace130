package store

import (
	"context"
	"fmt"

	"github.com/forkmarket/market-data/internal/model"
)

// InsertOrder persists the local record of an exchange-accepted order,
// carrying the exact fee split computed at submission time. Returns the
// local row id.
func (s *Store) InsertOrder(ctx context.Context, o *model.Order) (int64, error) {
	var affiliateUserID *int64
	if o.AffiliateUserID != 0 {
		affiliateUserID = &o.AffiliateUserID
	}

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO orders (
			user_id, exchange_order_id, condition_id, token_id,
			side, type, maker_address,
			maker_amount, price, shares,
			trade_fee_bps, affiliate_share_bps,
			affiliate_fee_amount, fork_fee_amount, affiliate_user_id,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`,
		o.UserID, o.ExchangeOrderID, o.ConditionID, o.TokenID,
		o.Side, o.Type, o.MakerAddress,
		o.MakerAmount, o.Price, o.Shares,
		o.TradeFeeBps, o.AffiliateShareBps,
		o.AffiliateFeeAmount, o.ForkFeeAmount, affiliateUserID,
		s.now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	return id, nil
}
