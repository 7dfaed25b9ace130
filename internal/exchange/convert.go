package exchange

import (
	"strings"
	"time"

	"github.com/forkmarket/market-data/internal/model"
)

// ParseTimestamp parses an ISO 8601 timestamp. Returns the zero time for
// empty or unparseable input; callers treat zero as "not provided".
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t.UTC()
}

// NormalizeSide maps the exchange's side encodings ("BUY", "sell", "0",
// "1") to "buy"/"sell". Unknown values pass through lowercased.
func NormalizeSide(side string) string {
	s := strings.ToLower(strings.TrimSpace(side))
	switch s {
	case "0", "b", "bid", "buy":
		return "buy"
	case "1", "s", "ask", "sell":
		return "sell"
	}
	return s
}

// ToModel converts an APICondition to a model.ConditionSnapshot,
// coercing all dynamic numeric fields at this boundary.
func (c *APICondition) ToModel() model.ConditionSnapshot {
	outcomes := make([]model.OutcomeSnapshot, 0, len(c.Outcomes))
	for i := range c.Outcomes {
		outcomes = append(outcomes, c.Outcomes[i].ToModel())
	}

	return model.ConditionSnapshot{
		ConditionID: strings.ToLower(c.ConditionID),
		Status:      c.Status,
		SnapshotAt:  ParseTimestamp(c.SnapshotTS),
		Outcomes:    outcomes,
	}
}

// ToModel converts an APIOutcome to a model.OutcomeSnapshot.
func (o *APIOutcome) ToModel() model.OutcomeSnapshot {
	trades := make([]model.RecentTrade, 0, len(o.RecentTrades))
	for i := range o.RecentTrades {
		trades = append(trades, o.RecentTrades[i].ToModel())
	}

	return model.OutcomeSnapshot{
		TokenID:            o.TokenID,
		BestBidPrice:       o.BestBidPrice.Null(),
		BestBidSize:        o.BestBidSize.Null(),
		BestAskPrice:       o.BestAskPrice.Null(),
		BestAskSize:        o.BestAskSize.Null(),
		OpenInterest:       o.OpenInterest.OrZero(),
		Rolling24hVolume:   o.Rolling24hVolume.OrZero(),
		RollingTotalVolume: o.RollingTotalVolume.OrZero(),
		LastTradePrice:     o.LastTradePrice.Null(),
		LastTradeAt:        ParseTimestamp(o.LastTradeTS),
		RecentTrades:       trades,
	}
}

// ToModel converts an APITrade to a model.RecentTrade.
func (t *APITrade) ToModel() model.RecentTrade {
	return model.RecentTrade{
		TradeID:       t.TradeID,
		TokenID:       t.TokenID,
		Price:         t.Price.OrZero(),
		Size:          t.Size.OrZero(),
		Side:          NormalizeSide(t.Side),
		ExecutedAt:    ParseTimestamp(t.ExecutedAt),
		BuyerOrderID:  t.BuyerOrderID,
		SellerOrderID: t.SellerOrderID,
	}
}

// SnapshotsToModel converts a batch of API conditions.
func SnapshotsToModel(conditions []APICondition) []model.ConditionSnapshot {
	out := make([]model.ConditionSnapshot, 0, len(conditions))
	for i := range conditions {
		out = append(out, conditions[i].ToModel())
	}
	return out
}
