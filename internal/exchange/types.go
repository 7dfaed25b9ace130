package exchange

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexDecimal is a decimal that unmarshals from a JSON string, number or
// null. The exchange emits prices and sizes as strings or numbers
// interchangeably; this is the single coercion point for all of them.
// Absent, null, empty or non-finite values decode as invalid rather than
// propagating garbage into storage.
type FlexDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = FlexDecimal{}
		return nil
	}

	s := string(data)
	if len(data) >= 2 && data[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			*f = FlexDecimal{}
			return nil
		}
		s = unquoted
	}
	if s == "" {
		*f = FlexDecimal{}
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		// "NaN", "Infinity" and friends land here. Treat as absent.
		*f = FlexDecimal{}
		return nil
	}

	*f = FlexDecimal{Decimal: d, Valid: true}
	return nil
}

// Null returns the value as a decimal.NullDecimal.
func (f FlexDecimal) Null() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: f.Decimal, Valid: f.Valid}
}

// OrZero returns the value, or zero when absent. Used for volumes and
// open interest where a neutral default is correct.
func (f FlexDecimal) OrZero() decimal.Decimal {
	if !f.Valid {
		return decimal.Decimal{}
	}
	return f.Decimal
}

// -----------------------------------------------------------------------------
// Wire types: GET /v1/conditions
// -----------------------------------------------------------------------------

// ConditionsResponse is the batched snapshot payload.
type ConditionsResponse struct {
	GeneratedAt string         `json:"generated_at"`
	Conditions  []APICondition `json:"conditions"`
}

// APICondition is one condition snapshot as returned by the exchange.
type APICondition struct {
	ConditionID string       `json:"condition_id"`
	Status      string       `json:"status"`
	SnapshotTS  string       `json:"snapshot_ts"`
	Outcomes    []APIOutcome `json:"outcomes"`
}

// APIOutcome is one outcome within a condition snapshot.
type APIOutcome struct {
	TokenID            string      `json:"token_id"`
	BestBidPrice       FlexDecimal `json:"best_bid_price"`
	BestBidSize        FlexDecimal `json:"best_bid_size"`
	BestAskPrice       FlexDecimal `json:"best_ask_price"`
	BestAskSize        FlexDecimal `json:"best_ask_size"`
	OpenInterest       FlexDecimal `json:"open_interest"`
	Rolling24hVolume   FlexDecimal `json:"rolling_24h_volume"`
	RollingTotalVolume FlexDecimal `json:"rolling_total_volume"`
	LastTradePrice     FlexDecimal `json:"last_trade_price"`
	LastTradeTS        string      `json:"last_trade_ts"`
	RecentTrades       []APITrade  `json:"recent_trades"`
}

// APITrade is one recent trade within an outcome snapshot.
type APITrade struct {
	TradeID       string      `json:"trade_id"`
	TokenID       string      `json:"token_id"`
	Price         FlexDecimal `json:"price"`
	Size          FlexDecimal `json:"size"`
	Side          string      `json:"side"`
	ExecutedAt    string      `json:"executed_at"`
	BuyerOrderID  string      `json:"buyer_order_id,omitempty"`
	SellerOrderID string      `json:"seller_order_id,omitempty"`
}

// -----------------------------------------------------------------------------
// Wire types: GET /book
// -----------------------------------------------------------------------------

// OrderBook is the displayed book for one token.
type OrderBook struct {
	TokenID string      `json:"token_id"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
}

// BookLevel is one resting price level.
type BookLevel struct {
	Price FlexDecimal `json:"price"`
	Size  FlexDecimal `json:"size"`
}

// -----------------------------------------------------------------------------
// Wire types: POST /v1/orders
// -----------------------------------------------------------------------------

// OrderRequest is the signed order payload submitted to the exchange.
type OrderRequest struct {
	FeeRateBps         int64  `json:"fee_rate_bps"`
	TakerAddress       string `json:"taker_address"`
	MakerAddress       string `json:"maker_address"`
	TokenID            string `json:"token_id"`
	ConditionID        string `json:"condition_id"`
	Salt               string `json:"salt"`
	ConditionExpiresAt int64  `json:"condition_expires_at"`
	Side               int    `json:"side"`
	Type               int    `json:"type"`

	MakerAmount string `json:"maker_amount,omitempty"`
	Price       string `json:"price,omitempty"`
	Shares      string `json:"shares,omitempty"`

	Referrer            string `json:"referrer"`
	Affiliate           string `json:"affiliate,omitempty"`
	AffiliatePercentage string `json:"affiliate_percentage"`
}

// OrderResult is the exchange's acceptance payload.
type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
