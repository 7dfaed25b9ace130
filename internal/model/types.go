package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Snapshot Types (mirrored from the exchange, read-only locally)
// -----------------------------------------------------------------------------

// ConditionSnapshot is one condition's state as reported by the exchange
// batch endpoint. It is the unit of work for the snapshot upsert engine.
type ConditionSnapshot struct {
	ConditionID string            // Exchange condition identifier
	Status      string            // Resolution status ("active", "resolved", ...)
	SnapshotAt  time.Time         // Exchange snapshot timestamp; zero if omitted
	Outcomes    []OutcomeSnapshot // One per outcome slot
}

// OutcomeSnapshot carries per-outcome pricing and volume.
type OutcomeSnapshot struct {
	TokenID string // Unique token identifier across all outcomes

	BestBidPrice decimal.NullDecimal
	BestBidSize  decimal.NullDecimal
	BestAskPrice decimal.NullDecimal
	BestAskSize  decimal.NullDecimal

	OpenInterest       decimal.Decimal
	Rolling24hVolume   decimal.Decimal
	RollingTotalVolume decimal.Decimal

	LastTradePrice decimal.NullDecimal
	LastTradeAt    time.Time // zero if never traded

	RecentTrades []RecentTrade
}

// RecentTrade is an immutable executed trade. TradeID is the natural
// idempotency key: re-delivery overwrites, never duplicates.
type RecentTrade struct {
	TradeID       string          `json:"trade_id"`
	TokenID       string          `json:"token_id"`
	Price         decimal.Decimal `json:"price"`
	Size          decimal.Decimal `json:"size"`
	Side          string          `json:"side"` // "buy" or "sell", normalized at the ingestion boundary
	ExecutedAt    time.Time       `json:"executed_at"`
	BuyerOrderID  string          `json:"buyer_order_id,omitempty"`
	SellerOrderID string          `json:"seller_order_id,omitempty"`
}

// -----------------------------------------------------------------------------
// Local Read Store Types
// -----------------------------------------------------------------------------

// Event groups one or more conditions under a URL slug.
type Event struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	ConditionIDs []string `json:"condition_ids"`
}

// Market is the local aggregate for one condition. Mutated only by the
// snapshot upsert engine.
type Market struct {
	ConditionID      string          `json:"condition_id"`
	EventID          int64           `json:"event_id"`
	Status           string          `json:"status"`
	OutcomeCount     int             `json:"outcome_count"`
	CurrentVolume24h decimal.Decimal `json:"current_volume_24h"`
	TotalVolume      decimal.Decimal `json:"total_volume"`
	LastSnapshotAt   time.Time       `json:"last_snapshot_at"` // monotonically non-decreasing; zero if never synced
}

// Outcome is the local row for one outcome token.
type Outcome struct {
	TokenID     string `json:"token_id"`
	ConditionID string `json:"condition_id"`

	BestBidPrice decimal.NullDecimal `json:"best_bid_price"`
	BestBidSize  decimal.NullDecimal `json:"best_bid_size"`
	BestAskPrice decimal.NullDecimal `json:"best_ask_price"`
	BestAskSize  decimal.NullDecimal `json:"best_ask_size"`

	// CurrentPrice resolves last trade -> best bid -> best ask.
	CurrentPrice decimal.NullDecimal `json:"current_price"`

	OpenInterest       decimal.Decimal `json:"open_interest"`
	Rolling24hVolume   decimal.Decimal `json:"rolling_24h_volume"`
	RollingTotalVolume decimal.Decimal `json:"rolling_total_volume"`

	LastTradePrice decimal.NullDecimal `json:"last_trade_price"`
	LastTradeAt    time.Time           `json:"last_trade_at"`
}

// -----------------------------------------------------------------------------
// Users, Referrals, Fees
// -----------------------------------------------------------------------------

// User is the session collaborator's view of an authenticated user.
type User struct {
	ID               int64
	Address          string // wallet address
	ReferredByUserID int64  // 0 if the user was not referred
}

// AffiliateReferral maps a user to the user that referred them.
type AffiliateReferral struct {
	UserID           int64
	AffiliateUserID  int64
	AffiliateAddress string // wallet of the affiliate user
}

// FeeSettings holds the admin-mutable basis-point configuration.
// Read-mostly; cached by callers.
type FeeSettings struct {
	TradeFeeBps       int64 // total fee charged per trade leg
	AffiliateShareBps int64 // fraction of the fee routed to an affiliate
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// Order side and type values follow the exchange wire encoding.
const (
	SideBuy  = 0
	SideSell = 1

	TypeLimit  = 0
	TypeMarket = 1
)

// Order is the local record of a trade submitted to and accepted by the
// exchange. Created once per acceptance; never mutated afterward except
// by downstream settlement.
type Order struct {
	ID              int64
	UserID          int64
	ExchangeOrderID string
	ConditionID     string
	TokenID         string
	Side            int
	Type            int
	MakerAddress    string

	MakerAmount decimal.NullDecimal
	Price       decimal.NullDecimal
	Shares      decimal.NullDecimal

	// Fee split computed at submission time. affiliate + fork always
	// reconstruct the total within 1e-6.
	TradeFeeBps        int64
	AffiliateShareBps  int64
	AffiliateFeeAmount decimal.Decimal
	ForkFeeAmount      decimal.Decimal
	AffiliateUserID    int64 // 0 when no affiliate resolved

	CreatedAt time.Time
}
