package trading

import (
	"github.com/shopspring/decimal"

	"github.com/forkmarket/market-data/internal/model"
)

// OrderInput is the caller-supplied order request.
type OrderInput struct {
	ConditionID string `json:"condition_id"`
	TokenID     string `json:"token_id"`
	Side        int    `json:"side"`
	Type        int    `json:"type"`

	// Amounts arrive as numeric strings; all are optional.
	MakerAmount string `json:"maker_amount,omitempty"`
	Price       string `json:"price,omitempty"`
	Shares      string `json:"shares,omitempty"`
}

// parsedAmounts holds the validated numeric fields.
type parsedAmounts struct {
	MakerAmount decimal.NullDecimal
	Price       decimal.NullDecimal
	Shares      decimal.NullDecimal
}

// validate checks the order payload shape and returns the first invalid
// field as a *ValidationError.
func validate(in *OrderInput) (*parsedAmounts, error) {
	if in.ConditionID == "" {
		return nil, &ValidationError{Field: "condition_id", Message: "required"}
	}
	if in.TokenID == "" {
		return nil, &ValidationError{Field: "token_id", Message: "required"}
	}
	if in.Side != model.SideBuy && in.Side != model.SideSell {
		return nil, &ValidationError{Field: "side", Message: "must be 0 (buy) or 1 (sell)"}
	}
	if in.Type != model.TypeLimit && in.Type != model.TypeMarket {
		return nil, &ValidationError{Field: "type", Message: "must be 0 (limit) or 1 (market)"}
	}

	var amounts parsedAmounts
	var err error
	if amounts.MakerAmount, err = parseAmount("maker_amount", in.MakerAmount); err != nil {
		return nil, err
	}
	if amounts.Price, err = parseAmount("price", in.Price); err != nil {
		return nil, err
	}
	if amounts.Shares, err = parseAmount("shares", in.Shares); err != nil {
		return nil, err
	}

	return &amounts, nil
}

// parseAmount parses an optional numeric string field.
func parseAmount(field, value string) (decimal.NullDecimal, error) {
	if value == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, &ValidationError{Field: field, Message: "must be a numeric string"}
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, &ValidationError{Field: field, Message: "must not be negative"}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
