package exchange

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexDecimalUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      string
	}{
		{name: "quoted string", input: `"0.42"`, wantValid: true, want: "0.42"},
		{name: "bare number", input: `0.42`, wantValid: true, want: "0.42"},
		{name: "integer", input: `1250`, wantValid: true, want: "1250"},
		{name: "negative", input: `"-3.5"`, wantValid: true, want: "-3.5"},
		{name: "exponent", input: `"1.5e3"`, wantValid: true, want: "1500"},
		{name: "null", input: `null`, wantValid: false},
		{name: "empty string", input: `""`, wantValid: false},
		{name: "NaN string", input: `"NaN"`, wantValid: false},
		{name: "garbage", input: `"not a number"`, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexDecimal
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if f.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", f.Valid, tt.wantValid)
			}
			if tt.wantValid && f.Decimal.String() != tt.want {
				t.Errorf("Decimal = %s, want %s", f.Decimal, tt.want)
			}
		})
	}
}

func TestFlexDecimalAbsentField(t *testing.T) {
	var o APIOutcome
	if err := json.Unmarshal([]byte(`{"token_id": "t1"}`), &o); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if o.BestBidPrice.Valid {
		t.Error("absent best_bid_price decoded as valid")
	}
	if !o.OpenInterest.OrZero().IsZero() {
		t.Errorf("OrZero() = %s, want 0", o.OpenInterest.OrZero())
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339",
			input: "2025-06-01T12:00:00Z",
			want:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "with offset normalized to utc",
			input: "2025-06-01T14:00:00+02:00",
			want:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "no timezone",
			input: "2025-06-01T12:00:00",
			want:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "", want: time.Time{}},
		{name: "garbage", input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSide(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"BUY", "buy"},
		{"buy", "buy"},
		{"0", "buy"},
		{"b", "buy"},
		{"bid", "buy"},
		{"SELL", "sell"},
		{"1", "sell"},
		{"ask", "sell"},
		{" Sell ", "sell"},
		{"cross", "cross"},
	}

	for _, tt := range tests {
		if got := NormalizeSide(tt.input); got != tt.want {
			t.Errorf("NormalizeSide(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConditionToModel(t *testing.T) {
	payload := `{
		"condition_id": "0xABC",
		"status": "active",
		"snapshot_ts": "2025-06-01T12:00:00Z",
		"outcomes": [
			{
				"token_id": "token-yes",
				"best_bid_price": "0.42",
				"best_bid_size": 100,
				"best_ask_price": null,
				"rolling_24h_volume": "1250.5",
				"last_trade_price": null,
				"recent_trades": [
					{
						"trade_id": "tr-1",
						"token_id": "token-yes",
						"price": "0.41",
						"size": "10",
						"side": "BUY",
						"executed_at": "2025-06-01T11:59:00Z",
						"buyer_order_id": "ord-b"
					}
				]
			}
		]
	}`

	var cond APICondition
	if err := json.Unmarshal([]byte(payload), &cond); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	snap := cond.ToModel()
	if snap.ConditionID != "0xabc" {
		t.Errorf("ConditionID = %q, want 0xabc", snap.ConditionID)
	}
	if snap.Status != "active" {
		t.Errorf("Status = %q, want active", snap.Status)
	}
	if want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC); !snap.SnapshotAt.Equal(want) {
		t.Errorf("SnapshotAt = %v, want %v", snap.SnapshotAt, want)
	}
	if len(snap.Outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(snap.Outcomes))
	}

	out := snap.Outcomes[0]
	if out.TokenID != "token-yes" {
		t.Errorf("TokenID = %q, want token-yes", out.TokenID)
	}
	if !out.BestBidPrice.Valid || out.BestBidPrice.Decimal.String() != "0.42" {
		t.Errorf("BestBidPrice = %+v, want valid 0.42", out.BestBidPrice)
	}
	if out.BestAskPrice.Valid {
		t.Error("BestAskPrice = valid, want null")
	}
	if out.LastTradePrice.Valid {
		t.Error("LastTradePrice = valid, want null")
	}
	if out.Rolling24hVolume.String() != "1250.5" {
		t.Errorf("Rolling24hVolume = %s, want 1250.5", out.Rolling24hVolume)
	}

	if len(out.RecentTrades) != 1 {
		t.Fatalf("got %d trades, want 1", len(out.RecentTrades))
	}
	trade := out.RecentTrades[0]
	if trade.TradeID != "tr-1" {
		t.Errorf("TradeID = %q, want tr-1", trade.TradeID)
	}
	if trade.Side != "buy" {
		t.Errorf("Side = %q, want buy (normalized)", trade.Side)
	}
	if trade.Price.String() != "0.41" {
		t.Errorf("Price = %s, want 0.41", trade.Price)
	}
	if trade.BuyerOrderID != "ord-b" || trade.SellerOrderID != "" {
		t.Errorf("order ids = (%q, %q)", trade.BuyerOrderID, trade.SellerOrderID)
	}
}

func TestSnapshotsToModel(t *testing.T) {
	conditions := []APICondition{
		{ConditionID: "0xA", Status: "active"},
		{ConditionID: "0xB", Status: "resolved"},
	}

	snaps := SnapshotsToModel(conditions)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].ConditionID != "0xa" || snaps[1].ConditionID != "0xb" {
		t.Errorf("ids = %q, %q, want lowercased", snaps[0].ConditionID, snaps[1].ConditionID)
	}
}
