package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FetchConditionSnapshots fetches batched snapshots for the given
// condition ids. Identifiers are case-normalized and de-duplicated before
// being joined into a single comma-separated query parameter. The caller
// is responsible for keeping the batch within the exchange's limit.
func (c *Client) FetchConditionSnapshots(ctx context.Context, conditionIDs []string, recentTradesLimit int) ([]APICondition, error) {
	ids := NormalizeConditionIDs(conditionIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("fetch condition snapshots: no condition ids")
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	if recentTradesLimit > 0 {
		query.Set("recent_trades_limit", strconv.Itoa(recentTradesLimit))
	}

	var resp ConditionsResponse
	if err := c.get(ctx, "/v1/conditions", query, &resp); err != nil {
		return nil, fmt.Errorf("fetch condition snapshots: %w", err)
	}

	return resp.Conditions, nil
}

// FetchOrderBook fetches the order book for a single token.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (*OrderBook, error) {
	query := url.Values{}
	query.Set("token_id", tokenID)

	var book OrderBook
	if err := c.get(ctx, "/book", query, &book); err != nil {
		return nil, fmt.Errorf("fetch order book %s: %w", tokenID, err)
	}
	if book.TokenID == "" {
		book.TokenID = tokenID
	}

	return &book, nil
}

// NormalizeConditionIDs lowercases, trims and de-duplicates condition
// ids, preserving first-seen order.
func NormalizeConditionIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
