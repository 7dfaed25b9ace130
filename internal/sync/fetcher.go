package sync

import (
	"context"

	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
)

// ExchangeFetcher adapts the exchange client to the Fetcher interface,
// converting wire snapshots to model types at the boundary.
type ExchangeFetcher struct {
	client *exchange.Client
}

// NewExchangeFetcher wraps an exchange client.
func NewExchangeFetcher(client *exchange.Client) *ExchangeFetcher {
	return &ExchangeFetcher{client: client}
}

// FetchSnapshots fetches one chunk of condition snapshots.
func (f *ExchangeFetcher) FetchSnapshots(ctx context.Context, conditionIDs []string, recentTradesLimit int) ([]model.ConditionSnapshot, error) {
	conditions, err := f.client.FetchConditionSnapshots(ctx, conditionIDs, recentTradesLimit)
	if err != nil {
		return nil, err
	}
	return exchange.SnapshotsToModel(conditions), nil
}
