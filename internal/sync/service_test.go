package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/forkmarket/market-data/internal/cache"
	"github.com/forkmarket/market-data/internal/model"
)

// fakeFetcher records calls and fails chunks on demand.
type fakeFetcher struct {
	mu    sync.Mutex
	calls [][]string

	// failChunk returns true when a chunk should fail.
	failChunk func(chunk []string) bool
}

func (f *fakeFetcher) FetchSnapshots(ctx context.Context, conditionIDs []string, recentTradesLimit int) ([]model.ConditionSnapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, conditionIDs)
	f.mu.Unlock()

	if f.failChunk != nil && f.failChunk(conditionIDs) {
		return nil, errors.New("exchange shard down")
	}

	snaps := make([]model.ConditionSnapshot, 0, len(conditionIDs))
	for _, id := range conditionIDs {
		snaps = append(snaps, model.ConditionSnapshot{ConditionID: id})
	}
	return snaps, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeApplier records applied batches.
type fakeApplier struct {
	mu      sync.Mutex
	applied [][]model.ConditionSnapshot
	err     error
	done    chan struct{}
}

func (a *fakeApplier) ApplySnapshots(ctx context.Context, snapshots []model.ConditionSnapshot) error {
	a.mu.Lock()
	a.applied = append(a.applied, snapshots)
	a.mu.Unlock()
	if a.done != nil {
		close(a.done)
	}
	return a.err
}

// fakeEvents resolves a fixed slug.
type fakeEvents struct {
	event *model.Event
	err   error
	calls int
}

func (e *fakeEvents) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.event, nil
}

func ids(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("0xcond%02d", i))
	}
	return out
}

func TestSyncConditions_ChunkIsolation(t *testing.T) {
	// 25 ids in chunks of 10; the middle chunk (ids 11-20) always fails.
	fetcher := &fakeFetcher{
		failChunk: func(chunk []string) bool {
			return chunk[0] == "0xcond11"
		},
	}
	svc := New(DefaultConfig(), fetcher, &fakeApplier{}, &fakeEvents{}, nil)

	snapshots := svc.SyncConditions(context.Background(), ids(25))

	if fetcher.callCount() != 3 {
		t.Errorf("chunk calls = %d, want 3", fetcher.callCount())
	}
	if len(snapshots) != 15 {
		t.Fatalf("len(snapshots) = %d, want 15 (chunks 1 and 3 only)", len(snapshots))
	}

	got := map[string]bool{}
	for _, s := range snapshots {
		got[s.ConditionID] = true
	}
	for i := 1; i <= 10; i++ {
		if !got[fmt.Sprintf("0xcond%02d", i)] {
			t.Errorf("missing snapshot for id %d from first chunk", i)
		}
	}
	for i := 11; i <= 20; i++ {
		if got[fmt.Sprintf("0xcond%02d", i)] {
			t.Errorf("unexpected snapshot for id %d from failed chunk", i)
		}
	}
	for i := 21; i <= 25; i++ {
		if !got[fmt.Sprintf("0xcond%02d", i)] {
			t.Errorf("missing snapshot for id %d from last chunk", i)
		}
	}
}

func TestSyncConditions_EmptyInputShortCircuits(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := New(DefaultConfig(), fetcher, &fakeApplier{}, &fakeEvents{}, nil)

	snapshots := svc.SyncConditions(context.Background(), nil)

	if len(snapshots) != 0 {
		t.Errorf("len(snapshots) = %d, want 0", len(snapshots))
	}
	if fetcher.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", fetcher.callCount())
	}
}

func TestSyncConditions_ChunkSizes(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := New(DefaultConfig(), fetcher, &fakeApplier{}, &fakeEvents{}, nil)

	svc.SyncConditions(context.Background(), ids(25))

	want := []int{10, 10, 5}
	if len(fetcher.calls) != len(want) {
		t.Fatalf("chunk calls = %d, want %d", len(fetcher.calls), len(want))
	}
	for i, chunk := range fetcher.calls {
		if len(chunk) != want[i] {
			t.Errorf("chunk %d size = %d, want %d", i, len(chunk), want[i])
		}
	}
}

func TestShouldRefresh_Boundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New(DefaultConfig(), &fakeFetcher{}, &fakeApplier{}, &fakeEvents{}, nil).
		WithClock(func() time.Time { return now })

	tests := []struct {
		name   string
		market *model.Market
		want   bool
	}{
		{"nil market", nil, true},
		{"never synced", &model.Market{}, true},
		{
			"exactly at threshold is fresh",
			&model.Market{LastSnapshotAt: now.Add(-30 * time.Second)},
			false,
		},
		{
			"one millisecond past threshold is stale",
			&model.Market{LastSnapshotAt: now.Add(-30*time.Second - time.Millisecond)},
			true,
		},
		{
			"recent snapshot is fresh",
			&model.Market{LastSnapshotAt: now.Add(-time.Second)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ShouldRefresh(tt.market); got != tt.want {
				t.Errorf("ShouldRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefreshEvent_NoConditionIDsIsNoop(t *testing.T) {
	fetcher := &fakeFetcher{}
	applier := &fakeApplier{}
	events := &fakeEvents{event: &model.Event{Slug: "empty-event"}}
	svc := New(DefaultConfig(), fetcher, applier, events, nil)

	if err := svc.RefreshEvent(context.Background(), "empty-event"); err != nil {
		t.Fatalf("RefreshEvent() error = %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", fetcher.callCount())
	}
	if len(applier.applied) != 0 {
		t.Errorf("applied batches = %d, want 0", len(applier.applied))
	}
}

func TestRefreshEvent_CachedSlugLookup(t *testing.T) {
	events := &fakeEvents{event: &model.Event{
		Slug:         "btc-above-100k",
		ConditionIDs: []string{"0xaaa"},
	}}
	svc := New(DefaultConfig(), &fakeFetcher{}, &fakeApplier{}, events, nil).
		WithEventCache(cache.New[string, model.Event](8, time.Minute, nil))

	for i := 0; i < 3; i++ {
		if err := svc.RefreshEvent(context.Background(), "btc-above-100k"); err != nil {
			t.Fatalf("RefreshEvent() #%d error = %v", i, err)
		}
	}

	if events.calls != 1 {
		t.Errorf("slug lookups = %d, want 1 (cached)", events.calls)
	}
}

func TestTriggerRefresh_Background(t *testing.T) {
	fetcher := &fakeFetcher{}
	applier := &fakeApplier{done: make(chan struct{})}
	events := &fakeEvents{event: &model.Event{
		Slug:         "btc-above-100k",
		ConditionIDs: []string{"0xaaa", "0xbbb"},
	}}
	svc := New(DefaultConfig(), fetcher, applier, events, nil)

	svc.TriggerRefresh("btc-above-100k")

	select {
	case <-applier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh never applied")
	}
	svc.Wait()

	if len(applier.applied) != 1 {
		t.Fatalf("applied batches = %d, want 1", len(applier.applied))
	}
	if len(applier.applied[0]) != 2 {
		t.Errorf("applied snapshots = %d, want 2", len(applier.applied[0]))
	}
}

func TestTriggerRefresh_FailureIsSwallowed(t *testing.T) {
	events := &fakeEvents{err: errors.New("store down")}
	svc := New(DefaultConfig(), &fakeFetcher{}, &fakeApplier{}, events, nil)

	// Must not panic or surface anything to the caller.
	svc.TriggerRefresh("some-event")
	svc.Wait()
}
