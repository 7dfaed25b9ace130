package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forkmarket/market-data/internal/cache"
	"github.com/forkmarket/market-data/internal/model"
)

// Fetcher pulls condition snapshots from the exchange.
type Fetcher interface {
	FetchSnapshots(ctx context.Context, conditionIDs []string, recentTradesLimit int) ([]model.ConditionSnapshot, error)
}

// Applier writes a snapshot batch to the read store atomically.
type Applier interface {
	ApplySnapshots(ctx context.Context, snapshots []model.ConditionSnapshot) error
}

// EventSource resolves an event slug to its condition ids.
type EventSource interface {
	GetEventBySlug(ctx context.Context, slug string) (*model.Event, error)
}

// Config holds synchronization settings.
type Config struct {
	// BatchSize is the exchange's batch limit for condition ids.
	BatchSize int

	// StalenessThreshold is the snapshot age beyond which a market is
	// considered stale.
	StalenessThreshold time.Duration

	// RecentTradesLimit is forwarded to the batch endpoint.
	RecentTradesLimit int

	// RefreshTimeout bounds a background refresh.
	RefreshTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:          10,
		StalenessThreshold: 30 * time.Second,
		RecentTradesLimit:  50,
		RefreshTimeout:     30 * time.Second,
	}
}

// Service owns snapshot synchronization: batched fetching with per-chunk
// failure isolation, the staleness gate, and fire-and-forget refreshes.
type Service struct {
	cfg        Config
	fetcher    Fetcher
	applier    Applier
	events     EventSource
	eventCache *cache.Cache[string, model.Event]
	logger     *slog.Logger
	now        func() time.Time

	// In-flight background refreshes, keyed by event slug, so repeated
	// page hits do not stampede the exchange.
	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// New creates a sync Service.
func New(cfg Config, fetcher Fetcher, applier Applier, events EventSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 30 * time.Second
	}
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		applier:  applier,
		events:   events,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// WithClock injects the clock used by the staleness gate. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithEventCache caches slug -> event lookups so hot events do not hit
// the store on every refresh.
func (s *Service) WithEventCache(c *cache.Cache[string, model.Event]) *Service {
	s.eventCache = c
	return s
}

// SyncConditions fetches snapshots for the given condition ids in chunks
// of at most BatchSize, sequentially. A failed chunk is logged and
// skipped; the result is the concatenation of every chunk that
// succeeded, so it may be partial. An empty input returns immediately
// without any network call.
func (s *Service) SyncConditions(ctx context.Context, conditionIDs []string) []model.ConditionSnapshot {
	if len(conditionIDs) == 0 {
		return nil
	}

	chunks := splitChunks(conditionIDs, s.cfg.BatchSize)
	snapshots := make([]model.ConditionSnapshot, 0, len(conditionIDs))
	var failed int

	for i, chunk := range chunks {
		batch, err := s.fetcher.FetchSnapshots(ctx, chunk, s.cfg.RecentTradesLimit)
		if err != nil {
			failed++
			s.logger.Warn("snapshot chunk failed",
				"chunk", i,
				"ids", len(chunk),
				"error", err,
			)
			continue
		}
		snapshots = append(snapshots, batch...)
	}

	if failed > 0 {
		s.logger.Info("condition sync partial",
			"chunks", len(chunks),
			"failed", failed,
			"snapshots", len(snapshots),
		)
	}
	return snapshots
}

// ShouldRefresh reports whether a market's cached snapshot is too old to
// serve without a resync. A market with no snapshot timestamp is always
// stale. Age exactly at the threshold is still fresh.
func (s *Service) ShouldRefresh(m *model.Market) bool {
	if m == nil || m.LastSnapshotAt.IsZero() {
		return true
	}
	return s.now().Sub(m.LastSnapshotAt) > s.cfg.StalenessThreshold
}

// RefreshEvent resolves an event's condition ids, syncs them and applies
// the result in one transaction. An event with no condition ids is a
// no-op.
func (s *Service) RefreshEvent(ctx context.Context, slug string) error {
	ev, err := s.lookupEvent(ctx, slug)
	if err != nil {
		return err
	}
	if len(ev.ConditionIDs) == 0 {
		return nil
	}

	snapshots := s.SyncConditions(ctx, ev.ConditionIDs)
	if len(snapshots) == 0 {
		return nil
	}

	return s.applier.ApplySnapshots(ctx, snapshots)
}

// TriggerRefresh starts a background refresh for an event. The caller
// holds no handle and cannot observe completion; failures are logged
// only. At most one refresh per slug runs at a time.
func (s *Service) TriggerRefresh(slug string) {
	s.mu.Lock()
	if _, running := s.inflight[slug]; running {
		s.mu.Unlock()
		return
	}
	s.inflight[slug] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, slug)
			s.mu.Unlock()
		}()

		// Detached from the request: the trigger must not be cancelled
		// when the triggering request finishes.
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RefreshTimeout)
		defer cancel()

		if err := s.RefreshEvent(ctx, slug); err != nil {
			s.logger.Warn("background refresh failed", "slug", slug, "error", err)
		}
	}()
}

// lookupEvent resolves a slug, consulting the event cache first.
func (s *Service) lookupEvent(ctx context.Context, slug string) (*model.Event, error) {
	if s.eventCache != nil {
		if ev, ok := s.eventCache.Get(slug); ok {
			return &ev, nil
		}
	}

	ev, err := s.events.GetEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.eventCache != nil {
		s.eventCache.Set(slug, *ev)
	}
	return ev, nil
}

// Wait blocks until all in-flight background refreshes finish. Called
// during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// splitChunks partitions ids into chunks of at most size.
func splitChunks(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
