package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/contextx"
	"aucwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ErrRunInProgress is returned when a collection run is requested while
// the previous one is still going.
var ErrRunInProgress = errors.New("collection run already in progress")

type FavoriteRepository interface {
	ListActive(ctx context.Context) ([]entity.Favorite, error)
	UpdateSnapshot(ctx context.Context, id int64, currentPrice float64, previousPrice *float64, checkedAt time.Time) error
	MarkAlerted(ctx context.Context, id int64, notifiedAt time.Time) error
}

type SnapshotService interface {
	BuildSnapshotForGroup(ctx context.Context, identityKey, displayName string, sample entity.Favorite) (*value.Snapshot, error)
	SaveSnapshot(ctx context.Context, identityKey string, snap value.Snapshot) error
}

// SnapshotCollector polls the upstream once per identity group and fans
// the resulting snapshot out to every favorite in the group.
type SnapshotCollector struct {
	favorites   FavoriteRepository
	snapshots   SnapshotService
	concurrency int

	mu      sync.Mutex
	running bool
}

func NewSnapshotCollector(favorites FavoriteRepository, snapshots SnapshotService, concurrency int) *SnapshotCollector {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &SnapshotCollector{
		favorites:   favorites,
		snapshots:   snapshots,
		concurrency: concurrency,
	}
}

func (c *SnapshotCollector) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run executes one collection cycle. Overlapping runs are rejected so a
// slow upstream never piles cycles on top of each other.
func (c *SnapshotCollector) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		collectorRunsTotal.WithLabelValues("snapshot", outcomeBusy).Inc()
		return ErrRunInProgress
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	favorites, err := c.favorites.ListActive(ctx)
	if err != nil {
		collectorRunsTotal.WithLabelValues("snapshot", outcomeError).Inc()
		return err
	}

	groups := groupFavorites(ctx, favorites)

	started := time.Now()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for key, group := range groups {
		g.Go(func() error {
			// One failed group must not starve the rest of the cycle.
			if err := c.collectGroup(gCtx, key, group); err != nil {
				snapshotGroupsTotal.WithLabelValues(outcomeError).Inc()
				logger(gCtx).Error("group collection failed",
					slog.String("group", key),
					logx.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()

	collectorRunsTotal.WithLabelValues("snapshot", outcomeOK).Inc()
	logger(ctx).Info("snapshot cycle completed",
		slog.Int("favorites", len(favorites)),
		slog.Int("groups", len(groups)),
		slog.Duration("took", time.Since(started)),
	)

	return nil
}

func (c *SnapshotCollector) collectGroup(ctx context.Context, key string, group []entity.Favorite) error {
	sample := group[0]

	snap, err := c.snapshots.BuildSnapshotForGroup(ctx, key, sample.Name, sample)
	if err != nil {
		return err
	}

	if snap == nil {
		snapshotGroupsTotal.WithLabelValues(outcomeMiss).Inc()
		logger(ctx).Debug("listing not found", slog.String("group", key))
		return nil
	}

	if err := c.snapshots.SaveSnapshot(ctx, key, *snap); err != nil {
		return err
	}

	now := time.Now()

	for _, favorite := range group {
		previous := previousPriceFor(favorite, *snap)
		if err := c.favorites.UpdateSnapshot(ctx, favorite.ID, snap.CurrentPrice, previous, now); err != nil {
			logger(ctx).Error("favorite update failed",
				slog.Int64("favorite", favorite.ID),
				logx.Error(err),
			)
		}
	}

	snapshotGroupsTotal.WithLabelValues(outcomeOK).Inc()

	return nil
}

// groupFavorites buckets favorites by identity group so the upstream is
// queried once per distinct listing. Favorites without a computable
// identity are skipped, not failed.
func groupFavorites(ctx context.Context, favorites []entity.Favorite) map[string][]entity.Favorite {
	groups := make(map[string][]entity.Favorite, len(favorites))

	for _, favorite := range favorites {
		key, ok := favorite.GroupKey()
		if !ok {
			snapshotGroupsTotal.WithLabelValues(outcomeSkipped).Inc()
			logger(ctx).Warn("favorite has no identity, skipping",
				slog.Int64("favorite", favorite.ID),
				slog.String("name", favorite.Name),
			)
			continue
		}

		groups[key] = append(groups[key], favorite)
	}

	return groups
}

// previousPriceFor keeps the drop rule supplied with a baseline: when the
// snapshot itself carries no previous price, the price last seen on the
// favorite becomes it.
func previousPriceFor(favorite entity.Favorite, snap value.Snapshot) *float64 {
	if snap.PreviousPrice != nil {
		return snap.PreviousPrice
	}

	if favorite.CurrentPrice > 0 {
		prev := favorite.CurrentPrice
		return &prev
	}

	return nil
}
