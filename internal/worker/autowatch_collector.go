package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"aucwatch/internal/domain/entity"
	"aucwatch/pkg/logx"
)

type AutoWatchRepository interface {
	ListEnabled(ctx context.Context) ([]entity.AutoWatch, error)
	MarkSnapshot(ctx context.Context, id int64, at time.Time) error
	Disable(ctx context.Context, id int64) error
}

type FavoriteActivity interface {
	ActiveTouchedSince(ctx context.Context, groupKey string, since time.Time) (bool, error)
}

// AutoWatchCollector snapshots items users merely looked at, building
// history before anyone commits to a favorite. Entries nobody has shown
// interest in for a full window get evicted.
type AutoWatchCollector struct {
	watches   AutoWatchRepository
	favorites FavoriteActivity
	snapshots SnapshotService
	window    time.Duration

	mu      sync.Mutex
	running bool
}

func NewAutoWatchCollector(
	watches AutoWatchRepository,
	favorites FavoriteActivity,
	snapshots SnapshotService,
	window time.Duration,
) *AutoWatchCollector {
	if window <= 0 {
		window = 72 * time.Hour
	}

	return &AutoWatchCollector{
		watches:   watches,
		favorites: favorites,
		snapshots: snapshots,
		window:    window,
	}
}

func (c *AutoWatchCollector) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		collectorRunsTotal.WithLabelValues("autowatch", outcomeBusy).Inc()
		return ErrRunInProgress
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	watches, err := c.watches.ListEnabled(ctx)
	if err != nil {
		collectorRunsTotal.WithLabelValues("autowatch", outcomeError).Inc()
		return err
	}

	for _, watch := range watches {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.collectOne(ctx, watch); err != nil {
			logger(ctx).Error("auto watch collection failed",
				slog.Int64("watch", watch.ID),
				slog.String("key", watch.ItemKey),
				logx.Error(err),
			)
		}
	}

	collectorRunsTotal.WithLabelValues("autowatch", outcomeOK).Inc()

	return nil
}

func (c *AutoWatchCollector) collectOne(ctx context.Context, watch entity.AutoWatch) error {
	var sample entity.Favorite
	if len(watch.Sample) > 0 {
		if err := jsoniter.Unmarshal(watch.Sample, &sample); err != nil {
			return err
		}
	}
	if sample.Name == "" {
		sample.Name = watch.DisplayName
	}

	snap, err := c.snapshots.BuildSnapshotForGroup(ctx, watch.ItemKey, watch.DisplayName, sample)
	if err != nil {
		return err
	}

	if snap == nil {
		return nil
	}

	if err := c.snapshots.SaveSnapshot(ctx, watch.ItemKey, *snap); err != nil {
		return err
	}

	return c.watches.MarkSnapshot(ctx, watch.ID, time.Now())
}

// Evict disables entries whose item nobody has viewed or actively
// tracked within the window. History rows stay behind.
func (c *AutoWatchCollector) Evict(ctx context.Context) error {
	watches, err := c.watches.ListEnabled(ctx)
	if err != nil {
		collectorRunsTotal.WithLabelValues("eviction", outcomeError).Inc()
		return err
	}

	cutoff := time.Now().Add(-c.window)

	for _, watch := range watches {
		if err := ctx.Err(); err != nil {
			return err
		}

		if watch.LastSeenAt != nil && watch.LastSeenAt.After(cutoff) {
			continue
		}

		touched, err := c.favorites.ActiveTouchedSince(ctx, watch.ItemKey, cutoff)
		if err != nil {
			logger(ctx).Error("eviction activity check failed",
				slog.Int64("watch", watch.ID),
				logx.Error(err),
			)
			continue
		}
		if touched {
			continue
		}

		if err := c.watches.Disable(ctx, watch.ID); err != nil {
			logger(ctx).Error("eviction disable failed",
				slog.Int64("watch", watch.ID),
				logx.Error(err),
			)
			continue
		}

		autoWatchEvictedTotal.Inc()
		logger(ctx).Info("auto watch evicted",
			slog.Int64("watch", watch.ID),
			slog.String("key", watch.ItemKey),
		)
	}

	collectorRunsTotal.WithLabelValues("eviction", outcomeOK).Inc()

	return nil
}
