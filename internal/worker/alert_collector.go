package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/service/alert"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/logx"
)

type Notifier interface {
	SendPriceAlert(ctx context.Context, favorite entity.Favorite, snap value.Snapshot) error
}

// AlertCollector refreshes favorites on its own cadence and pushes a
// notification when the alert rules fire. It runs independently of the
// snapshot collector so alerting stays predictable even when history
// collection is reconfigured.
type AlertCollector struct {
	favorites   FavoriteRepository
	snapshots   SnapshotService
	notifier    Notifier
	concurrency int

	mu      sync.Mutex
	running bool
}

func NewAlertCollector(
	favorites FavoriteRepository,
	snapshots SnapshotService,
	notifier Notifier,
	concurrency int,
) *AlertCollector {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &AlertCollector{
		favorites:   favorites,
		snapshots:   snapshots,
		notifier:    notifier,
		concurrency: concurrency,
	}
}

func (c *AlertCollector) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *AlertCollector) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		collectorRunsTotal.WithLabelValues("alert", outcomeBusy).Inc()
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
		collectorRunsTotal.WithLabelValues("alert", outcomeError).Inc()
		return err
	}

	groups := groupFavorites(ctx, favorites)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for key, group := range groups {
		g.Go(func() error {
			if err := c.evaluateGroup(gCtx, key, group); err != nil {
				logger(gCtx).Error("alert evaluation failed",
					slog.String("group", key),
					logx.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()

	collectorRunsTotal.WithLabelValues("alert", outcomeOK).Inc()

	return nil
}

func (c *AlertCollector) evaluateGroup(ctx context.Context, key string, group []entity.Favorite) error {
	sample := group[0]

	snap, err := c.snapshots.BuildSnapshotForGroup(ctx, key, sample.Name, sample)
	if err != nil {
		return err
	}

	if snap == nil {
		return nil
	}

	now := time.Now()

	for _, favorite := range group {
		previous := previousPriceFor(favorite, *snap)

		if err := c.favorites.UpdateSnapshot(ctx, favorite.ID, snap.CurrentPrice, previous, now); err != nil {
			logger(ctx).Error("favorite update failed",
				slog.Int64("favorite", favorite.ID),
				logx.Error(err),
			)
			continue
		}

		updated := favorite
		updated.CurrentPrice = snap.CurrentPrice
		updated.PreviousPrice = previous

		if !alert.ShouldAlert(updated) {
			continue
		}

		if err := c.notifier.SendPriceAlert(ctx, updated, *snap); err != nil {
			// Not marking alerted: the push is retried next cycle.
			logger(ctx).Error("alert push failed",
				slog.Int64("favorite", favorite.ID),
				logx.Error(err),
			)
			continue
		}

		if err := c.favorites.MarkAlerted(ctx, favorite.ID, now); err != nil {
			logger(ctx).Error("alert latch failed",
				slog.Int64("favorite", favorite.ID),
				logx.Error(err),
			)
			continue
		}

		alertsSentTotal.Inc()
	}

	return nil
}
