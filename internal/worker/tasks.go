package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"aucwatch/pkg/application/modules"
)

// Task type names shared by the scheduler and the asynq server.
const (
	TaskSnapshotCollect = "collector:snapshot"
	TaskAlertSweep      = "collector:alerts"
	TaskAutoWatchSweep  = "collector:autowatch"
	TaskAutoWatchEvict  = "collector:eviction"
)

// Handlers binds collectors to their task types. A run rejected by the
// in-progress guard is treated as success so asynq does not retry into
// the still-running cycle.
func Handlers(
	snapshots *SnapshotCollector,
	alerts *AlertCollector,
	autoWatch *AutoWatchCollector,
) []modules.AsynqHandler {
	return []modules.AsynqHandler{
		{Pattern: TaskSnapshotCollect, Handle: swallowBusy(snapshots.Run)},
		{Pattern: TaskAlertSweep, Handle: swallowBusy(alerts.Run)},
		{Pattern: TaskAutoWatchSweep, Handle: swallowBusy(autoWatch.Run)},
		{Pattern: TaskAutoWatchEvict, Handle: swallowBusy(autoWatch.Evict)},
	}
}

func swallowBusy(run func(ctx context.Context) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		err := run(ctx)
		if errors.Is(err, ErrRunInProgress) {
			logger(ctx).Warn("run skipped, previous one still going", "task", task.Type())
			return nil
		}
		return err
	}
}
