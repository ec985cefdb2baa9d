package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

type AsynqPeriodicTask struct {
	Cronspec string
	Type     string
	Queue    string
}

type AsynqScheduler struct {
	RedisUsername string
	RedisPassword string
	RedisAddress  string
	RedisDB       int
}

func (s AsynqScheduler) Run(
	ctx context.Context,
	g *errgroup.Group,
	tasks ...AsynqPeriodicTask,
) {
	g.Go(func() error {
		redisConnection := asynq.RedisClientOpt{
			Addr:     s.RedisAddress,
			Username: s.RedisUsername,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}

		scheduler := asynq.NewScheduler(redisConnection, &asynq.SchedulerOpts{})

		for _, t := range tasks {
			opts := []asynq.Option{}
			if t.Queue != "" {
				opts = append(opts, asynq.Queue(t.Queue))
			}

			if _, err := scheduler.Register(t.Cronspec, asynq.NewTask(t.Type, nil), opts...); err != nil {
				return fmt.Errorf("asynqScheduler.Register %s: %w", t.Type, err)
			}

			logger(ctx).Info("periodic task registered",
				slog.String("type", t.Type),
				slog.String("cronspec", t.Cronspec),
			)
		}

		logger(ctx).Info("asynq scheduler started", slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB))

		if err := scheduler.Run(); err != nil {
			return fmt.Errorf("asynqScheduler.Run: %w", err)
		}

		logger(ctx).Info("asynq scheduler stopped", slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB))

		return nil
	})
}
