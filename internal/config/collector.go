package config

import "time"

type Collector struct {
	SnapshotCron  string `env:"COLLECTOR_SNAPSHOT_CRON" envDefault:"@every 10m"`
	AlertCron     string `env:"COLLECTOR_ALERT_CRON" envDefault:"@every 30m"`
	AutoWatchCron string `env:"COLLECTOR_AUTOWATCH_CRON" envDefault:"@every 24h"`
	EvictionCron  string `env:"COLLECTOR_EVICTION_CRON" envDefault:"@every 24h"`

	// Concurrency bounds the number of identity groups snapshotted in flight.
	Concurrency int `env:"COLLECTOR_CONCURRENCY" envDefault:"5"`
	// MaxSearchPages caps the exhaustive auction re-search per group.
	MaxSearchPages int `env:"COLLECTOR_MAX_SEARCH_PAGES" envDefault:"30"`
	// AutoWatchWindow is how long an auto-watch row survives without any
	// active favorite touching the same item.
	AutoWatchWindow time.Duration `env:"COLLECTOR_AUTOWATCH_WINDOW" envDefault:"72h"`
}
