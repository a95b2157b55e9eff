package engine

import (
	"log/slog"
	"runtime"
)

// DefaultWorkers is the counting parallelism when none is configured.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// minShardSize is the smallest number of candidates handed to one worker.
// Below it, scheduling overhead exceeds the intersection work.
const minShardSize = 64

// Option configures a mining run.
type Option func(*options)

type options struct {
	maxLength int
	workers   int
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
}

// WithMaxLength limits itemsets to at most n items. Zero means no limit.
func WithMaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

// WithWorkers sets how many goroutines count candidate supports.
// Values below 1 fall back to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultWorkers
		}
		o.workers = n
	}
}

// WithLogger routes per-level progress logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
