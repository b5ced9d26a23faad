package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	cfgpkg "github.com/duckdev/wp-queue-process/internal/config"
	"github.com/duckdev/wp-queue-process/internal/metrics"
	"github.com/duckdev/wp-queue-process/internal/scheduler"
	"github.com/duckdev/wp-queue-process/internal/storage"
	pebblestore "github.com/duckdev/wp-queue-process/internal/storage/pebble"
	redisstore "github.com/duckdev/wp-queue-process/internal/storage/redis"
	"github.com/duckdev/wp-queue-process/internal/trigger"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// Registry receives queue metrics. Nil disables metric export.
	Registry prometheus.Registerer
}

// Runtime wires the configured store backend, the scheduler, and metrics
// into a single-node instance. Queues are opened through it so every queue
// of one process shares the same store and schedule.
type Runtime struct {
	config  cfgpkg.Config
	store   storage.Store
	sched   *scheduler.Interval
	metrics *metrics.Collector
	logger  logpkg.Logger
}

// Open initializes the configured storage backend and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	store, err := openStore(opts.Config.Storage)
	if err != nil {
		return nil, err
	}
	collector := metrics.Noop()
	if opts.Registry != nil {
		collector = metrics.NewCollector(opts.Registry)
	}
	return &Runtime{
		config:  opts.Config,
		store:   store,
		sched:   scheduler.NewInterval(),
		metrics: collector,
		logger:  opts.Logger,
	}, nil
}

func openStore(cfg cfgpkg.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "pebble":
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = cfgpkg.DefaultDataDir()
		}
		return pebblestore.Open(pebblestore.Options{
			DataDir: dataDir,
			Fsync:   fsyncMode(cfg.Fsync),
		})
	case "redis":
		return redisstore.Open(redisstore.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func fsyncMode(s string) pebblestore.FsyncMode {
	switch s {
	case "always":
		return pebblestore.FsyncModeAlways
	case "interval":
		return pebblestore.FsyncModeInterval
	case "never":
		return pebblestore.FsyncModeNever
	default:
		return pebblestore.FsyncModeUnspecified
	}
}

// Close stops the scheduler and closes the store. Scheduled callbacks are
// stopped first so nothing fires against a closed store.
func (r *Runtime) Close() error {
	if r.sched != nil {
		r.sched.Close()
	}
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// CheckHealth performs a cheap store round trip.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	_, err := r.store.CountPrefix(batchqueue.BatchPrefix(r.config.Process.ID))
	return err
}

// OpenQueue builds a BatchQueue for the configured process, wired to the
// runtime's store, scheduler, and metrics.
func (r *Runtime) OpenQueue(trig trigger.Trigger, handler batchqueue.Handler) (*batchqueue.BatchQueue, error) {
	p := r.config.Process
	return batchqueue.New(batchqueue.Options{
		Process:             p.ID,
		TimeLimit:           p.TimeLimit(),
		MemoryFraction:      p.MemoryFraction,
		LockTTL:             p.LockTTL(),
		HealthCheckInterval: p.HealthCheckInterval(),
		Store:               r.store,
		Trigger:             trig,
		Scheduler:           r.sched,
		Handler:             handler,
		Logger:              r.logger,
		Metrics:             r.metrics,
	})
}

// Store exposes the underlying store (internal use only).
func (r *Runtime) Store() storage.Store { return r.store }

// Scheduler returns the shared interval scheduler.
func (r *Runtime) Scheduler() *scheduler.Interval { return r.sched }

// Metrics returns the runtime's metrics collector.
func (r *Runtime) Metrics() *metrics.Collector { return r.metrics }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime's base logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
