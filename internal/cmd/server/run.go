package serverrun

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	cfgpkg "github.com/duckdev/wp-queue-process/internal/config"
	"github.com/duckdev/wp-queue-process/internal/runtime"
	httpserver "github.com/duckdev/wp-queue-process/internal/server/http"
	queuesvc "github.com/duckdev/wp-queue-process/internal/services/queues"
	"github.com/duckdev/wp-queue-process/internal/trigger"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Options for the server run entrypoint.
type Options struct {
	Config cfgpkg.Config
	// Handler overrides the configured webhook worker; used by callers
	// embedding the server with an in-process task handler.
	Handler batchqueue.Handler
}

// Run starts the queue runtime and HTTP server and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	// layer a local signal context over the provided one so callers
	// without signal handling still shut down cleanly
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	procLogger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// pebble logs through the stdlib logger
	logpkg.RedirectStdLog(procLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger, Registry: registry})
	if err != nil {
		return err
	}
	defer rt.Close()

	trig := trigger.NewHTTP(triggerEndpoint(cfg.Server))
	svc, err := queuesvc.New(rt, trig, opts.Handler)
	if err != nil {
		return err
	}

	procLogger.Info("starting wpq server",
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("process", cfg.Process.ID),
		logpkg.Str("backend", cfg.Storage.Backend),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	hsrv := httpserver.New(rt, svc, registry, procLogger)
	errCh := make(chan error, 1)
	go func() { errCh <- hsrv.ListenAndServe(sctx, cfg.Server.HTTPAddr) }()

	// batches left over from a previous run restart processing on boot
	if empty, err := svc.Queue().IsEmpty(); err == nil && !empty {
		procLogger.Info("stored batches found, dispatching")
		if err := svc.Dispatch(sctx); err != nil {
			procLogger.Warn("startup dispatch failed", logpkg.Err(err))
		}
	}

	select {
	case <-sctx.Done():
		hsrv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// triggerEndpoint resolves the run-now trigger URL. Empty config means the
// server's own /v1/queue/run route over loopback.
func triggerEndpoint(cfg cfgpkg.ServerConfig) string {
	if cfg.TriggerURL != "" {
		return strings.TrimSuffix(cfg.TriggerURL, "/") + "/v1/queue/run"
	}
	addr := cfg.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/v1/queue/run"
}
