package queuesvc

import (
	"context"
	"fmt"
	"time"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	"github.com/duckdev/wp-queue-process/internal/runtime"
	"github.com/duckdev/wp-queue-process/internal/trigger"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Service coordinates the runtime and a BatchQueue behind the HTTP surface.
// It owns the producer path (push, save, dispatch), the trigger entry point,
// and the admin operations.
type Service struct {
	rt     *runtime.Runtime
	q      *batchqueue.BatchQueue
	logger logpkg.Logger
}

// New builds the service for the runtime's configured process. handler is
// the task handler; pass nil to use the configured webhook worker.
func New(rt *runtime.Runtime, trig trigger.Trigger, handler batchqueue.Handler) (*Service, error) {
	logger := rt.Logger().With(logpkg.Component("queues"))
	if handler == nil {
		wcfg := rt.Config().Worker
		if wcfg.URL == "" {
			return nil, fmt.Errorf("no task handler given and worker.url not configured")
		}
		handler = NewWebhookHandler(wcfg.URL, time.Duration(wcfg.TimeoutSeconds)*time.Second, logger)
	}
	q, err := rt.OpenQueue(trig, handler)
	if err != nil {
		return nil, err
	}
	return &Service{rt: rt, q: q, logger: logger}, nil
}

// PushItems pushes items as one batch under the given group label and,
// when dispatch is set, fires a run-now trigger.
func (s *Service) PushItems(ctx context.Context, items [][]byte, group string, dispatch bool) error {
	if len(items) == 0 {
		return fmt.Errorf("no items given")
	}
	for _, it := range items {
		s.q.Push(it)
	}
	if err := s.q.Save(group); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.logger.Debug("items pushed", logpkg.Int("items", len(items)), logpkg.Str("group", group))
	if !dispatch {
		return nil
	}
	if err := s.q.Dispatch(ctx); err != nil {
		// the batch is durable; the health check will pick it up
		s.logger.Warn("dispatch after push failed", logpkg.Err(err))
	}
	return nil
}

// Run is the trigger entry point: it runs one processing pass if the
// process is not already locked.
func (s *Service) Run(ctx context.Context) error {
	return s.q.MaybeHandle(ctx)
}

// Dispatch fires a run-now trigger without pushing anything.
func (s *Service) Dispatch(ctx context.Context) error {
	return s.q.Dispatch(ctx)
}

// Status reports the queue's durable state.
func (s *Service) Status(context.Context) (batchqueue.Stats, error) {
	return s.q.Stat()
}

// Cancel removes the oldest stored batch and clears the health check.
func (s *Service) Cancel(context.Context) error {
	return s.q.Cancel()
}

// ListBatches lists stored batches oldest-first, optionally filtered by a
// CEL expression over batch metadata. An empty expression matches all.
func (s *Service) ListBatches(_ context.Context, filterExpr string, limit int) ([]batchqueue.BatchInfo, error) {
	filter, err := newCELFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	// fetch unlimited when filtering; the limit applies to matches
	fetch := limit
	if filter.enabled {
		fetch = 0
	}
	infos, err := s.q.Batches(fetch)
	if err != nil {
		return nil, err
	}
	if !filter.enabled {
		return infos, nil
	}
	out := make([]batchqueue.BatchInfo, 0, len(infos))
	for _, info := range infos {
		if !filter.Eval(info) {
			continue
		}
		out = append(out, info)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Queue exposes the underlying queue for embedding callers.
func (s *Service) Queue() *batchqueue.BatchQueue { return s.q }
