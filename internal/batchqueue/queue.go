package batchqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duckdev/wp-queue-process/internal/metrics"
	"github.com/duckdev/wp-queue-process/internal/scheduler"
	"github.com/duckdev/wp-queue-process/internal/storage"
	"github.com/duckdev/wp-queue-process/internal/trigger"
	"github.com/duckdev/wp-queue-process/pkg/id"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Handler maps one queue item (plus its batch's group label) to either a
// replacement item or completion.
//
// Returning done removes the item permanently. Returning done=false requeues
// the item for the next pass: next replaces the payload, or the original is
// kept when next is nil. Returning an error is fatal to the current
// invocation; the batch has already been checkpointed incrementally, so only
// the failing item's prior state risks reprocessing.
//
// No retry bound is enforced here. An always-failing handler loops forever;
// bounding retries is the handler's job, for example by embedding an attempt
// counter in the item.
type Handler interface {
	Task(ctx context.Context, item []byte, group string) (next []byte, done bool, err error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, item []byte, group string) ([]byte, bool, error)

// Task implements Handler.
func (f HandlerFunc) Task(ctx context.Context, item []byte, group string) ([]byte, bool, error) {
	return f(ctx, item, group)
}

// Options configures a BatchQueue. Store, Trigger, Scheduler, and Handler
// are required; everything else has defaults.
type Options struct {
	// Process identifies this queue type and prefixes every store key.
	Process string

	// TimeLimit is the wall-clock budget per processing pass. Zero is
	// honored as "stop after every item"; callers wanting the default
	// should pass config.Default()'s value rather than zero.
	TimeLimit time.Duration
	// MemoryFraction stops a pass once RSS reaches this share of the host
	// ceiling. Defaults to 0.9.
	MemoryFraction float64
	// LockTTL is the process lock expiry. Defaults to 60s and is raised to
	// TimeLimit+10s when not strictly greater than the time budget.
	LockTTL time.Duration
	// HealthCheckInterval is the stalled-queue check period. Defaults to 5m.
	HealthCheckInterval time.Duration

	Store     storage.Store
	Trigger   trigger.Trigger
	Scheduler scheduler.Scheduler
	Handler   Handler

	Logger  logpkg.Logger
	Metrics *metrics.Collector

	// CompleteHook replaces the completion behavior when the queue drains
	// to empty. It receives the default behavior (clearing the health-check
	// schedule) and must call it to preserve the lifecycle contract.
	CompleteHook func(clear func())
}

// BatchQueue owns the durable queue contents for one process identifier:
// the pending list, the stored batches, the advisory lock, and the
// self-chaining processing loop.
type BatchQueue struct {
	process   string
	store     storage.Store
	trig      trigger.Trigger
	sched     scheduler.Scheduler
	handler   Handler
	logger    logpkg.Logger
	metrics   *metrics.Collector
	lock      *ProcessLock
	idgen     *id.Generator
	onDrained func(clear func())

	timeLimit      time.Duration
	memoryFraction float64
	lockTTL        time.Duration
	healthInterval time.Duration

	mu      sync.Mutex
	pending [][]byte
}

// New validates options and builds a BatchQueue.
func New(opts Options) (*BatchQueue, error) {
	if opts.Process == "" {
		return nil, errors.New("batchqueue: Options.Process is required")
	}
	if opts.Store == nil {
		return nil, errors.New("batchqueue: Options.Store is required")
	}
	if opts.Trigger == nil {
		return nil, errors.New("batchqueue: Options.Trigger is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("batchqueue: Options.Scheduler is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("batchqueue: Options.Handler is required")
	}
	if opts.MemoryFraction <= 0 {
		opts.MemoryFraction = 0.9
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 60 * time.Second
	}
	// the lock must outlive the time budget or a healthy slow pass would
	// lose its own lock mid-run
	if opts.LockTTL <= opts.TimeLimit {
		opts.LockTTL = opts.TimeLimit + 10*time.Second
	}
	if opts.HealthCheckInterval <= 0 {
		opts.HealthCheckInterval = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop()
	}

	q := &BatchQueue{
		process:        opts.Process,
		store:          opts.Store,
		trig:           opts.Trigger,
		sched:          opts.Scheduler,
		handler:        opts.Handler,
		logger:         opts.Logger.With(logpkg.Component("batchqueue"), logpkg.Str("process", opts.Process)),
		metrics:        opts.Metrics,
		lock:           NewProcessLock(opts.Store, opts.Process),
		idgen:          id.NewGenerator(),
		onDrained:      opts.CompleteHook,
		timeLimit:      opts.TimeLimit,
		memoryFraction: opts.MemoryFraction,
		lockTTL:        opts.LockTTL,
		healthInterval: opts.HealthCheckInterval,
	}
	return q, nil
}

// Push appends an item to the in-memory pending list. Nothing touches the
// store until Save.
func (q *BatchQueue) Push(item []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, item)
}

// Save persists the pending list as one new batch with the given group
// label, then clears the list. Saving an empty pending list is a no-op, so
// phantom empty batches never reach the store.
func (q *BatchQueue) Save(group string) error {
	q.mu.Lock()
	items := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(items) == 0 {
		return nil
	}

	rec := newRecord(items)
	data, err := EncodeRecord(rec)
	if err != nil {
		// items are not lost on a failed save
		q.restorePending(items)
		return err
	}
	key := BatchKey(q.process, q.idgen.Next().String())
	if err := q.store.Put(key, data); err != nil {
		q.restorePending(items)
		return fmt.Errorf("save batch: %w", err)
	}
	if err := q.store.Put(GroupKey(key), []byte(group)); err != nil {
		return fmt.Errorf("save batch group: %w", err)
	}
	q.metrics.RecordBatchSaved()
	q.updatePendingGauge()
	q.logger.Debug("batch saved", logpkg.Str("key", key), logpkg.Str("group", group), logpkg.Int("items", len(items)))
	return nil
}

func (q *BatchQueue) restorePending(items [][]byte) {
	q.mu.Lock()
	q.pending = append(items, q.pending...)
	q.mu.Unlock()
}

// Dispatch registers the health-check schedule (idempotent) and fires a
// run-now trigger at this process. The trigger outcome is returned for
// error inspection; delivery failures are not retried here — the next
// health-check tick recovers.
func (q *BatchQueue) Dispatch(ctx context.Context) error {
	q.sched.Register(HealthCheckID(q.process), q.healthInterval, q.HealthCheck)
	q.metrics.RecordDispatch()
	return q.trig.Send(ctx, map[string]string{"process": q.process}, nil, trigger.Options{})
}

// IsEmpty reports whether no batches are stored.
func (q *BatchQueue) IsEmpty() (bool, error) {
	_, err := q.firstBatch()
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// firstBatch returns the oldest stored batch key. Group records share the
// batch prefix; a batch key sorts before its own group record, so the
// smallest key is a batch unless only an orphaned group record remains.
func (q *BatchQueue) firstBatch() (string, error) {
	e, err := q.store.FirstPrefix(BatchPrefix(q.process))
	if err != nil {
		return "", err
	}
	if !IsGroupKey(e.Key) {
		return e.Key, nil
	}
	limit := 16
	for {
		entries, err := q.store.ListPrefix(BatchPrefix(q.process), limit)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if !IsGroupKey(e.Key) {
				return e.Key, nil
			}
		}
		if len(entries) < limit {
			return "", storage.ErrNotFound
		}
		// only orphaned group records in the window; widen it
		limit *= 4
	}
}

// readBatch loads a batch record and its group label.
func (q *BatchQueue) readBatch(key string) (Record, string, error) {
	raw, err := q.store.Get(key)
	if err != nil {
		return Record{}, "", err
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return Record{}, "", err
	}
	group := ""
	if g, err := q.store.Get(GroupKey(key)); err == nil {
		group = string(g)
	}
	return rec, group, nil
}

// MaybeHandle is the loop entry point, invoked by a trigger-delivered
// request or the health check. It re-verifies preconditions before entering
// the loop so concurrent triggers collapse to one run, then chains the next
// batch or runs the completion hook.
func (q *BatchQueue) MaybeHandle(ctx context.Context) error {
	running, err := q.lock.IsHeld()
	if err != nil {
		return err
	}
	if running {
		q.logger.Debug("run skipped, process already locked")
		return nil
	}
	empty, err := q.IsEmpty()
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	acquired, err := q.lock.TryAcquire(q.lockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		// lost the race; the winner makes progress
		return nil
	}
	q.metrics.SetLockHeld(true)
	defer func() {
		_ = q.lock.Release()
		q.metrics.SetLockHeld(false)
	}()

	procErr := q.drain(ctx)
	q.updatePendingGauge()

	empty, emptyErr := q.IsEmpty()
	if emptyErr != nil {
		return errors.Join(procErr, emptyErr)
	}
	if empty {
		q.complete()
		return procErr
	}
	if dispatchErr := q.Dispatch(ctx); dispatchErr != nil {
		q.logger.Warn("chained dispatch failed, health check will recover", logpkg.Err(dispatchErr))
	}
	return procErr
}

// drain consumes stored batches oldest-first until a budget trips, the
// queue empties, or the handler fails. A partially processed batch is always
// checkpointed before returning, so a killed process reprocesses at most the
// unwritten portion.
func (q *BatchQueue) drain(ctx context.Context) error {
	budget := NewBudget(q.timeLimit, q.memoryFraction)
	for {
		key, err := q.firstBatch()
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		rec, group, err := q.readBatch(key)
		if err != nil {
			return fmt.Errorf("read batch %s: %w", key, err)
		}

		stop, taskErr := q.runBatch(ctx, &rec, group, budget)

		if err := q.checkpoint(key, rec); err != nil {
			// a failed checkpoint write means duplicate reprocessing on
			// the next trigger, not data loss
			return errors.Join(taskErr, err)
		}
		if taskErr != nil {
			q.metrics.RecordHandlerError()
			return fmt.Errorf("task handler: %w", taskErr)
		}
		if stop != "" {
			q.metrics.RecordBudgetStop(stop)
			q.logger.Info("pass ended by budget", logpkg.Str("budget", stop))
			return nil
		}
	}
}

// runBatch applies the handler to each item in stored order. It returns the
// budget kind that stopped the pass ("" if the batch completed) and any
// fatal handler error. rec is mutated to the surviving items.
func (q *BatchQueue) runBatch(ctx context.Context, rec *Record, group string, budget *Budget) (string, error) {
	kept := make([]Item, 0, len(rec.Items))
	for i := 0; i < len(rec.Items); i++ {
		item := rec.Items[i]
		next, done, err := q.handler.Task(ctx, item.Data, group)
		if err != nil {
			// current item keeps its prior state; the rest is untouched
			rec.Items = append(kept, rec.Items[i:]...)
			return "", err
		}
		if done {
			q.metrics.RecordItemProcessed()
		} else {
			if next != nil {
				item.Data = next
			}
			kept = append(kept, item)
			q.metrics.RecordItemRequeued()
		}
		if stop := q.budgetStop(budget); stop != "" {
			rec.Items = append(kept, rec.Items[i+1:]...)
			return stop, nil
		}
	}
	rec.Items = kept
	return "", nil
}

func (q *BatchQueue) budgetStop(budget *Budget) string {
	if budget.TimeExceeded() {
		return "time"
	}
	if budget.MemoryExceeded() {
		return "memory"
	}
	return ""
}

// checkpoint persists a batch's surviving items, or deletes the batch and
// its group record once drained. A batch exists in the store iff it has at
// least one unprocessed item.
func (q *BatchQueue) checkpoint(key string, rec Record) error {
	if len(rec.Items) > 0 {
		data, err := EncodeRecord(rec)
		if err != nil {
			return err
		}
		if err := q.store.Update(key, data); err != nil {
			return fmt.Errorf("checkpoint batch %s: %w", key, err)
		}
		return nil
	}
	if err := q.store.Delete(key); err != nil {
		return fmt.Errorf("delete batch %s: %w", key, err)
	}
	if err := q.store.Delete(GroupKey(key)); err != nil {
		return fmt.Errorf("delete batch group %s: %w", key, err)
	}
	q.metrics.RecordBatchDone()
	return nil
}

// complete runs when the queue drains to empty. The default behavior clears
// the health-check schedule; a CompleteHook may wrap it but must call
// through.
func (q *BatchQueue) complete() {
	clearSchedule := func() { q.sched.Unregister(HealthCheckID(q.process)) }
	if q.onDrained != nil {
		q.onDrained(clearSchedule)
		return
	}
	clearSchedule()
}

// HealthCheck is the scheduler callback: it restarts processing when work
// is queued but nothing holds the lock, and retires itself once the queue
// is empty. Runs bypass the Trigger, which is what recovers from a dispatch
// that was silently dropped.
func (q *BatchQueue) HealthCheck() {
	q.metrics.RecordHealthTick()
	held, err := q.lock.IsHeld()
	if err != nil {
		q.logger.Warn("health check could not read lock", logpkg.Err(err))
		return
	}
	if held {
		return
	}
	empty, err := q.IsEmpty()
	if err != nil {
		q.logger.Warn("health check could not read queue", logpkg.Err(err))
		return
	}
	if empty {
		q.sched.Unregister(HealthCheckID(q.process))
		return
	}
	q.logger.Info("health check restarting stalled queue")
	if err := q.MaybeHandle(context.Background()); err != nil {
		q.logger.Error("health check run failed", logpkg.Err(err))
	}
}

// Cancel deletes the oldest stored batch and unregisters the health check.
// Best-effort abort: one batch per call, no transactional rollback.
func (q *BatchQueue) Cancel() error {
	key, err := q.firstBatch()
	if errors.Is(err, storage.ErrNotFound) {
		q.sched.Unregister(HealthCheckID(q.process))
		return nil
	}
	if err != nil {
		return err
	}
	if err := q.store.Delete(key); err != nil {
		return err
	}
	if err := q.store.Delete(GroupKey(key)); err != nil {
		return err
	}
	q.sched.Unregister(HealthCheckID(q.process))
	q.updatePendingGauge()
	return nil
}

// Stats summarizes the queue's durable state.
type Stats struct {
	Process     string `json:"process"`
	Batches     int    `json:"batches"`
	Items       int    `json:"items"`
	Locked      bool   `json:"locked"`
	HealthCheck bool   `json:"healthCheck"`
}

// Stat reads the current queue state from the store.
func (q *BatchQueue) Stat() (Stats, error) {
	s := Stats{Process: q.process}
	entries, err := q.store.ListPrefix(BatchPrefix(q.process), 0)
	if err != nil {
		return s, err
	}
	for _, e := range entries {
		if IsGroupKey(e.Key) {
			continue
		}
		s.Batches++
		if rec, err := DecodeRecord(e.Value); err == nil {
			s.Items += len(rec.Items)
		}
	}
	if s.Locked, err = q.lock.IsHeld(); err != nil {
		return s, err
	}
	s.HealthCheck = q.sched.IsRegistered(HealthCheckID(q.process))
	return s, nil
}

// Batches lists stored batches oldest-first, up to limit.
func (q *BatchQueue) Batches(limit int) ([]BatchInfo, error) {
	entries, err := q.store.ListPrefix(BatchPrefix(q.process), 0)
	if err != nil {
		return nil, err
	}
	var infos []BatchInfo
	for _, e := range entries {
		if IsGroupKey(e.Key) {
			continue
		}
		if limit > 0 && len(infos) >= limit {
			break
		}
		info := BatchInfo{Key: e.Key, Size: len(e.Value)}
		if rec, err := DecodeRecord(e.Value); err == nil {
			info.Items = len(rec.Items)
		}
		if g, err := q.store.Get(GroupKey(e.Key)); err == nil {
			info.Group = string(g)
		}
		info.CreatedAtMs = createdAtMs(q.process, e.Key)
		infos = append(infos, info)
	}
	return infos, nil
}

// BatchInfo describes one stored batch for inspection.
type BatchInfo struct {
	Key         string `json:"key"`
	Group       string `json:"group"`
	Items       int    `json:"items"`
	Size        int    `json:"size"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// createdAtMs recovers the creation timestamp embedded in a batch key's id.
func createdAtMs(process, key string) int64 {
	unique := key[len(BatchPrefix(process)):]
	if len(unique) < 16 {
		return 0
	}
	var ms int64
	for _, c := range unique[:16] {
		var v int64
		switch {
		case c >= '0' && c <= '9':
			v = int64(c - '0')
		case c >= 'a' && c <= 'f':
			v = int64(c-'a') + 10
		default:
			return 0
		}
		ms = ms<<4 | v
	}
	return ms
}

func (q *BatchQueue) updatePendingGauge() {
	if n, err := q.store.CountPrefix(BatchPrefix(q.process)); err == nil {
		// prefix counts batch and group records; two keys per batch
		q.metrics.SetBatchesPending(n / 2)
	}
}

// Process returns the queue's process identifier.
func (q *BatchQueue) Process() string { return q.process }
