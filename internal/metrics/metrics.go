// Package metrics collects and exposes Prometheus instrumentation for the
// batch queue: item/batch counters, budget stops, dispatches, and health
// check activity. Scraped through the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the queue's Prometheus metrics.
type Collector struct {
	itemsProcessed prometheus.Counter
	itemsRequeued  prometheus.Counter
	batchesSaved   prometheus.Counter
	batchesDone    prometheus.Counter
	dispatches     prometheus.Counter
	handlerErrors  prometheus.Counter
	budgetStops    *prometheus.CounterVec
	healthTicks    prometheus.Counter

	batchesPending prometheus.Gauge
	lockHeld       prometheus.Gauge
}

// NewCollector creates and registers the queue metrics on reg. Passing a
// fresh registry keeps tests independent.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		itemsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_items_processed_total",
			Help: "Total number of queue items handled to completion",
		}),
		itemsRequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_items_requeued_total",
			Help: "Total number of items requeued for another pass",
		}),
		batchesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_batches_saved_total",
			Help: "Total number of batches persisted by save",
		}),
		batchesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_batches_completed_total",
			Help: "Total number of batches fully drained and deleted",
		}),
		dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_dispatches_total",
			Help: "Total number of run-now trigger requests fired",
		}),
		handlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_handler_errors_total",
			Help: "Total number of fatal task handler errors",
		}),
		budgetStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_budget_stops_total",
			Help: "Total number of passes ended by a resource budget",
		}, []string{"kind"}),
		healthTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_healthcheck_ticks_total",
			Help: "Total number of health check invocations",
		}),
		batchesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_batches_pending",
			Help: "Current number of stored batches",
		}),
		lockHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_lock_held",
			Help: "1 while the process lock is held by this instance",
		}),
	}

	reg.MustRegister(
		c.itemsProcessed, c.itemsRequeued, c.batchesSaved, c.batchesDone,
		c.dispatches, c.handlerErrors, c.budgetStops, c.healthTicks,
		c.batchesPending, c.lockHeld,
	)
	return c
}

// Noop returns a collector registered on a throwaway registry, for callers
// that do not care about metrics.
func Noop() *Collector { return NewCollector(prometheus.NewRegistry()) }

func (c *Collector) RecordItemProcessed() { c.itemsProcessed.Inc() }
func (c *Collector) RecordItemRequeued()  { c.itemsRequeued.Inc() }
func (c *Collector) RecordBatchSaved()    { c.batchesSaved.Inc() }
func (c *Collector) RecordBatchDone()     { c.batchesDone.Inc() }
func (c *Collector) RecordDispatch()      { c.dispatches.Inc() }
func (c *Collector) RecordHandlerError()  { c.handlerErrors.Inc() }
func (c *Collector) RecordHealthTick()    { c.healthTicks.Inc() }

// RecordBudgetStop counts a pass ended by the given budget ("time" or "memory").
func (c *Collector) RecordBudgetStop(kind string) { c.budgetStops.WithLabelValues(kind).Inc() }

// SetBatchesPending records the current stored batch count.
func (c *Collector) SetBatchesPending(n int) { c.batchesPending.Set(float64(n)) }

// SetLockHeld records whether this instance currently holds the process lock.
func (c *Collector) SetLockHeld(held bool) {
	if held {
		c.lockHeld.Set(1)
	} else {
		c.lockHeld.Set(0)
	}
}
