package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordItemProcessed()
	c.RecordItemProcessed()
	c.RecordItemRequeued()
	c.RecordBudgetStop("time")
	c.RecordBudgetStop("memory")
	c.RecordBudgetStop("time")

	if got := testutil.ToFloat64(c.itemsProcessed); got != 2 {
		t.Fatalf("items processed = %v", got)
	}
	if got := testutil.ToFloat64(c.itemsRequeued); got != 1 {
		t.Fatalf("items requeued = %v", got)
	}
	if got := testutil.ToFloat64(c.budgetStops.WithLabelValues("time")); got != 2 {
		t.Fatalf("time stops = %v", got)
	}
}

func TestGauges(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.SetBatchesPending(4)
	c.SetLockHeld(true)
	if got := testutil.ToFloat64(c.batchesPending); got != 4 {
		t.Fatalf("pending = %v", got)
	}
	if got := testutil.ToFloat64(c.lockHeld); got != 1 {
		t.Fatalf("lock held = %v", got)
	}
	c.SetLockHeld(false)
	if got := testutil.ToFloat64(c.lockHeld); got != 0 {
		t.Fatalf("lock released = %v", got)
	}
}

func TestNoopDoesNotTouchDefaultRegistry(t *testing.T) {
	// must not panic with duplicate registration
	_ = Noop()
	_ = Noop()
}
