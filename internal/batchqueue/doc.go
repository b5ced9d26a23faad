// Package batchqueue implements a self-pacing background job queue: callers
// push opaque work items, flush them to a durable store as batches, and fire
// a trigger; the queue then drains itself in resource-bounded passes,
// re-triggering until empty, with a periodic health check that restarts
// processing if it silently died.
//
// # Keyspace
//
// All keys are rooted at the process identifier:
//
//	{process}_batch_{unique}        - batch record (items in stored order)
//	{process}_batch_{unique}_group  - group label for that batch
//	{process}_process_lock          - advisory time-bound lock
//
// {unique} is a sortable timestamp-entropy id, so an ascending prefix scan
// yields batches oldest-first (FIFO at the storage layer).
//
// # Batch Lifecycle
//
//  1. Push: item appended to the in-memory pending list
//  2. Save: pending list persisted as one batch with a group label
//  3. Dispatch: health check registered, run-now trigger fired
//  4. Drain: oldest batch pulled, handler applied per item, partial
//     progress checkpointed, next batch or chained dispatch
//  5. Complete: queue empty, health-check schedule cleared
//
// # At-Least-Once Semantics
//
// The process lock is advisory and time-bound, not a strict mutex: two
// invocations racing within the check-then-set window can both proceed, and
// a forcibly expired lock admits a second run mid-batch. Duplicated batch
// consumption is accepted; handlers should be idempotent. A
// failed checkpoint write likewise causes duplicate reprocessing of the
// unwritten portion rather than loss.
//
// # Budgets
//
// Each pass carries a cooperative time and memory budget, consulted between
// items and between batches only. Neither preempts in-flight handler calls;
// the checkpoint-before-yield guarantee depends on checks happening at loop
// boundaries only. When a budget trips with work remaining, the pass
// re-arms itself through the trigger.
package batchqueue
