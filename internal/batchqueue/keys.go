package batchqueue

import "strings"

// Key scheme, all rooted at the process identifier so that queue types
// sharing one store never collide:
//
//	{process}_batch_{unique}        - batch record
//	{process}_batch_{unique}_group  - group label for that batch
//	{process}_process_lock          - advisory time-bound lock
//
// {unique} is a sortable hex id, so an ascending prefix scan yields batches
// oldest-first.
const (
	batchInfix        = "_batch_"
	groupSuffix       = "_group"
	lockSuffix        = "_process_lock"
	healthIDSuffix    = "_cron_healthcheck"
	defaultItemPrefix = "item_"
)

// BatchPrefix returns the scan prefix covering all batches of a process.
func BatchPrefix(process string) string {
	return process + batchInfix
}

// BatchKey builds the store key for a batch.
func BatchKey(process, unique string) string {
	return BatchPrefix(process) + unique
}

// GroupKey builds the store key holding a batch's group label.
func GroupKey(batchKey string) string {
	return batchKey + groupSuffix
}

// LockKey builds the process lock key.
func LockKey(process string) string {
	return process + lockSuffix
}

// HealthCheckID builds the scheduler id for a process's health check.
func HealthCheckID(process string) string {
	return process + healthIDSuffix
}

// IsGroupKey reports whether a scanned key is a group record rather than a
// batch. Group keys share the batch prefix, so prefix scans see both.
func IsGroupKey(key string) bool {
	return strings.HasSuffix(key, groupSuffix)
}
