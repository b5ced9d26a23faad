// Package queuesvc is the service layer between the HTTP surface and the
// batch queue. It owns the producer path (push, save, dispatch), the
// trigger entry point, admin operations, and the server-mode webhook task
// handler. ListBatches supports CEL filter expressions over batch metadata,
// for example:
//
//	group == "emails" && items > 10
//	age_ms > 600000
package queuesvc
