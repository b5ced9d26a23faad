// Package runtime wires the configured store backend, the scheduler, and
// metrics into a single-node instance. It exposes Open/Close, a basic
// health check, and OpenQueue for building batch queues bound to the
// runtime's resources.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	q, _ := rt.OpenQueue(trig, handler)
//	q.Push([]byte(`{"job":"email"}`))
//	_ = q.Save("emails")
//	_ = q.Dispatch(context.Background())
package runtime
