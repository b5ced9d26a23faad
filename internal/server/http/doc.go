// Package httpserver provides the JSON gateway for the queue service and
// the loopback target of the run-now trigger.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	svc, _ := queuesvc.New(rt, trig, handler)
//	s := httpserver.New(rt, svc, nil, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
