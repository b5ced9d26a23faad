package queuesvc

import (
	"context"
	"sync"
	"testing"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	cfgpkg "github.com/duckdev/wp-queue-process/internal/config"
	"github.com/duckdev/wp-queue-process/internal/runtime"
	"github.com/duckdev/wp-queue-process/internal/trigger"
)

func testService(t *testing.T, handler batchqueue.Handler) *Service {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	trig := trigger.Func(func(context.Context, map[string]string, []byte, trigger.Options) error { return nil })
	svc, err := New(rt, trig, handler)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPushRunStatusCancel(t *testing.T) {
	var mu sync.Mutex
	var handled []string
	h := batchqueue.HandlerFunc(func(_ context.Context, item []byte, _ string) ([]byte, bool, error) {
		mu.Lock()
		handled = append(handled, string(item))
		mu.Unlock()
		return nil, true, nil
	})
	svc := testService(t, h)
	ctx := context.Background()

	err := svc.PushItems(ctx, [][]byte{[]byte("a"), []byte("b")}, "emails", true)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Batches != 1 || st.Items != 2 {
		t.Fatalf("status after push: %+v", st)
	}

	if err := svc.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(handled) != 2 {
		t.Fatalf("handled = %v", handled)
	}
	st, _ = svc.Status(ctx)
	if st.Batches != 0 || st.HealthCheck {
		t.Fatalf("status after run: %+v", st)
	}

	// cancel on an empty queue is a no-op
	if err := svc.Cancel(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestPushRejectsEmpty(t *testing.T) {
	svc := testService(t, batchqueue.HandlerFunc(func(context.Context, []byte, string) ([]byte, bool, error) {
		return nil, true, nil
	}))
	if err := svc.PushItems(context.Background(), nil, "g", false); err == nil {
		t.Fatalf("expected error for empty push")
	}
}

func TestNewRequiresHandlerOrWorkerURL(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	trig := trigger.Func(func(context.Context, map[string]string, []byte, trigger.Options) error { return nil })
	if _, err := New(rt, trig, nil); err == nil {
		t.Fatalf("expected error without handler and worker URL")
	}
}

func TestListBatchesWithFilter(t *testing.T) {
	svc := testService(t, batchqueue.HandlerFunc(func(context.Context, []byte, string) ([]byte, bool, error) {
		return nil, true, nil
	}))
	ctx := context.Background()
	if err := svc.PushItems(ctx, [][]byte{[]byte("1"), []byte("2"), []byte("3")}, "big", false); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := svc.PushItems(ctx, [][]byte{[]byte("x")}, "small", false); err != nil {
		t.Fatalf("push: %v", err)
	}

	all, err := svc.ListBatches(ctx, "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v %v", all, err)
	}

	big, err := svc.ListBatches(ctx, `group == "big"`, 0)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(big) != 1 || big[0].Items != 3 {
		t.Fatalf("filtered: %+v", big)
	}

	fresh, err := svc.ListBatches(ctx, "items >= 1 && age_ms < 60000", 0)
	if err != nil || len(fresh) != 2 {
		t.Fatalf("windowed filter: %+v %v", fresh, err)
	}

	if _, err := svc.ListBatches(ctx, "not a valid ((expr", 0); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestListBatchesLimitAppliesToMatches(t *testing.T) {
	svc := testService(t, batchqueue.HandlerFunc(func(context.Context, []byte, string) ([]byte, bool, error) {
		return nil, true, nil
	}))
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		group := "even"
		if i%2 == 1 {
			group = "odd"
		}
		if err := svc.PushItems(ctx, [][]byte{[]byte{byte(i)}}, group, false); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	odd, err := svc.ListBatches(ctx, `group == "odd"`, 1)
	if err != nil || len(odd) != 1 || odd[0].Group != "odd" {
		t.Fatalf("limited filter: %+v %v", odd, err)
	}
}
