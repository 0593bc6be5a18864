package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func statusEvent(id int64) *event.Event {
	return event.New(event.TypeStatusChanged, entity.TypeTask, id, nil)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := New()
	var order []string

	d.Subscribe(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	if err := d.Dispatch(context.Background(), statusEvent(1)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran as %v, want [first second]", order)
	}
}

func TestDispatch_ReturnsHandlerError(t *testing.T) {
	d := New()
	boom := errors.New("boom")

	d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})

	err := d.Dispatch(context.Background(), statusEvent(1))
	if !errors.Is(err, boom) {
		t.Errorf("Dispatch() error = %v, want wrapped boom", err)
	}
}

func TestDispatch_IgnoresUnsubscribedTypes(t *testing.T) {
	d := New()
	called := false

	d.Subscribe(event.TypeInvoiceCreated, "invoice", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	if err := d.Dispatch(context.Background(), statusEvent(1)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if called {
		t.Error("handler for a different event type was invoked")
	}
}

func TestDispatchAsync_CloseDrainsHandlers(t *testing.T) {
	d := New()
	var count atomic.Int32

	d.Subscribe(event.TypeStatusChanged, "counter", func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		d.DispatchAsync(context.Background(), statusEvent(int64(i)))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := count.Load(); got != 10 {
		t.Errorf("handled %d events before Close returned, want 10", got)
	}
}

func TestDispatchAsync_LogsHandlerError(t *testing.T) {
	logger := &mockLogger{}
	d := New(WithLogger(logger))

	d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
		return errors.New("delivery down")
	})

	d.DispatchAsync(context.Background(), statusEvent(1))
	d.Close()

	if logger.ErrorCount() == 0 {
		t.Error("async handler error was not logged")
	}
}

func TestDispatchAsync_SurvivesCallerCancellation(t *testing.T) {
	d := New()
	var sawLiveCtx atomic.Value

	d.Subscribe(event.TypeStatusChanged, "recorder", func(ctx context.Context, evt *event.Event) error {
		sawLiveCtx.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.DispatchAsync(ctx, statusEvent(1))
	d.Close()

	live, ok := sawLiveCtx.Load().(bool)
	if !ok {
		t.Fatal("handler did not run")
	}
	if !live {
		t.Error("handler saw a cancelled context; async handlers must outlive the caller")
	}
}

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	d := New()

	d.Subscribe(event.TypeStatusChanged, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("unexpected")
	})

	err := d.Dispatch(context.Background(), statusEvent(1))
	if err == nil {
		t.Error("Dispatch() should surface a panicking handler as an error")
	}
}

func TestClose_RejectsFurtherDispatch(t *testing.T) {
	d := New()
	d.Close()

	if err := d.Dispatch(context.Background(), statusEvent(1)); err == nil {
		t.Error("Dispatch() after Close should fail")
	}

	// DispatchAsync after Close must not panic; the event is dropped and logged.
	d.DispatchAsync(context.Background(), statusEvent(2))

	// Close is idempotent.
	if err := d.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestHandlers(t *testing.T) {
	d := New()
	d.Subscribe(event.TypeWorkOrderCreated, "notify", func(ctx context.Context, evt *event.Event) error {
		return nil
	})

	infos := d.Handlers(event.TypeWorkOrderCreated)
	if len(infos) != 1 || infos[0].Name != "notify" {
		t.Errorf("Handlers() = %v, want one handler named notify", infos)
	}
	if len(d.Handlers(event.TypeInvoiceCreated)) != 0 {
		t.Error("Handlers() returned entries for an unsubscribed type")
	}
}
