package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/log"
	"tally/internal/services"
)

type countingRunner struct {
	runs int64
	err  error
}

func (r *countingRunner) Run(context.Context, bool) (services.RunSummary, error) {
	atomic.AddInt64(&r.runs, 1)
	return services.RunSummary{}, r.err
}

func (r *countingRunner) count() int64 { return atomic.LoadInt64(&r.runs) }

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorkerRunsImmediatelyAndOnInterval(t *testing.T) {
	runner := &countingRunner{}
	w := New(runner, Config{PollInterval: 10 * time.Millisecond, MarkProcessed: true}, testLogger())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return runner.count() >= 2 })

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("worker still reported running after Stop")
	}
}

func TestWorkerRejectsDoubleStart(t *testing.T) {
	w := New(&countingRunner{}, Config{PollInterval: time.Hour}, testLogger())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail")
	}
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	w := New(&countingRunner{}, Config{PollInterval: time.Hour}, testLogger())
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
}

func TestWorkerConcurrentStops(t *testing.T) {
	w := New(&countingRunner{}, Config{PollInterval: time.Hour}, testLogger())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Stop(context.Background()); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()
}

// gaugeRunner tracks how many Run calls overlap.
type gaugeRunner struct {
	current int64
	peak    int64
	runs    int64
	hold    time.Duration
}

func (r *gaugeRunner) Run(context.Context, bool) (services.RunSummary, error) {
	cur := atomic.AddInt64(&r.current, 1)
	for {
		peak := atomic.LoadInt64(&r.peak)
		if cur <= peak || atomic.CompareAndSwapInt64(&r.peak, peak, cur) {
			break
		}
	}
	time.Sleep(r.hold)
	atomic.AddInt64(&r.current, -1)
	atomic.AddInt64(&r.runs, 1)
	return services.RunSummary{}, nil
}

func TestTriggerDuringPollPassDoesNotOverlap(t *testing.T) {
	runner := &gaugeRunner{hold: 50 * time.Millisecond}
	w := New(runner, Config{PollInterval: time.Hour}, testLogger())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	// The startup pass is holding the ledger; fire a trigger into it.
	handler := w.TriggerHandler(context.Background())
	time.Sleep(10 * time.Millisecond)
	if err := handler(&amqp.TriggerMessage{Reason: "manual"}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	waitFor(t, func() bool { return atomic.LoadInt64(&runner.runs) >= 2 })
	if peak := atomic.LoadInt64(&runner.peak); peak != 1 {
		t.Errorf("peak concurrent runs = %d, want 1", peak)
	}
}

func TestTriggerHandlerRunsOnce(t *testing.T) {
	runner := &countingRunner{}
	w := New(runner, Config{PollInterval: time.Hour}, testLogger())

	handler := w.TriggerHandler(context.Background())
	if err := handler(&amqp.TriggerMessage{Reason: "manual"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if runner.count() != 1 {
		t.Errorf("runs = %d, want 1", runner.count())
	}
}

func TestTriggerHandlerPropagatesRunError(t *testing.T) {
	runner := &countingRunner{err: errors.New("boom")}
	w := New(runner, Config{PollInterval: time.Hour}, testLogger())

	if err := w.TriggerHandler(context.Background())(&amqp.TriggerMessage{}); err == nil {
		t.Fatal("expected run error to propagate for requeue")
	}
}
