// Package worker runs the pipeline on an interval, with optional on-demand
// triggers arriving over AMQP.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tally/internal/amqp"
	"tally/internal/log"
	"tally/internal/services"
)

// Runner executes one full pass. *services.RunService satisfies it.
type Runner interface {
	Run(ctx context.Context, markProcessed bool) (services.RunSummary, error)
}

// Config holds worker settings.
type Config struct {
	// PollInterval is how often a pass runs.
	PollInterval time.Duration

	// MarkProcessed controls whether clean threads are marked after
	// placement.
	MarkProcessed bool
}

// Worker drives periodic runs. Only one run is ever in flight: a trigger
// landing while a ticker pass holds the ledger waits for it, since
// concurrent passes would read the same empty tail of a window and
// overwrite each other's rows.
type Worker struct {
	runner Runner
	config Config
	logger *log.Logger

	runMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a worker.
func New(runner Runner, config Config, logger *log.Logger) *Worker {
	return &Worker{
		runner: runner,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the polling loop. Returns an error if already running.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Worker started",
		"poll_interval", w.config.PollInterval,
		"mark_processed", w.config.MarkProcessed)
	return nil
}

// Stop gracefully stops the worker and waits for the loop to exit. The
// running flag is cleared before stopCh is closed so concurrent Stops can't
// close it twice.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Worker stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning reports whether the polling loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// TriggerHandler adapts the worker for amqp.ConsumeTriggers: every trigger
// message causes one pass, after any pass already in flight finishes.
func (w *Worker) TriggerHandler(ctx context.Context) func(*amqp.TriggerMessage) error {
	return func(msg *amqp.TriggerMessage) error {
		w.logger.InfoContext(ctx, "Run triggered", "reason", msg.Reason)
		return w.runOnce(ctx)
	}
}

func (w *Worker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// First pass happens immediately, not one interval in.
	if err := w.runOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Run failed", log.FieldError, err)
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Run failed", log.FieldError, err)
			}
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	_, err := w.runner.Run(ctx, w.config.MarkProcessed)
	return err
}
