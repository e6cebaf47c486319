package services

import (
	"context"
	"fmt"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/mail"
)

// PipelineConfig holds the knobs for a classification run.
type PipelineConfig struct {
	// Query selects notification threads in the mail store.
	Query string

	// MaxThreads caps how many threads a single run pulls in.
	MaxThreads int64
}

// Pipeline wires the mail store, classifier, partitioner and placer into the
// operations a run is made of. Each method is independently callable so the
// CLI can expose them as subcommands.
type Pipeline struct {
	mail        mail.Store
	aggregator  *aggregate.Aggregator
	partitioner *ledger.Partitioner
	placer      *ledger.Placer
	config      PipelineConfig
	logger      *log.Logger
}

// NewPipeline creates a pipeline over the given collaborators.
func NewPipeline(
	mailStore mail.Store,
	aggregator *aggregate.Aggregator,
	partitioner *ledger.Partitioner,
	placer *ledger.Placer,
	config PipelineConfig,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		mail:        mailStore,
		aggregator:  aggregator,
		partitioner: partitioner,
		placer:      placer,
		config:      config,
		logger:      logger.WithComponent(log.ComponentApp),
	}
}

// ClassifyAndAggregate searches the mail store and turns every matching
// thread into a thread result. Kept results carry receipts or errors;
// notes-only results come back in discarded.
func (p *Pipeline) ClassifyAndAggregate(ctx context.Context) (kept, discarded []core.ThreadResult, err error) {
	threads, err := p.mail.Search(ctx, p.config.Query, 0, p.config.MaxThreads)
	if err != nil {
		return nil, nil, fmt.Errorf("search mail: %w", err)
	}

	p.logger.InfoContext(ctx, "Classifying threads",
		log.FieldCount, len(threads),
		"query", p.config.Query)

	kept, discarded = p.aggregator.ClassifyThreads(ctx, threads)
	return kept, discarded, nil
}

// PlaceReceipts flattens the thread results and writes every receipt into
// its partition. A receipt without a home partition fails the call before a
// single row is written; a partition running out of room mid-pass stops the
// pass there, leaving earlier partitions written. Nothing is rolled back.
//
// When markProcessed is set, threads that produced no errors are marked in
// the mail store afterwards. Threads with errors always stay unmarked so the
// next run retries them.
func (p *Pipeline) PlaceReceipts(ctx context.Context, results []core.ThreadResult, markProcessed bool) (map[string]int, error) {
	partitions, err := p.partitioner.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	receipts := aggregate.Flatten(results)
	placed, err := p.placer.Place(ctx, receipts, partitions)
	if err != nil {
		return nil, err
	}

	if markProcessed {
		p.markClean(ctx, results)
	}
	return placed, nil
}

// markClean marks the error-free threads as processed. A mark failure is
// logged and skipped: the worst case is the thread showing up again next
// run, where placement simply appends another copy for a human to spot via
// the run log.
func (p *Pipeline) markClean(ctx context.Context, results []core.ThreadResult) {
	for _, tr := range results {
		if !tr.Clean() {
			p.logger.InfoContext(ctx, "Leaving errored thread unmarked",
				log.FieldThreadID, tr.ThreadID,
				log.FieldCount, len(tr.Errors))
			continue
		}
		if err := p.mail.MarkProcessed(ctx, tr.ThreadID); err != nil {
			p.logger.WarnContext(ctx, "Failed to mark thread processed",
				log.FieldThreadID, tr.ThreadID,
				log.FieldError, err)
		}
	}
}

// EnsurePartitionsCurrent creates partitions until one covers now, and
// returns how many were created.
func (p *Pipeline) EnsurePartitionsCurrent(ctx context.Context, now time.Time) (int, error) {
	return p.partitioner.EnsureCurrent(ctx, now)
}
