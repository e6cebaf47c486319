package services

import (
	"context"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
)

// AuditLog records run history. *audit.Store satisfies it; a nil log
// disables auditing.
type AuditLog interface {
	BeginRun(ctx context.Context) (string, error)
	FinishRun(ctx context.Context, runID string, threadsSeen, receiptsPlaced, errorCount, discardedThreads int) error
	RecordError(ctx context.Context, runID, threadID, detail string) error
	RecordDiscardedNote(ctx context.Context, runID, threadID, note string) error
}

// EventPublisher announces completed runs. *amqp.Client satisfies it; a nil
// publisher disables events.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, msg *amqp.RunCompletedMessage) error
}

// RunSummary is what one end-to-end run produced.
type RunSummary struct {
	RunID             string
	ThreadsSeen       int
	PartitionsCreated int
	Placed            map[string]int
	ReceiptsPlaced    int
	ErrorCount        int
	DiscardedThreads  int
}

// RunService drives a full run: search, classify, ensure partitions, place,
// mark, audit, announce.
type RunService struct {
	pipeline *Pipeline
	audit    AuditLog
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

// NewRunService creates a run service. audit and events may be nil.
func NewRunService(pipeline *Pipeline, auditLog AuditLog, events EventPublisher, logger *log.Logger) *RunService {
	return &RunService{
		pipeline: pipeline,
		audit:    auditLog,
		events:   events,
		logger:   logger.WithComponent(log.ComponentApp),
		now:      time.Now,
	}
}

// Run executes one complete pass over the mail store. Partition layout is
// brought current before any placement so every receipt dated up to today
// has a window. Classification errors are contained per message and
// reported; a placement error aborts the run with nothing written.
func (s *RunService) Run(ctx context.Context, markProcessed bool) (RunSummary, error) {
	var summary RunSummary

	runID, err := s.beginRun(ctx)
	if err != nil {
		return summary, err
	}
	summary.RunID = runID

	created, err := s.pipeline.EnsurePartitionsCurrent(ctx, s.now())
	if err != nil {
		s.finish(ctx, summary)
		return summary, err
	}
	summary.PartitionsCreated = created

	kept, discarded, err := s.pipeline.ClassifyAndAggregate(ctx)
	if err != nil {
		s.finish(ctx, summary)
		return summary, err
	}
	summary.ThreadsSeen = len(kept) + len(discarded)
	summary.DiscardedThreads = len(discarded)
	summary.ErrorCount = countErrors(kept)
	s.recordDiagnostics(ctx, runID, kept, discarded)

	if len(kept) > 0 {
		placed, err := s.pipeline.PlaceReceipts(ctx, kept, markProcessed)
		if err != nil {
			s.recordError(ctx, runID, "", err.Error())
			summary.ErrorCount++
			s.finish(ctx, summary)
			return summary, err
		}
		summary.Placed = placed
		for _, n := range placed {
			summary.ReceiptsPlaced += n
		}
	}

	s.finish(ctx, summary)
	s.announce(ctx, summary)
	s.report(ctx, summary)
	return summary, nil
}

func (s *RunService) beginRun(ctx context.Context) (string, error) {
	if s.audit == nil {
		return "", nil
	}
	return s.audit.BeginRun(ctx)
}

func (s *RunService) recordDiagnostics(ctx context.Context, runID string, kept, discarded []core.ThreadResult) {
	if s.audit == nil {
		return
	}
	for _, tr := range kept {
		for _, e := range tr.Errors {
			s.recordError(ctx, runID, tr.ThreadID, e)
		}
	}
	for _, tr := range discarded {
		for _, note := range tr.Notes {
			if err := s.audit.RecordDiscardedNote(ctx, runID, tr.ThreadID, note); err != nil {
				s.logger.WarnContext(ctx, "Failed to record discarded note",
					log.FieldRunID, runID, log.FieldError, err)
			}
		}
	}
}

func (s *RunService) recordError(ctx context.Context, runID, threadID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordError(ctx, runID, threadID, detail); err != nil {
		s.logger.WarnContext(ctx, "Failed to record run error",
			log.FieldRunID, runID, log.FieldError, err)
	}
}

func (s *RunService) finish(ctx context.Context, summary RunSummary) {
	if s.audit == nil {
		return
	}
	err := s.audit.FinishRun(ctx, summary.RunID,
		summary.ThreadsSeen, summary.ReceiptsPlaced,
		summary.ErrorCount, summary.DiscardedThreads)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to finish audit run",
			log.FieldRunID, summary.RunID, log.FieldError, err)
	}
}

func (s *RunService) announce(ctx context.Context, summary RunSummary) {
	if s.events == nil {
		return
	}
	msg := amqp.NewRunCompletedMessage(summary.RunID,
		summary.ThreadsSeen, summary.Placed,
		summary.ErrorCount, summary.DiscardedThreads)
	if err := s.events.PublishRunCompleted(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish run completed event",
			log.FieldRunID, summary.RunID, log.FieldError, err)
	}
}

// report emits the single summary line a human scans after a run. Errors
// surface here in aggregate; the per-thread detail lives in the cell
// annotations and the audit store.
func (s *RunService) report(ctx context.Context, summary RunSummary) {
	args := []any{
		log.FieldRunID, summary.RunID,
		"threads", summary.ThreadsSeen,
		"placed", summary.ReceiptsPlaced,
		"partitions_created", summary.PartitionsCreated,
		"discarded", summary.DiscardedThreads,
		"errors", summary.ErrorCount,
	}
	if summary.ErrorCount > 0 {
		s.logger.WarnContext(ctx, "Run completed with errors", args...)
		return
	}
	s.logger.InfoContext(ctx, "Run completed", args...)
}

func countErrors(results []core.ThreadResult) int {
	n := 0
	for _, tr := range results {
		n += len(tr.Errors)
	}
	return n
}
