// Package aggregate walks mail threads through the classifier and folds the
// outcome into per-thread results: genuine receipts, diagnostic notes for
// recognized-but-empty messages, and isolated errors.
package aggregate

import (
	"context"
	"fmt"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/mail"
)

// noteSeparator visually divides concatenated diagnostics when several are
// folded into one receipt annotation.
const noteSeparator = "\n----------------\n"

// bodySnippetLen bounds how much body text a diagnostic note quotes.
const bodySnippetLen = 80

// Classifier is the single-message classification dependency.
type Classifier interface {
	Classify(msg mail.Message) (core.Receipt, error)
}

type Aggregator struct {
	classifier Classifier
	logger     *log.Logger
}

func New(classifier Classifier, logger *log.Logger) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		logger:     logger.WithComponent(log.ComponentAggregate),
	}
}

// ClassifyThreads processes every thread and returns the results worth
// keeping. A result is kept when it has receipts or errors; results carrying
// only notes are discarded, logged with their note text, and returned
// separately so callers can audit the loss.
func (a *Aggregator) ClassifyThreads(ctx context.Context, threads []mail.Thread) (kept, discarded []core.ThreadResult) {
	for _, th := range threads {
		result := a.classifyThread(ctx, th)
		if !result.Keep() {
			if len(result.Notes) > 0 {
				a.logger.InfoContext(ctx, "Discarding notes-only thread result",
					log.FieldThreadID, result.ThreadID,
					"notes", result.Notes)
			}
			discarded = append(discarded, result)
			continue
		}
		kept = append(kept, result)
	}
	return kept, discarded
}

// classifyThread runs one thread's messages through the classifier in
// arrival order. One bad message never aborts its siblings; a failure to
// enumerate the thread at all becomes a single thread-level error.
func (a *Aggregator) classifyThread(ctx context.Context, th mail.Thread) core.ThreadResult {
	result := core.ThreadResult{
		ThreadID:     th.ID(),
		LastActivity: th.LastActivity(),
	}

	msgs, err := th.Messages(ctx)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("thread %s: enumerating messages: %v", th.ID(), err))
		return result
	}

	for _, msg := range msgs {
		receipt, err := a.classifier.Classify(msg)
		if err != nil {
			result.Errors = append(result.Errors, messageError(msg, err))
			a.logger.WarnContext(ctx, "Message classification failed",
				log.FieldThreadID, th.ID(),
				log.FieldMessageID, msg.ID,
				log.FieldError, err)
			continue
		}
		if receipt.Unclassified() {
			result.Notes = append(result.Notes, messageNote(msg, receipt))
			continue
		}
		result.Receipts = append(result.Receipts, receipt)
	}

	return result
}

func messageError(msg mail.Message, err error) string {
	return fmt.Sprintf("message %s %q (%s, thread %s): %v",
		msg.ID, msg.Subject, msg.Date.Format("2006-01-02"), msg.ThreadID, err)
}

func messageNote(msg mail.Message, receipt core.Receipt) string {
	return fmt.Sprintf("no transaction in %s message %q (%s, thread %s): %s",
		receipt.Provider, msg.Subject, msg.Date.Format("2006-01-02"), msg.ThreadID,
		core.Snippet(msg.Body, bodySnippetLen))
}
