package aggregate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/mail"
	"tally/internal/mail/memory"
)

var day = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// fakeClassifier classifies by subject keyword: "good" yields a receipt,
// "skip" an unclassified record, "bad" an error.
type fakeClassifier struct{}

func (fakeClassifier) Classify(msg mail.Message) (core.Receipt, error) {
	switch {
	case strings.HasPrefix(msg.Subject, "good"):
		return core.Receipt{
			Date:         msg.Date,
			Amount:       core.Cents(1000),
			Counterparty: strings.TrimPrefix(msg.Subject, "good "),
			Provider:     "Fake",
		}, nil
	case strings.HasPrefix(msg.Subject, "bad"):
		return core.Receipt{}, errors.New("boom")
	default:
		return core.Receipt{Date: msg.Date, Provider: "Fake"}, nil
	}
}

func newAggregator() *Aggregator {
	return New(fakeClassifier{}, log.New(log.DefaultConfig()))
}

func msg(id, subject string) mail.Message {
	return mail.Message{ID: id, ThreadID: "t1", Subject: subject, Date: day}
}

func TestClassifyThreadsMixedMessages(t *testing.T) {
	th := &memory.Thread{ThreadID: "t1", Activity: day, Msgs: []mail.Message{
		msg("m1", "good Example Store"),
		msg("m2", "skip newsletter"),
	}}

	results, discarded := newAggregator().ClassifyThreads(context.Background(), []mail.Thread{th})
	if len(discarded) != 0 {
		t.Errorf("discarded = %d, want 0", len(discarded))
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	tr := results[0]
	if len(tr.Receipts) != 1 || len(tr.Notes) != 1 || len(tr.Errors) != 0 {
		t.Fatalf("receipts/notes/errors = %d/%d/%d", len(tr.Receipts), len(tr.Notes), len(tr.Errors))
	}
	if !tr.Clean() {
		t.Error("thread without errors must be clean")
	}
}

func TestClassifyThreadsErrorIsolation(t *testing.T) {
	th := &memory.Thread{ThreadID: "t1", Activity: day, Msgs: []mail.Message{
		msg("m1", "bad one"),
		msg("m2", "good Example Store"),
	}}

	results, _ := newAggregator().ClassifyThreads(context.Background(), []mail.Thread{th})
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	tr := results[0]
	// The failing first message must not stop the second from classifying.
	if len(tr.Receipts) != 1 {
		t.Errorf("receipts = %d, want 1 despite earlier error", len(tr.Receipts))
	}
	if len(tr.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(tr.Errors))
	}
	if !strings.Contains(tr.Errors[0], "m1") || !strings.Contains(tr.Errors[0], "boom") {
		t.Errorf("error diagnostic missing id or cause: %q", tr.Errors[0])
	}
	if tr.Clean() {
		t.Error("thread with errors must not be clean")
	}
}

func TestClassifyThreadsEnumerationFailure(t *testing.T) {
	th := &memory.Thread{ThreadID: "t9", Activity: day, EnumerateErr: errors.New("quota")}

	results, _ := newAggregator().ClassifyThreads(context.Background(), []mail.Thread{th})
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	if len(results[0].Errors) != 1 {
		t.Fatalf("errors = %d, want single thread-level error", len(results[0].Errors))
	}
	if !strings.Contains(results[0].Errors[0], "quota") {
		t.Errorf("error = %q", results[0].Errors[0])
	}
}

func TestClassifyThreadsDiscardsNotesOnly(t *testing.T) {
	th := &memory.Thread{ThreadID: "t2", Activity: day, Msgs: []mail.Message{
		msg("m1", "skip one"),
		msg("m2", "skip two"),
	}}

	results, discarded := newAggregator().ClassifyThreads(context.Background(), []mail.Thread{th})
	if len(results) != 0 {
		t.Fatalf("notes-only thread must be discarded, got %d results", len(results))
	}
	if len(discarded) != 1 || discarded[0].ThreadID != "t2" {
		t.Errorf("discarded = %+v, want the notes-only thread", discarded)
	}
}

func TestFlattenAttachesDiagnosticsToFirstReceipt(t *testing.T) {
	results := []core.ThreadResult{{
		ThreadID:     "t1",
		LastActivity: day,
		Receipts: []core.Receipt{
			{Date: day, Amount: core.Cents(100), Counterparty: "A"},
			{Date: day, Amount: core.Cents(200), Counterparty: "B"},
		},
		Notes:  []string{"note-1"},
		Errors: []string{"err-1", "err-2"},
	}}

	flat := Flatten(results)
	if len(flat) != 2 {
		t.Fatalf("flat = %d", len(flat))
	}
	first := flat[0]
	if !strings.Contains(first.ErrorText, "err-1") || !strings.Contains(first.ErrorText, "err-2") {
		t.Errorf("first receipt missing errors: %q", first.ErrorText)
	}
	if !strings.Contains(first.ErrorText, noteSeparator) {
		t.Errorf("multiple errors must be joined with the separator banner: %q", first.ErrorText)
	}
	if first.Note != "note-1" {
		t.Errorf("note = %q", first.Note)
	}
	if flat[1].Note != "" || flat[1].ErrorText != "" {
		t.Error("diagnostics must ride only on the first receipt")
	}
	// Input must stay untouched.
	if results[0].Receipts[0].ErrorText != "" {
		t.Error("Flatten must not mutate its input")
	}
}

func TestFlattenSynthesizesPlaceholder(t *testing.T) {
	results := []core.ThreadResult{{
		ThreadID:     "t3",
		LastActivity: day,
		Errors:       []string{"broken"},
	}}

	flat := Flatten(results)
	if len(flat) != 1 {
		t.Fatalf("flat = %d, want placeholder", len(flat))
	}
	p := flat[0]
	if !p.Unclassified() {
		t.Errorf("placeholder must have no amount/counterparty: %+v", p)
	}
	if !core.SameDay(p.Date, day) {
		t.Errorf("placeholder date = %v, want thread last activity", p.Date)
	}
	if p.ErrorText != "broken" {
		t.Errorf("errorText = %q", p.ErrorText)
	}
}

func TestFlattenSortsStableByDay(t *testing.T) {
	d1 := time.Date(2026, 3, 13, 23, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	results := []core.ThreadResult{
		{ThreadID: "a", Receipts: []core.Receipt{{Date: d2, Counterparty: "late-first"}}},
		{ThreadID: "b", Receipts: []core.Receipt{{Date: d1, Counterparty: "early"}}},
		{ThreadID: "c", Receipts: []core.Receipt{{Date: d2, Counterparty: "late-second"}}},
	}

	flat := Flatten(results)
	want := []string{"early", "late-first", "late-second"}
	for i, w := range want {
		if flat[i].Counterparty != w {
			t.Fatalf("order[%d] = %q, want %q", i, flat[i].Counterparty, w)
		}
	}
}
