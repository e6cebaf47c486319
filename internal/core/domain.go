package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Amount is a signed monetary value in cents. Valid is false when the
	// source message carried no recognizable amount.
	Amount struct {
		Cents int64
		Valid bool
	}

	// Receipt is a structured transaction candidate extracted from one
	// notification message. Amount and Counterparty are both optional; a
	// Receipt with neither is an unclassified record kept only to carry
	// its Note and ErrorText.
	Receipt struct {
		Date         time.Time
		Amount       Amount
		Counterparty string
		Category     string
		Provider     string
		Note         string
		ErrorText    string
	}

	// ThreadResult collects everything extracted from one mail thread.
	// Receipts preserve message order within the thread.
	ThreadResult struct {
		ThreadID     string
		LastActivity time.Time
		Receipts     []Receipt
		Notes        []string
		Errors       []string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroDate      = errors.New("date cannot be zero")
)

// Cents returns a valid Amount holding the given cents.
func Cents(c int64) Amount {
	return Amount{Cents: c, Valid: true}
}

// Neg flips the sign of a valid amount. Negating an absent amount is a no-op.
func (a Amount) Neg() Amount {
	if !a.Valid {
		return a
	}
	return Amount{Cents: -a.Cents, Valid: true}
}

// Unclassified reports whether the receipt carries no transaction at all.
// Both amount and counterparty must be absent; either one alone still counts
// as a real (if incomplete) transaction.
func (r Receipt) Unclassified() bool {
	return !r.Amount.Valid && r.Counterparty == ""
}

// Annotation renders the receipt's diagnostic text for display, error text
// first when both are present.
func (r Receipt) Annotation() string {
	switch {
	case r.ErrorText != "" && r.Note != "":
		return r.ErrorText + "\n" + r.Note
	case r.ErrorText != "":
		return r.ErrorText
	default:
		return r.Note
	}
}

// HasError reports whether any diagnostic error text is attached.
func (r Receipt) HasError() bool {
	return r.ErrorText != ""
}

// Keep reports whether the thread result is worth retaining. Results with
// neither receipts nor errors are discarded by the aggregator, notes
// included; that loss is deliberate and logged where it happens.
func (t ThreadResult) Keep() bool {
	return len(t.Receipts) > 0 || len(t.Errors) > 0
}

// Clean reports whether the thread hit no processing errors. Only clean
// threads may be marked processed in the mail store; a thread with errors
// keeps its usable receipts but stays unmarked for a later retry.
func (t ThreadResult) Clean() bool {
	return len(t.Errors) == 0
}

// SameDay reports whether two timestamps fall on the same calendar day.
// Dates coming back from the ledger may carry arbitrary times of day, so
// receipt/partition comparisons always go through here rather than using
// raw time equality.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayStart truncates a timestamp to midnight in its own location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Snippet returns the leading runes of body text for diagnostics, collapsing
// whitespace runs to single spaces.
func Snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
