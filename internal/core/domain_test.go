package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReceiptUnclassified(t *testing.T) {
	tests := []struct {
		name string
		r    Receipt
		want bool
	}{
		{"both absent", Receipt{}, true},
		{"amount only", Receipt{Amount: Cents(100)}, false},
		{"counterparty only", Receipt{Counterparty: "Store"}, false},
		{"both present", Receipt{Amount: Cents(100), Counterparty: "Store"}, false},
		{"note does not classify", Receipt{Note: "something"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Unclassified(); got != tt.want {
				t.Errorf("Unclassified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReceiptAnnotation(t *testing.T) {
	r := Receipt{Note: "a note", ErrorText: "an error"}
	if got := r.Annotation(); got != "an error\na note" {
		t.Errorf("Annotation() = %q, want error rendered before note", got)
	}
	if got := (Receipt{Note: "only note"}).Annotation(); got != "only note" {
		t.Errorf("Annotation() = %q", got)
	}
	if got := (Receipt{ErrorText: "only error"}).Annotation(); got != "only error" {
		t.Errorf("Annotation() = %q", got)
	}
}

func TestThreadResultKeep(t *testing.T) {
	if (ThreadResult{Notes: []string{"n"}}).Keep() {
		t.Error("note-only result must be discarded")
	}
	if !(ThreadResult{Receipts: []Receipt{{}}}).Keep() {
		t.Error("result with receipts must be kept")
	}
	if !(ThreadResult{Errors: []string{"boom"}}).Keep() {
		t.Error("result with errors must be kept")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC)
	if !SameDay(morning, evening) {
		t.Error("same calendar day with different times must compare equal")
	}
	if SameDay(morning, date(2026, 3, 15)) {
		t.Error("different days must not compare equal")
	}
}

func TestSortReceiptsByDateStable(t *testing.T) {
	rs := []Receipt{
		{Date: date(2026, 3, 15), Counterparty: "c"},
		{Date: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC), Counterparty: "a"},
		{Date: time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC), Counterparty: "b"},
	}
	SortReceiptsByDate(rs)

	got := []string{rs[0].Counterparty, rs[1].Counterparty, rs[2].Counterparty}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (stable within same day)", got, want)
		}
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("hello   world\nagain", 50); got != "hello world again" {
		t.Errorf("Snippet() = %q", got)
	}
	if got := Snippet("abcdefgh", 4); got != "abcd…" {
		t.Errorf("Snippet() = %q", got)
	}
}
