package aggregate

import (
	"strings"

	"tally/internal/core"
)

// Flatten turns retained thread results into the single receipt list handed
// to placement, sorted ascending by calendar day (stable, so thread order
// survives equal dates).
//
// A thread's accumulated errors and notes ride on its first receipt. A
// thread that produced errors or notes but no receipts gets one placeholder
// receipt, dated at the thread's last activity with amount and counterparty
// absent, purely to carry that text into the ledger.
func Flatten(results []core.ThreadResult) []core.Receipt {
	var out []core.Receipt
	for _, tr := range results {
		receipts := append([]core.Receipt(nil), tr.Receipts...)
		if len(receipts) == 0 && (len(tr.Errors) > 0 || len(tr.Notes) > 0) {
			receipts = []core.Receipt{{Date: tr.LastActivity}}
		}
		if len(receipts) == 0 {
			continue
		}
		receipts[0].ErrorText = joinDiagnostics(receipts[0].ErrorText, tr.Errors)
		receipts[0].Note = joinDiagnostics(receipts[0].Note, tr.Notes)
		out = append(out, receipts...)
	}
	core.SortReceiptsByDate(out)
	return out
}

func joinDiagnostics(existing string, lines []string) string {
	if len(lines) == 0 {
		return existing
	}
	joined := strings.Join(lines, noteSeparator)
	if existing == "" {
		return joined
	}
	return existing + noteSeparator + joined
}
