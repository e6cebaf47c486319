package core

import "sort"

// SortReceiptsByDate orders receipts ascending by calendar day. The sort is
// stable: receipts whose dates fall on the same day keep their input order,
// which downstream placement relies on to keep thread order intact.
func SortReceiptsByDate(rs []Receipt) {
	sort.SliceStable(rs, func(i, j int) bool {
		if SameDay(rs[i].Date, rs[j].Date) {
			return false
		}
		return DayStart(rs[i].Date).Before(DayStart(rs[j].Date))
	})
}
