package ledger

import (
	"regexp"
	"time"
)

// DateLayout is how dates render in partition names and row date cells.
const DateLayout = "1/2/2006"

// GapMarker suffixes the name of a gap-period partition.
const GapMarker = " *"

// Partition is one time-windowed slice of the ledger. The window is
// inclusive on both ends: Start is midnight of the first day, End is the
// last second of the last day. (Historical variants disagreed on half-open
// windows; inclusive-inclusive is the convention here, tested at the
// boundary.)
type Partition struct {
	Name  string
	Start time.Time
	End   time.Time
	Gap   bool
	Index int
}

var partitionNameRe = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4}) - (\d{1,2}/\d{1,2}/\d{4})( \*)?$`)

// ParsePartitionName recognizes tab names of the form
// "3/1/2026 - 3/14/2026", optionally carrying the gap marker. Tabs that
// don't match are not partitions.
func ParsePartitionName(name string) (Partition, bool) {
	m := partitionNameRe.FindStringSubmatch(name)
	if m == nil {
		return Partition{}, false
	}
	start, err := time.ParseInLocation(DateLayout, m[1], time.Local)
	if err != nil {
		return Partition{}, false
	}
	end, err := time.ParseInLocation(DateLayout, m[2], time.Local)
	if err != nil || end.Before(start) {
		return Partition{}, false
	}
	return Partition{
		Name:  name,
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
		Gap:   m[3] != "",
	}, true
}

// FormatPartitionName renders the canonical tab name for a window.
func FormatPartitionName(start, end time.Time, gap bool) string {
	name := start.Format(DateLayout) + " - " + end.Format(DateLayout)
	if gap {
		name += GapMarker
	}
	return name
}

// dayKey collapses a timestamp to a comparable calendar-day ordinal, so
// window containment is immune to times of day and location offsets.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Contains reports whether the date falls inside the partition's window,
// both boundary days included.
func (p Partition) Contains(date time.Time) bool {
	k := dayKey(date)
	return k >= dayKey(p.Start) && k <= dayKey(p.End)
}

// Elapsed reports whether the partition's window lies entirely in the past.
func (p Partition) Elapsed(now time.Time) bool {
	return dayKey(now) > dayKey(p.End)
}

// FindPartitionFor locates the partition whose window contains the date.
// Not finding one is fatal for that receipt, surfaced as an error rather
// than silently dropped.
func FindPartitionFor(date time.Time, partitions []Partition) (Partition, error) {
	for _, p := range partitions {
		if p.Contains(date) {
			return p, nil
		}
	}
	return Partition{}, ErrPartitionNotFound
}
