package ledger

import (
	"errors"
	"testing"
	"time"
)

func localDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParsePartitionName(t *testing.T) {
	tests := []struct {
		name    string
		ok      bool
		gap     bool
		start   time.Time
		endDay  int
	}{
		{"3/1/2026 - 3/14/2026", true, false, localDate(2026, 3, 1), 14},
		{"3/15/2026 - 3/28/2026 *", true, true, localDate(2026, 3, 15), 28},
		{"Template", false, false, time.Time{}, 0},
		{"3/1/2026", false, false, time.Time{}, 0},
		{"3/14/2026 - 3/1/2026", false, false, time.Time{}, 0},
		{"Notes 3/1/2026 - 3/14/2026", false, false, time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParsePartitionName(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if p.Gap != tt.gap {
				t.Errorf("gap = %v, want %v", p.Gap, tt.gap)
			}
			if !p.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", p.Start, tt.start)
			}
			if p.End.Day() != tt.endDay {
				t.Errorf("end day = %d, want %d", p.End.Day(), tt.endDay)
			}
		})
	}
}

func TestFormatPartitionNameRoundTrip(t *testing.T) {
	name := FormatPartitionName(localDate(2026, 3, 29), localDate(2026, 4, 11), true)
	if name != "3/29/2026 - 4/11/2026 *" {
		t.Fatalf("name = %q", name)
	}
	p, ok := ParsePartitionName(name)
	if !ok || !p.Gap {
		t.Fatalf("round trip failed: %+v ok=%v", p, ok)
	}
}

func TestPartitionContainsBoundaries(t *testing.T) {
	p, _ := ParsePartitionName("3/1/2026 - 3/14/2026")

	// Inclusive on both ends, whatever the time of day.
	if !p.Contains(localDate(2026, 3, 1)) {
		t.Error("start day must be inside the window")
	}
	if !p.Contains(time.Date(2026, 3, 14, 23, 30, 0, 0, time.Local)) {
		t.Error("end day must be inside the window")
	}
	if p.Contains(localDate(2026, 2, 28)) {
		t.Error("day before start must be outside")
	}
	if p.Contains(localDate(2026, 3, 15)) {
		t.Error("day after end must be outside")
	}
}

func TestPartitionElapsed(t *testing.T) {
	p, _ := ParsePartitionName("3/1/2026 - 3/14/2026")
	if p.Elapsed(localDate(2026, 3, 14)) {
		t.Error("window is not elapsed on its last day")
	}
	if !p.Elapsed(localDate(2026, 3, 15)) {
		t.Error("window is elapsed the day after its end")
	}
}

func TestFindPartitionFor(t *testing.T) {
	a, _ := ParsePartitionName("3/1/2026 - 3/14/2026")
	b, _ := ParsePartitionName("3/15/2026 - 3/28/2026")
	parts := []Partition{a, b}

	got, err := FindPartitionFor(localDate(2026, 3, 20), parts)
	if err != nil {
		t.Fatalf("FindPartitionFor: %v", err)
	}
	if got.Name != b.Name {
		t.Errorf("partition = %q, want %q", got.Name, b.Name)
	}

	_, err = FindPartitionFor(localDate(2026, 5, 1), parts)
	if !errors.Is(err, ErrPartitionNotFound) {
		t.Fatalf("err = %v, want ErrPartitionNotFound", err)
	}
}
