package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tally/internal/log"
)

// PartitionerConfig controls partition discovery and creation.
type PartitionerConfig struct {
	// PeriodDays is the length of a newly created pay-period window.
	PeriodDays int

	// TemplateTab is the name of the tab duplicated to realize a new
	// partition.
	TemplateTab string

	// GapLookback is how many partitions back (descending start date,
	// counting the new window as the first) to look when deciding whether
	// the new window is a gap period: the new window inherits the gap flag
	// of that partition.
	GapLookback int

	// GapTabColor is the hex tab color applied to gap partitions.
	GapTabColor string
}

// Partitioner discovers partitions and creates new ones as time advances.
type Partitioner struct {
	store  Store
	cfg    PartitionerConfig
	logger *log.Logger
}

func NewPartitioner(store Store, cfg PartitionerConfig, logger *log.Logger) *Partitioner {
	return &Partitioner{
		store:  store,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Partitions scans every tab and returns the ones whose names parse as date
// windows, in display order.
func (p *Partitioner) Partitions(ctx context.Context) ([]Partition, error) {
	tabs, err := p.store.ListTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger tabs: %w", err)
	}
	var parts []Partition
	for _, tab := range tabs {
		part, ok := ParsePartitionName(tab.Name)
		if !ok {
			continue
		}
		part.Index = tab.Index
		parts = append(parts, part)
	}
	return parts, nil
}

// EnsureNext creates one new partition when the newest window has fully
// elapsed, and reports whether it did. Calling it repeatedly until false
// catches the ledger up to the present.
func (p *Partitioner) EnsureNext(ctx context.Context, now time.Time) (bool, error) {
	parts, err := p.Partitions(ctx)
	if err != nil {
		return false, err
	}
	if len(parts) == 0 {
		return false, fmt.Errorf("ledger has no partitions to extend")
	}

	latest := parts[0]
	for _, part := range parts[1:] {
		if part.Start.After(latest.Start) {
			latest = part
		}
	}
	if !latest.Elapsed(now) {
		return false, nil
	}

	start := latest.End.AddDate(0, 0, 1)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	end := start.AddDate(0, 0, p.cfg.PeriodDays-1)
	gap := p.nextIsGap(parts)
	name := FormatPartitionName(start, end, gap)

	// The new tab takes the previous latest partition's display slot,
	// pushing it right, so partitions read newest-first.
	if err := p.store.DuplicateTab(ctx, p.cfg.TemplateTab, name, latest.Index); err != nil {
		return false, fmt.Errorf("duplicate template %q as %q: %w", p.cfg.TemplateTab, name, err)
	}
	if gap && p.cfg.GapTabColor != "" {
		if err := p.store.SetTabColor(ctx, name, p.cfg.GapTabColor); err != nil {
			return false, fmt.Errorf("color gap partition %q: %w", name, err)
		}
	}

	p.logger.InfoContext(ctx, "Created partition",
		log.FieldPartition, name,
		"gap", gap)
	return true, nil
}

// EnsureCurrent loops EnsureNext until the newest window covers now,
// returning how many partitions were created.
func (p *Partitioner) EnsureCurrent(ctx context.Context, now time.Time) (int, error) {
	created := 0
	for {
		did, err := p.EnsureNext(ctx, now)
		if err != nil {
			return created, err
		}
		if !did {
			return created, nil
		}
		created++
	}
}

// nextIsGap decides whether the window about to be created is a gap period:
// it inherits the flag of the partition GapLookback positions back in
// descending start-date order, the new window itself counting as position
// one.
func (p *Partitioner) nextIsGap(parts []Partition) bool {
	if p.cfg.GapLookback <= 1 {
		return false
	}
	sorted := append([]Partition(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.After(sorted[j].Start) })
	back := p.cfg.GapLookback - 2 // the new window occupies position one
	if back < 0 || back >= len(sorted) {
		return false
	}
	return sorted[back].Gap
}
