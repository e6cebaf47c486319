package ledger

import (
	"context"
	"fmt"

	"tally/internal/core"
	"tally/internal/log"
)

// Placer writes receipts into partition windows.
type Placer struct {
	store  Store
	layout Layout
	logger *log.Logger
}

func NewPlacer(store Store, layout Layout, logger *log.Logger) *Placer {
	return &Placer{
		store:  store,
		layout: layout,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Place maps every receipt to its partition and appends them to the first
// free run of rows at the tail of each partition's window. It fails fast:
// a receipt with no covering partition aborts the pass before anything is
// written. Returns per-partition placement counts.
func (p *Placer) Place(ctx context.Context, receipts []core.Receipt, partitions []Partition) (map[string]int, error) {
	grouped := make(map[string][]core.Receipt)
	for _, r := range receipts {
		part, err := FindPartitionFor(r.Date, partitions)
		if err != nil {
			return nil, fmt.Errorf("receipt dated %s (%s): %w",
				r.Date.Format(DateLayout), r.Counterparty, err)
		}
		grouped[part.Name] = append(grouped[part.Name], r)
	}

	counts := make(map[string]int, len(grouped))
	// Partition display order keeps the pass deterministic.
	for _, part := range partitions {
		group := grouped[part.Name]
		if len(group) == 0 {
			continue
		}
		if err := p.placeInto(ctx, part.Name, group); err != nil {
			return counts, err
		}
		counts[part.Name] = len(group)
	}
	return counts, nil
}

func (p *Placer) placeInto(ctx context.Context, partition string, receipts []core.Receipt) error {
	rows, err := p.store.ReadRows(ctx, partition, p.layout)
	if err != nil {
		return fmt.Errorf("read window of %q: %w", partition, err)
	}

	// The free run is the tail of fully-empty rows: scan backward from the
	// last row to the first non-empty one; writing starts just after it.
	start := 0
	for i := len(rows) - 1; i >= 0; i-- {
		if !rows[i].Empty() {
			start = i + 1
			break
		}
	}
	if len(rows)-start < len(receipts) {
		return fmt.Errorf("partition %q: need %d rows, have %d: %w",
			partition, len(receipts), len(rows)-start, ErrNoRoom)
	}

	newRows := make([]Row, len(receipts))
	for i, r := range receipts {
		newRows[i] = Row{
			Date:     r.Date.Format(DateLayout),
			Name:     r.Counterparty,
			Cost:     r.Amount.String(),
			Category: r.Category,
		}
	}
	if err := p.store.WriteRows(ctx, partition, p.layout, start, newRows); err != nil {
		return fmt.Errorf("write %d rows to %q: %w", len(newRows), partition, err)
	}

	for i, r := range receipts {
		row := start + i
		if !r.Amount.Valid {
			if err := p.store.MarkAmountMissing(ctx, partition, p.layout, row); err != nil {
				return fmt.Errorf("mark missing amount in %q row %d: %w", partition, row, err)
			}
		}
		if text := r.Annotation(); text != "" {
			if err := p.store.Annotate(ctx, partition, p.layout, row, text, r.HasError()); err != nil {
				return fmt.Errorf("annotate %q row %d: %w", partition, row, err)
			}
		}
	}

	p.logger.InfoContext(ctx, "Placed receipts",
		log.FieldPartition, partition,
		log.FieldCount, len(receipts),
		log.FieldRow, start)
	return nil
}
