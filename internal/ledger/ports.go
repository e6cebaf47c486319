// Package ledger places receipts into date-windowed partitions of the
// tabular ledger and splits recorded rows in place. The ledger itself is
// external state reached through the Store port; partitions are tabs whose
// names encode their date window.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrPartitionNotFound = errors.New("no partition covers date")
	ErrEmptySplitTarget  = errors.New("split target row is empty")
	ErrAlreadySplit      = errors.New("row is already inside a split group")
	ErrNoRoom            = errors.New("no empty row available in partition window")
)

// Row is one positional slot inside a partition's transaction window, in the
// ledger's wire representation. Cost holds either a literal decimal or a
// formula expression beginning with "=". A row with every field blank is an
// empty slot.
type Row struct {
	Date     string
	Name     string
	Cost     string
	Category string
	Type     string
}

// Empty reports whether the slot holds nothing at all.
func (r Row) Empty() bool {
	return r.Date == "" && r.Name == "" && r.Cost == "" && r.Category == "" && r.Type == ""
}

// RowRange is a span of window-relative row indexes, inclusive on both ends.
type RowRange struct {
	Start int
	End   int
}

// Layout describes where the transaction window sits inside each partition
// tab. All values come from configuration, never hard-coded: three
// contiguous columns for date/name/cost starting at DateCol, a two-column
// category/type block offset from the name column, and the split-checkbox
// column.
type Layout struct {
	// StartRow is the 0-based sheet row of the window's first slot.
	StartRow int
	// Rows is the fixed window size.
	Rows int
	// DateCol is the 0-based column of the date cell; name and cost follow.
	DateCol int
	// MetaOffset is the distance from the name column to the category
	// column; the type column is the one after that.
	MetaOffset int
	// CheckboxCol is the split-checkbox column.
	CheckboxCol int
}

func (l Layout) NameCol() int     { return l.DateCol + 1 }
func (l Layout) CostCol() int     { return l.DateCol + 2 }
func (l Layout) CategoryCol() int { return l.NameCol() + l.MetaOffset }
func (l Layout) TypeCol() int     { return l.CategoryCol() + 1 }

// Tab is one sheet of the ledger in display order.
type Tab struct {
	Name  string
	Index int
}

// Store is the port onto the external tabular ledger.
type Store interface {
	// ListTabs enumerates every tab in display order.
	ListTabs(ctx context.Context) ([]Tab, error)

	// ReadRows reads the full transaction window of a tab.
	ReadRows(ctx context.Context, tab string, layout Layout) ([]Row, error)

	// WriteRows overwrites consecutive window slots starting at the
	// window-relative index start. Cost strings beginning with "=" are
	// written as formula expressions.
	WriteRows(ctx context.Context, tab string, layout Layout, start int, rows []Row) error

	// ClearRows blanks count slots starting at start.
	ClearRows(ctx context.Context, tab string, layout Layout, start, count int) error

	// Annotate attaches diagnostic text to a slot's name cell. Errors are
	// visually distinguished from plain notes.
	Annotate(ctx context.Context, tab string, layout Layout, row int, text string, isError bool) error

	// MarkAmountMissing visually flags a slot whose amount is absent.
	MarkAmountMissing(ctx context.Context, tab string, layout Layout, row int) error

	// DuplicateTab copies the template tab under a new name at the given
	// display index.
	DuplicateTab(ctx context.Context, template, newName string, index int) error

	// SetTabColor colors a tab, used to mark gap-period partitions.
	SetTabColor(ctx context.Context, tab, hexColor string) error
}
