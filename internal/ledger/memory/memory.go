// Package memory is an in-memory ledger store backing tests and the memory
// backend: tabs are fixed-size row grids with recorded annotations.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/ledger"
)

// Annotation records one Annotate call for assertions.
type Annotation struct {
	Row     int
	Text    string
	IsError bool
}

type tab struct {
	name    string
	rows    []ledger.Row
	notes   []Annotation
	missing []int
	color   string
}

type Store struct {
	mu   sync.Mutex
	tabs []*tab
	size int
}

// New creates a store whose tabs hold windows of the given row count.
func New(windowRows int) *Store {
	return &Store{size: windowRows}
}

// AddTab appends a tab, optionally pre-seeded with rows (padded to the
// window size).
func (s *Store) AddTab(name string, rows ...ledger.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	padded := make([]ledger.Row, s.size)
	copy(padded, rows)
	s.tabs = append(s.tabs, &tab{name: name, rows: padded})
}

func (s *Store) find(name string) (*tab, error) {
	for _, t := range s.tabs {
		if t.name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no tab %q", name)
}

func (s *Store) ListTabs(_ context.Context) ([]ledger.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Tab, len(s.tabs))
	for i, t := range s.tabs {
		out[i] = ledger.Tab{Name: t.name, Index: i}
	}
	return out, nil
}

func (s *Store) ReadRows(_ context.Context, name string, _ ledger.Layout) ([]ledger.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return nil, err
	}
	return append([]ledger.Row(nil), t.rows...), nil
}

func (s *Store) WriteRows(_ context.Context, name string, _ ledger.Layout, start int, rows []ledger.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return err
	}
	if start < 0 || start+len(rows) > len(t.rows) {
		return fmt.Errorf("write [%d,%d) outside window of %d rows", start, start+len(rows), len(t.rows))
	}
	copy(t.rows[start:], rows)
	return nil
}

func (s *Store) ClearRows(_ context.Context, name string, _ ledger.Layout, start, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return err
	}
	if start < 0 || start+count > len(t.rows) {
		return fmt.Errorf("clear [%d,%d) outside window of %d rows", start, start+count, len(t.rows))
	}
	for i := start; i < start+count; i++ {
		t.rows[i] = ledger.Row{}
	}
	return nil
}

func (s *Store) Annotate(_ context.Context, name string, _ ledger.Layout, row int, text string, isError bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return err
	}
	t.notes = append(t.notes, Annotation{Row: row, Text: text, IsError: isError})
	return nil
}

func (s *Store) MarkAmountMissing(_ context.Context, name string, _ ledger.Layout, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return err
	}
	t.missing = append(t.missing, row)
	return nil
}

func (s *Store) DuplicateTab(_ context.Context, template, newName string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.find(template)
	if err != nil {
		return err
	}
	if _, err := s.find(newName); err == nil {
		return fmt.Errorf("tab %q already exists", newName)
	}
	if index < 0 || index > len(s.tabs) {
		return fmt.Errorf("index %d out of range", index)
	}
	dup := &tab{name: newName, rows: append([]ledger.Row(nil), src.rows...)}
	s.tabs = append(s.tabs, nil)
	copy(s.tabs[index+1:], s.tabs[index:])
	s.tabs[index] = dup
	return nil
}

func (s *Store) SetTabColor(_ context.Context, name, hexColor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return err
	}
	t.color = hexColor
	return nil
}

// Rows returns a copy of a tab's window for assertions.
func (s *Store) Rows(name string) []ledger.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return nil
	}
	return append([]ledger.Row(nil), t.rows...)
}

// Annotations returns recorded annotations for a tab.
func (s *Store) Annotations(name string) []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return nil
	}
	return append([]Annotation(nil), t.notes...)
}

// MissingAmountRows returns rows flagged as missing an amount.
func (s *Store) MissingAmountRows(name string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return nil
	}
	return append([]int(nil), t.missing...)
}

// TabColor returns the color set on a tab.
func (s *Store) TabColor(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.find(name)
	if err != nil {
		return ""
	}
	return t.color
}

// TabNames returns tab names in display order.
func (s *Store) TabNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tabs))
	for i, t := range s.tabs {
		out[i] = t.name
	}
	return out
}
