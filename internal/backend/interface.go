package backend

import (
	"context"

	"tally/internal/config"
	"tally/internal/ledger"
	"tally/internal/mail"
)

// Stores bundles the two external collaborators a run needs.
type Stores struct {
	Mail   mail.Store
	Ledger ledger.Store
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the stores and an optional cleanup function.
type Result struct {
	Stores  Stores
	Cleanup CleanupFunc
}

// Factory creates store backends based on configuration.
type Factory interface {
	CreateStores(ctx context.Context, cfg *config.Config) (*Result, error)
}

// LayoutFromConfig builds the window layout the ledger adapters share.
func LayoutFromConfig(cfg *config.Config) ledger.Layout {
	return ledger.Layout{
		StartRow:    cfg.WindowStartRow,
		Rows:        cfg.WindowRows,
		DateCol:     cfg.DateCol,
		MetaOffset:  cfg.MetaOffset,
		CheckboxCol: cfg.CheckboxCol,
	}
}
