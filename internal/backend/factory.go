package backend

import (
	"context"
	"fmt"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/config"
	"tally/internal/googleauth"
	"tally/internal/ledger"
	ledgergoogle "tally/internal/ledger/google"
	ledgermem "tally/internal/ledger/memory"
	"tally/internal/log"
	"tally/internal/mail/gmail"
	mailmem "tally/internal/mail/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a store factory.
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateStores builds the mail and ledger stores named by DATA_BACKEND.
func (f *DefaultFactory) CreateStores(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "google":
		return f.createGoogle(ctx, cfg)
	case "memory":
		return f.createMemory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

func (f *DefaultFactory) createGoogle(ctx context.Context, cfg *config.Config) (*Result, error) {
	httpClient, err := googleauth.Client(ctx, googleauth.Credentials{
		ClientJSON: cfg.GoogleOAuthClientJSON,
		ClientFile: cfg.GoogleOAuthClientFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
	}, gmailapi.GmailModifyScope, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("initialize Google OAuth client: %w", err)
	}

	mailStore, err := gmail.New(ctx, httpClient, cfg.ProcessedLabel, cfg.ArchiveLabel)
	if err != nil {
		return nil, fmt.Errorf("initialize Gmail store: %w", err)
	}
	ledgerStore, err := ledgergoogle.New(ctx, httpClient, cfg.GoogleSpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets store: %w", err)
	}

	f.logger.Info("Initialized Google backend",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	return &Result{Stores: Stores{Mail: mailStore, Ledger: ledgerStore}}, nil
}

// createMemory builds empty in-memory stores seeded with the template tab
// and one partition covering today, enough for local runs and tests.
func (f *DefaultFactory) createMemory(cfg *config.Config) *Result {
	mailStore := mailmem.New()
	ledgerStore := ledgermem.New(cfg.WindowRows)
	ledgerStore.AddTab(cfg.TemplateTab)

	start := time.Now()
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	end := start.AddDate(0, 0, cfg.PeriodDays-1)
	ledgerStore.AddTab(ledger.FormatPartitionName(start, end, false))

	f.logger.Info("Initialized memory backend")

	return &Result{Stores: Stores{Mail: mailStore, Ledger: ledgerStore}}
}
