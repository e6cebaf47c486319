package backend

import (
	"context"
	"fmt"

	"tally/internal/aggregate"
	"tally/internal/amqp"
	"tally/internal/audit"
	"tally/internal/classify"
	"tally/internal/config"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/services"
)

// App is the fully wired service stack behind every binary.
type App struct {
	Pipeline *services.Pipeline
	Run      *services.RunService
	Split    *services.SplitService
	Audit    *audit.Store

	events  *amqp.Client
	cleanup CleanupFunc
}

// NewApp builds the stores for the configured backend and wires the service
// stack on top of them. The AMQP client is optional: a connection failure is
// logged and the app runs without events.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	factory := NewFactory(logger)
	result, err := factory.CreateStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attribution, err := cfg.Attribution()
	if err != nil {
		return nil, err
	}
	classifier := classify.New(classify.Config{
		RelayAddress:       cfg.RelayAddress,
		Attribution:        attribution,
		DefaultAttribution: cfg.DefaultAttribution,
	}, classify.Providers())

	layout := LayoutFromConfig(cfg)
	partitioner := ledger.NewPartitioner(result.Stores.Ledger, ledger.PartitionerConfig{
		PeriodDays:  cfg.PeriodDays,
		TemplateTab: cfg.TemplateTab,
		GapLookback: cfg.GapLookback,
		GapTabColor: cfg.GapTabColor,
	}, logger)
	placer := ledger.NewPlacer(result.Stores.Ledger, layout, logger)
	splitter := ledger.NewSplitter(result.Stores.Ledger, layout, ledger.SplitConfig{
		TaxMultiplier: cfg.TaxMultiplier,
	}, logger)

	aggregator := aggregate.New(classifier, logger)
	pipeline := services.NewPipeline(result.Stores.Mail, aggregator, partitioner, placer,
		services.PipelineConfig{Query: cfg.MailQuery, MaxThreads: cfg.MailMaxThreads}, logger)

	auditStore, err := audit.Open(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	var (
		events    *amqp.Client
		publisher services.EventPublisher
	)
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPTriggerQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err)
		} else {
			publisher = events
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"events_queue", cfg.AMQPEventsQueue,
				"trigger_queue", cfg.AMQPTriggerQueue)
		}
	}

	return &App{
		Pipeline: pipeline,
		Run:      services.NewRunService(pipeline, auditStore, publisher, logger),
		Split:    services.NewSplitService(partitioner, splitter, logger),
		Audit:    auditStore,
		events:   events,
		cleanup:  result.Cleanup,
	}, nil
}

// Events returns the AMQP client, or nil when events are disabled.
func (a *App) Events() *amqp.Client { return a.events }

// Close releases the app's resources.
func (a *App) Close() error {
	var firstErr error
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
