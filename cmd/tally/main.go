package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tally/internal/backend"
	"tally/internal/cli"
	"tally/internal/log"
)

const usage = `Usage: tally <command> [flags]

Commands:
  run                 search mail, classify and place receipts
  ensure-partitions   create partitions until one covers today
  split               split a ledger entry in place
  audit               show recent run history
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	app, err := backend.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	switch command {
	case "run":
		runCommand(ctx, app, args)
	case "ensure-partitions":
		ensureCommand(ctx, app)
	case "split":
		splitCommand(ctx, app, args)
	case "audit":
		auditCommand(ctx, app, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
}

func runCommand(ctx context.Context, app *backend.App, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	mark := fs.Bool("mark", true, "mark clean threads processed after placement")
	fs.Parse(args)

	summary, err := app.Run.Run(ctx, *mark)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("threads seen:       %d\n", summary.ThreadsSeen)
	fmt.Printf("receipts placed:    %d\n", summary.ReceiptsPlaced)
	fmt.Printf("partitions created: %d\n", summary.PartitionsCreated)
	fmt.Printf("discarded threads:  %d\n", summary.DiscardedThreads)
	fmt.Printf("errors:             %d\n", summary.ErrorCount)
	for partition, n := range summary.Placed {
		fmt.Printf("  %s: %d\n", partition, n)
	}
	if summary.ErrorCount > 0 {
		os.Exit(1)
	}
}

func ensureCommand(ctx context.Context, app *backend.App) {
	created, err := app.Pipeline.EnsurePartitionsCurrent(ctx, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ensure-partitions failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("partitions created: %d\n", created)
}

func splitCommand(ctx context.Context, app *backend.App, args []string) {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	partition := fs.String("partition", "", "partition tab name, e.g. \"3/1/2026 - 3/14/2026\"")
	row := fs.Int("row", -1, "window-relative row index of the entry to split")
	fs.Parse(args)

	if *partition == "" || *row < 0 {
		fmt.Fprintln(os.Stderr, "split requires -partition and -row")
		os.Exit(2)
	}

	rng, err := app.Split.SplitEntry(ctx, *partition, *row)
	if err != nil {
		fmt.Fprintf(os.Stderr, "split failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("split rows %d..%d in %s\n", rng.Start, rng.End, *partition)
}

func auditCommand(ctx context.Context, app *backend.App, args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of recent runs to show")
	fs.Parse(args)

	runs, err := app.Audit.RecentRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit failed: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return
	}

	for _, run := range runs {
		state := "running"
		if run.FinishedAt.Valid {
			state = run.FinishedAt.Time.Format(time.RFC3339)
		}
		fmt.Printf("%s  started=%s finished=%s threads=%d placed=%d errors=%d discarded=%d\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			state,
			run.ThreadsSeen, run.ReceiptsPlaced, run.ErrorCount, run.DiscardedThreads)
	}
}
