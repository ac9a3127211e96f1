package main

// list.go - Command handler for listing queued messages.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/queue"
)

func handleList(ctx context.Context) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	configPath := fs.String("config", "postq.toml", "Path to TOML configuration file")
	fromSpool := fs.Bool("from-spool", false, "Scan the spool directories instead of the queue listing (slow, resolves content)")
	limit := fs.Int("limit", 0, "Show at most this many messages (0 = all)")
	filters := registerFilterFlags(fs)

	fs.Usage = func() {
		fmt.Printf(`Load the queue and list matching messages

Usage:
  postq list [options]

Selection Options:
  --status string     Keep messages with these statuses (comma separated)
  --sender string     Keep messages from this envelope sender
  --partial           Match --sender as a substring instead of exactly
  --error string      Keep messages with a delivery error containing this text
  --since string      Keep messages received since this date (YYYY-MM-DD or RFC3339)
  --until string      Keep messages received until this date (YYYY-MM-DD or RFC3339)
  --min-size int      Keep messages of at least this many bytes
  --max-size int      Keep messages of at most this many bytes (0 = unbounded)

Other Options:
  --from-spool        Scan the spool directories instead of the queue listing
  --limit int         Show at most this many messages (0 = all)
  --config string     Path to TOML configuration file (default: postq.toml)

Examples:
  postq list
  postq list --status deferred --error "timed out"
  postq list --sender @domain.com --partial --min-size 100000
`)
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Printf("Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(fs, *configPath)

	pipeline, err := loadPipeline(ctx, &cfg.Queue, *fromSpool, filters)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	records := pipeline.Records()
	shown := records
	if *limit > 0 && len(records) > *limit {
		shown = records[:*limit]
	}

	for _, rec := range shown {
		printRecordLine(rec)
	}
	if len(shown) < len(records) {
		fmt.Printf("... %d more (total %d)\n", len(records)-len(shown), len(records))
	} else {
		fmt.Printf("%d messages\n", len(records))
	}
}

// loadPipeline loads a fresh snapshot and narrows it through the given
// selection flags.
func loadPipeline(ctx context.Context, cfg *config.QueueConfig, fromSpool bool, filters *filterFlags) (*queue.Pipeline, error) {
	runner := queue.NewRunner()
	store := queue.NewStore(cfg, runner)

	strategy := queue.LoadFromListing
	if fromSpool {
		strategy = queue.LoadFromSpool
	}
	if err := store.Load(ctx, strategy); err != nil {
		return nil, err
	}

	pipeline := queue.NewPipeline(store)
	if err := filters.apply(pipeline); err != nil {
		return nil, err
	}
	return pipeline, nil
}

func printRecordLine(rec *queue.Record) {
	date := "-"
	if !rec.ReceivedAt.IsZero() {
		date = rec.ReceivedAt.Format("2006-01-02 15:04:05")
	}

	recipients := strings.Join(rec.Recipients, ", ")
	if recipients == "" {
		recipients = "-"
	}

	fmt.Printf("%-13s %-8s %19s %9d  %s -> %s", rec.ID, rec.Status, date, rec.Size, rec.Sender, recipients)
	if len(rec.DeliveryErrors) > 0 {
		fmt.Printf("  (%s)", rec.DeliveryErrors[len(rec.DeliveryErrors)-1])
	}
	fmt.Println()
}
