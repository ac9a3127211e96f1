package main

// admin.go - Command handlers for the administrative operations
// (hold, release, delete, requeue).

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mailops/postq/queue"
)

func handleAdminOperation(ctx context.Context, operation string) {
	fs := flag.NewFlagSet(operation, flag.ExitOnError)

	configPath := fs.String("config", "postq.toml", "Path to TOML configuration file")
	fromSpool := fs.Bool("from-spool", false, "Scan the spool directories instead of the queue listing")
	dryRun := fs.Bool("dry-run", false, "Print the selected queue ids without running the administrative command")
	all := fs.Bool("all", false, "Allow operating on the entire queue when no selection option is given")
	filters := registerFilterFlags(fs)

	fs.Usage = func() {
		fmt.Printf(`Apply the '%s' operation to matching messages

The queue is loaded, narrowed through the selection options, and the
matching queue ids are submitted as one batch to the administrative
command.

Usage:
  postq %s [options]

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
  --dry-run           Print the selected queue ids without running the command
  --all               Required to operate with no selection options
  --from-spool        Scan the spool directories instead of the queue listing
  --config string     Path to TOML configuration file (default: postq.toml)

Examples:
  postq %s --sender MAILER-DAEMON --dry-run
  postq %s --status deferred --error "timed out"
`, operation, operation, operation, operation)
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Printf("Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if !filters.active() && !*all {
		fmt.Printf("Error: no selection options given; pass --all to operate on the entire queue\n")
		os.Exit(1)
	}

	cfg := loadConfig(fs, *configPath)

	pipeline, err := loadPipeline(ctx, &cfg.Queue, *fromSpool, filters)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	records := pipeline.Records()
	if len(records) == 0 {
		fmt.Printf("No messages match\n")
		return
	}

	if *dryRun {
		for _, rec := range records {
			fmt.Println(rec.ID)
		}
		fmt.Printf("%d messages selected (dry run, no operation submitted)\n", len(records))
		return
	}

	control := queue.NewControl(&cfg.Queue, queue.NewRunner())
	lines, err := control.Operate(ctx, operation, records)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, line := range lines {
		if line != "" {
			fmt.Println(line)
		}
	}
	fmt.Printf("%d messages submitted for %s\n", len(records), operation)
}
