package main

// show.go - Command handler for inspecting one queued message.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mailops/postq/queue"
)

func handleShow(ctx context.Context) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)

	configPath := fs.String("config", "postq.toml", "Path to TOML configuration file")
	withBody := fs.Bool("body", false, "Also print a plaintext preview of the message body")

	fs.Usage = func() {
		fmt.Printf(`Show one queued message with resolved headers

The message is located in a fresh queue listing, then its queue file
content is resolved to fill in the headers.

Usage:
  postq show [options] <queue-id>

Options:
  --body              Also print a plaintext preview of the message body
  --config string     Path to TOML configuration file (default: postq.toml)

Examples:
  postq show C0004979687
  postq show --body C0004979687
`)
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Printf("Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	qid := fs.Arg(0)
	if qid == "" {
		fmt.Printf("Error: a queue id argument is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	if !queue.IsQueueID(qid) {
		fmt.Printf("Error: '%s' is not a valid queue id\n", qid)
		os.Exit(1)
	}

	cfg := loadConfig(fs, *configPath)

	runner := queue.NewRunner()
	store := queue.NewStore(&cfg.Queue, runner)
	if err := store.Load(ctx, queue.LoadFromListing); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var rec *queue.Record
	for _, candidate := range store.Records() {
		if candidate.ID == qid {
			rec = candidate
			break
		}
	}
	if rec == nil {
		fmt.Printf("Error: message %s not found in the queue\n", qid)
		os.Exit(1)
	}

	resolver := store.Resolver()
	if err := resolver.Resolve(ctx, rec); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printDump(rec.Dump())

	if *withBody {
		preview, err := resolver.BodyPreview(ctx, rec)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nBody:\n%s\n", preview)
	}
}

func printDump(dump queue.Dump) {
	fmt.Printf("Queue file:\n")
	fmt.Printf("    id: %s\n", dump.ID)
	fmt.Printf("    status: %s\n", dump.Status)
	fmt.Printf("    size: %d\n", dump.Size)
	if !dump.ReceivedAt.IsZero() {
		fmt.Printf("    received: %s\n", dump.ReceivedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("    sender: %s\n", dump.Sender)
	if len(dump.Recipients) > 0 {
		fmt.Printf("    recipients: %s\n", strings.Join(dump.Recipients, ", "))
	}
	for _, deliveryError := range dump.DeliveryErrors {
		fmt.Printf("    error: %s\n", deliveryError)
	}
	if dump.ResolveError != "" {
		fmt.Printf("    resolve error: %s\n", dump.ResolveError)
	}

	fmt.Printf("Headers:\n")
	for name, values := range dump.Headers {
		for _, value := range values {
			fmt.Printf("    %s: %s\n", name, value)
		}
	}
}
