package main

// stats.go - Command handler summarizing the queue.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/mailops/postq/helpers"
	"github.com/mailops/postq/queue"
)

func handleStats(ctx context.Context) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)

	configPath := fs.String("config", "postq.toml", "Path to TOML configuration file")
	fromSpool := fs.Bool("from-spool", false, "Scan the spool directories instead of the queue listing")
	top := fs.Int("top", 10, "Number of sender domains to show")

	fs.Usage = func() {
		fmt.Printf(`Summarize the queue by status and sender domain

Usage:
  postq stats [options]

Options:
  --top int           Number of sender domains to show (default: 10)
  --from-spool        Scan the spool directories instead of the queue listing
  --config string     Path to TOML configuration file (default: postq.toml)
`)
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Printf("Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(fs, *configPath)

	pipeline, err := loadPipeline(ctx, &cfg.Queue, *fromSpool, &filterFlags{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	records := pipeline.Records()

	var totalSize int64
	byStatus := make(map[queue.Status]int)
	byDomain := make(map[string]int)
	withErrors := 0
	for _, rec := range records {
		totalSize += rec.Size
		byStatus[rec.Status]++
		if len(rec.DeliveryErrors) > 0 {
			withErrors++
		}
		if _, domain := helpers.SplitEmailAddress(rec.Sender); domain != "" {
			byDomain[domain]++
		}
	}

	fmt.Printf("Messages: %d (%d bytes)\n", len(records), totalSize)
	for _, status := range []queue.Status{queue.StatusActive, queue.StatusDeferred, queue.StatusHold} {
		fmt.Printf("    %-9s %d\n", status, byStatus[status])
	}
	fmt.Printf("With delivery errors: %d\n", withErrors)

	domains := make([]string, 0, len(byDomain))
	for domain := range byDomain {
		domains = append(domains, domain)
	}
	sort.Slice(domains, func(i, j int) bool {
		if byDomain[domains[i]] != byDomain[domains[j]] {
			return byDomain[domains[i]] > byDomain[domains[j]]
		}
		return domains[i] < domains[j]
	})
	if len(domains) > *top {
		domains = domains[:*top]
	}

	if len(domains) > 0 {
		fmt.Printf("Top sender domains:\n")
		for _, domain := range domains {
			fmt.Printf("    %-30s %d\n", domain, byDomain[domain])
		}
	}
}
