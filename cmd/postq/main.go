package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "list":
		handleList(ctx)
	case "show":
		handleShow(ctx)
	case "hold", "release", "delete", "requeue":
		handleAdminOperation(ctx, command)
	case "stats":
		handleStats(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`postq - Postfix queue triage tool

Usage:
  postq <command> [options]

Commands:
  list     Load the queue and list matching messages
  show     Show one queued message with resolved headers
  hold     Put matching messages on hold
  release  Release matching held messages
  delete   Delete matching messages from the queue
  requeue  Move matching messages back to the incoming queue
  stats    Summarize the queue by status and sender domain
  help     Show this help message

Examples:
  postq list --status deferred --error "timed out"
  postq list --sender @domain.com --partial --until 2025-04-20
  postq show C0004979687 --body
  postq hold --sender MAILER-DAEMON --dry-run
  postq delete --status hold --all

Use 'postq <command> --help' for more information about a command.
`)
}

// loadConfig loads the TOML configuration layered under the parsed
// flags and initializes logging. A missing default config file is fine;
// a missing explicitly requested one is fatal.
func loadConfig(fs *flag.FlagSet, configPath string) config.Config {
	cfg := config.NewDefaultConfig()

	if err := config.LoadConfigFromFile(configPath, &cfg); err != nil {
		if os.IsNotExist(err) {
			if isFlagSet(fs, "config") {
				log.Fatalf("ERROR: specified configuration file '%s' not found: %v", configPath, err)
			}
		} else {
			log.Fatalf("FATAL: %v", err)
		}
	}

	if _, err := logger.Initialize(cfg.Logging); err != nil {
		log.Fatalf("FATAL: failed to initialize logging: %v", err)
	}

	return cfg
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
