package main

// filters.go - Shared selection flags for the list and administrative
// commands.

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/mailops/postq/queue"
)

// filterFlags collects the selection options shared by every command
// that narrows the queue.
type filterFlags struct {
	status  string
	sender  string
	partial bool
	errText string
	since   string
	until   string
	minSize int64
	maxSize int64
}

func registerFilterFlags(fs *flag.FlagSet) *filterFlags {
	f := &filterFlags{}
	fs.StringVar(&f.status, "status", "", "Keep messages with these statuses (comma separated: active, deferred, hold)")
	fs.StringVar(&f.sender, "sender", "", "Keep messages from this envelope sender")
	fs.BoolVar(&f.partial, "partial", false, "Match --sender as a substring instead of exactly")
	fs.StringVar(&f.errText, "error", "", "Keep messages with a delivery error containing this text")
	fs.StringVar(&f.since, "since", "", "Keep messages received since this date (YYYY-MM-DD or RFC3339)")
	fs.StringVar(&f.until, "until", "", "Keep messages received until this date (YYYY-MM-DD or RFC3339)")
	fs.Int64Var(&f.minSize, "min-size", 0, "Keep messages of at least this many bytes")
	fs.Int64Var(&f.maxSize, "max-size", 0, "Keep messages of at most this many bytes (0 = unbounded)")
	return f
}

// active reports whether any selection option was given.
func (f *filterFlags) active() bool {
	return f.status != "" || f.sender != "" || f.errText != "" ||
		f.since != "" || f.until != "" || f.minSize != 0 || f.maxSize != 0
}

// apply narrows the pipeline according to the given flags.
func (f *filterFlags) apply(pipeline *queue.Pipeline) error {
	if f.status != "" {
		statuses, err := parseStatuses(f.status)
		if err != nil {
			return err
		}
		pipeline.LookupStatus(statuses...)
	}

	if f.sender != "" {
		pipeline.LookupSender(f.sender, !f.partial)
	}

	if f.errText != "" {
		pipeline.LookupError(f.errText)
	}

	if f.since != "" || f.until != "" {
		var start, stop *time.Time
		if f.since != "" {
			t, err := parseDate(f.since)
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			start = &t
		}
		if f.until != "" {
			t, err := parseDate(f.until)
			if err != nil {
				return fmt.Errorf("invalid --until value: %w", err)
			}
			stop = &t
		}
		if _, err := pipeline.LookupDate(start, stop); err != nil {
			return err
		}
	}

	if f.minSize != 0 || f.maxSize != 0 {
		pipeline.LookupSize(f.minSize, f.maxSize)
	}

	return nil
}

func parseStatuses(value string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, name := range strings.Split(value, ",") {
		switch name = strings.TrimSpace(name); name {
		case "active":
			statuses = append(statuses, queue.StatusActive)
		case "hold":
			statuses = append(statuses, queue.StatusHold)
		case "deferred":
			statuses = append(statuses, queue.StatusDeferred)
		default:
			return nil, fmt.Errorf("unknown status '%s' (expected active, deferred or hold)", name)
		}
	}
	return statuses, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
