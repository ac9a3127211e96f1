package queue

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/consts"
	"github.com/mailops/postq/logger"
	"github.com/mailops/postq/pkg/metrics"
)

// LoadStrategy selects how a snapshot is obtained.
type LoadStrategy int

const (
	// LoadFromListing parses the queue listing command output. Fast and
	// coarse: records carry no headers until explicitly resolved.
	LoadFromListing LoadStrategy = iota

	// LoadFromSpool scans the per-status spool directories and resolves
	// every record's content immediately. One external content dump per
	// queue file, so this is slow on large queues; intended for smaller
	// queues or detailed audits.
	LoadFromSpool
)

func (s LoadStrategy) String() string {
	switch s {
	case LoadFromListing:
		return "listing"
	case LoadFromSpool:
		return "spool"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Store owns the authoritative queue snapshot. Load replaces the record
// list wholesale; there is no incremental merge and no partially loaded
// state observable by callers. A loaded snapshot is treated as
// immutable; concurrent readers must each hold their own Pipeline.
type Store struct {
	runner   Runner
	parser   *SnapshotParser
	resolver *ContentResolver

	listCmd   []string
	spoolPath string
	statuses  []string

	records  []*Record
	loadedAt time.Time
}

// NewStore builds a store over the configured external commands.
func NewStore(cfg *config.QueueConfig, runner Runner) *Store {
	return &Store{
		runner:    runner,
		parser:    NewSnapshotParser(),
		resolver:  NewContentResolver(cfg, runner),
		listCmd:   cfg.ListCommand,
		spoolPath: cfg.SpoolPath,
		statuses:  cfg.Statuses,
	}
}

// Records returns the current snapshot.
func (s *Store) Records() []*Record {
	return s.records
}

// LoadedAt returns the time of the last successful load, zero before
// the first one.
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// Resolver returns the content resolver bound to this store's commands.
func (s *Store) Resolver() *ContentResolver {
	return s.resolver
}

// Load replaces the snapshot using the given strategy. On error the
// store is left empty rather than with a stale or partial snapshot.
func (s *Store) Load(ctx context.Context, strategy LoadStrategy) error {
	// Release the previous snapshot before building the new one; large
	// queues hold tens of thousands of records.
	s.records = nil
	s.loadedAt = time.Time{}

	start := time.Now()

	var records []*Record
	var err error
	switch strategy {
	case LoadFromListing:
		records, err = s.loadFromListing(ctx)
	case LoadFromSpool:
		records, err = s.loadFromSpool(ctx)
	default:
		err = fmt.Errorf("%w: %s", consts.ErrUnknownStrategy, strategy)
	}

	metrics.SnapshotLoadDuration.WithLabelValues(strategy.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotLoadsTotal.WithLabelValues(strategy.String(), "failure").Inc()
		return err
	}

	s.records = records
	s.loadedAt = time.Now()

	metrics.SnapshotLoadsTotal.WithLabelValues(strategy.String(), "success").Inc()
	metrics.SnapshotRecords.Set(float64(len(records)))
	logger.Info("Queue snapshot loaded", "strategy", strategy.String(), "records", len(records))

	return nil
}

// loadFromListing invokes the listing command and parses its output.
// The command's header line and two trailing footer lines are stripped
// before parsing.
func (s *Store) loadFromListing(ctx context.Context) ([]*Record, error) {
	args := append([]string(nil), s.listCmd[1:]...)
	out, err := s.runner.Output(ctx, s.listCmd[0], args...)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(out), "\n")
	if len(lines) < 4 {
		// Header plus footers only: the queue is empty.
		return nil, nil
	}
	return s.parser.Parse(strings.Join(lines[1:len(lines)-2], "\n")), nil
}

// loadFromSpool enumerates queue files per status directory and resolves
// each record's content immediately. Records whose content dump fails
// are kept with only id and status, carrying the resolution error.
func (s *Store) loadFromSpool(ctx context.Context) ([]*Record, error) {
	var records []*Record

	for _, status := range s.statuses {
		root := filepath.Join(s.spoolPath, status)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			rec := NewRecord(d.Name())
			rec.Status = Status(status)
			if resolveErr := s.resolver.Resolve(ctx, rec); resolveErr != nil {
				logger.Warn("Failed to resolve queue file content", "id", rec.ID, "error", resolveErr)
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("Spool status directory missing", "path", root)
				continue
			}
			return nil, fmt.Errorf("failed to scan spool directory '%s': %w", root, err)
		}
	}

	return records, nil
}
