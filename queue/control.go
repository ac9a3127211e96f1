package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailops/postq/config"
	"github.com/mailops/postq/consts"
	"github.com/mailops/postq/logger"
	"github.com/mailops/postq/pkg/metrics"
)

// Administrative operation names.
const (
	OpDelete  = "delete"
	OpHold    = "hold"
	OpRelease = "release"
	OpRequeue = "requeue"
)

// operationFlags maps logical operation names to postsuper flags. The
// set is closed; anything else is a configuration error.
var operationFlags = map[string]string{
	OpDelete:  "-d",
	OpHold:    "-h",
	OpRelease: "-H",
	OpRequeue: "-r",
}

// Control submits batches of queue ids to the administration command.
// A batch is one atomic external invocation: there is no retry and no
// per-record failure tracking.
type Control struct {
	runner   Runner
	adminCmd []string
}

// NewControl returns a gateway over the configured administration
// command.
func NewControl(cfg *config.QueueConfig, runner Runner) *Control {
	return &Control{
		runner:   runner,
		adminCmd: cfg.AdminCommand,
	}
}

// Operate applies a logical operation to a batch of records. Each
// record's id is written as one line to the command's standard input;
// the command's diagnostic output lines are returned trimmed, verbatim.
func (c *Control) Operate(ctx context.Context, operation string, records []*Record) ([]string, error) {
	flag, ok := operationFlags[operation]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", consts.ErrUnknownOperation, operation)
	}

	// Validate the batch before any process is spawned.
	var ids strings.Builder
	for _, rec := range records {
		if rec.ID == "" {
			return nil, consts.ErrMissingQueueID
		}
		ids.WriteString(rec.ID)
		ids.WriteByte('\n')
	}

	args := append(append([]string(nil), c.adminCmd[1:]...), flag, "-")
	_, stderr, err := c.runner.RunInput(ctx, ids.String(), c.adminCmd[0], args...)
	if err != nil {
		metrics.AdminBatchesTotal.WithLabelValues(operation, "failure").Inc()
		return nil, err
	}

	metrics.AdminBatchesTotal.WithLabelValues(operation, "success").Inc()
	logger.Info("Administrative batch submitted", "operation", operation, "records", len(records))

	lines := strings.Split(string(stderr), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines, nil
}

// Delete removes the records from the queue.
func (c *Control) Delete(ctx context.Context, records []*Record) ([]string, error) {
	return c.Operate(ctx, OpDelete, records)
}

// Hold places the records on hold.
func (c *Control) Hold(ctx context.Context, records []*Record) ([]string, error) {
	return c.Operate(ctx, OpHold, records)
}

// Release releases held records.
func (c *Control) Release(ctx context.Context, records []*Record) ([]string, error) {
	return c.Operate(ctx, OpRelease, records)
}

// Requeue moves the records back into the incoming queue.
func (c *Control) Requeue(ctx context.Context, records []*Record) ([]string, error) {
	return c.Operate(ctx, OpRequeue, records)
}
