package queue

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mailops/postq/consts"
	"github.com/mailops/postq/logger"
	"github.com/mailops/postq/pkg/metrics"
)

// Runner executes the external Postfix collaborators. The store, the
// content resolver and the administration gateway only depend on this
// interface; tests substitute canned output.
type Runner interface {
	// Output runs a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunInput runs a command feeding input to its standard input and
	// returns standard output and standard error separately.
	RunInput(ctx context.Context, input string, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

// NewRunner returns a Runner that shells out to the real commands.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	metrics.ExternalCommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("External command failed", "command", name, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", consts.ErrCommandFailed, name, err)
	}
	return out, nil
}

func (execRunner) RunInput(ctx context.Context, input string, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.ExternalCommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error("External command failed", "command", name, "error", err)
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%w: %s: %v", consts.ErrCommandFailed, name, err)
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}
