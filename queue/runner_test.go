package queue

import "context"

// stubRunner substitutes the external Postfix commands in tests. Output
// returns the canned content for the queue id given as last argument,
// falling back to the canned listing; RunInput captures the submitted
// batch and returns the canned diagnostics.
type stubRunner struct {
	listing   string
	content   map[string]string
	outputErr error

	stderr string
	runErr error

	lastCmd   []string
	lastInput string
}

func (r *stubRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	r.lastCmd = append([]string{name}, args...)
	if r.outputErr != nil {
		return nil, r.outputErr
	}
	if len(args) > 0 {
		if body, ok := r.content[args[len(args)-1]]; ok {
			return []byte(body), nil
		}
	}
	return []byte(r.listing), nil
}

func (r *stubRunner) RunInput(_ context.Context, input string, name string, args ...string) ([]byte, []byte, error) {
	r.lastCmd = append([]string{name}, args...)
	r.lastInput = input
	return nil, []byte(r.stderr), r.runErr
}
