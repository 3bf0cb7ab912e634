package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// CallResult captures one invocation of the wrapped tool.
type CallResult struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Runner invokes the wrapped CLI tool with a single prompt argument.
// Success is exit code zero with trimmed stdout as payload; failure is a
// non-zero exit with trimmed stderr as diagnostic. The timeout is a hard
// upper bound: an expired run is reported as a failure.
type Runner struct {
	Binary  string
	Timeout time.Duration
}

// NewRunner returns a runner for binary with the given timeout.
func NewRunner(binary string, timeout time.Duration) *Runner {
	return &Runner{Binary: binary, Timeout: timeout}
}

// Run executes the tool once.
func (r *Runner) Run(ctx context.Context, prompt string) CallResult {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.Binary, prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := CallResult{
		Output:   strings.TrimSpace(stdout.String()),
		Error:    strings.TrimSpace(stderr.String()),
		Duration: elapsed,
	}

	if err == nil {
		result.Success = true
		result.Error = ""
		return result
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.Error = "execution timed out after " + r.Timeout.String()
		log.Warnf("%s timed out after %s", r.Binary, r.Timeout)
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
		if result.Error == "" {
			result.Error = err.Error()
		}
	}
	return result
}
