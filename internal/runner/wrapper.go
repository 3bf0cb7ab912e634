package runner

import (
	"context"

	log "github.com/sirupsen/logrus"

	"qwenrotate-go/internal/rotation"
)

// ToolRunner abstracts the single-shot invocation so tests can stub the
// wrapped tool.
type ToolRunner interface {
	Run(ctx context.Context, prompt string) CallResult
}

// AccountSwitcher is the slice of the rotation manager the wrapper needs.
type AccountSwitcher interface {
	SwitchNext(reason rotation.SwitchReason) (advanced bool, newIndex int, err error)
}

// WrapperResult summarizes a call including any quota-triggered rotation.
type WrapperResult struct {
	Success   bool   `json:"success"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	Attempts  int    `json:"attempts"`
	Switches  int    `json:"switches"`
	Exhausted bool   `json:"exhausted"`
}

// Wrapper is the caller-side retry layer around the rotation manager: it
// runs the wrapped tool and, when a failure looks like quota exhaustion,
// rotates to the next account and retries. The manager itself never
// retries; that separation keeps the swap protocol free of tool-specific
// policy.
type Wrapper struct {
	runner     ToolRunner
	switcher   AccountSwitcher
	maxRetries int
}

// NewWrapper builds a wrapper. maxRetries bounds the number of rotations
// attempted for a single call; values below 1 disable rotation entirely.
func NewWrapper(r ToolRunner, s AccountSwitcher, maxRetries int) *Wrapper {
	return &Wrapper{runner: r, switcher: s, maxRetries: maxRetries}
}

// Call runs the prompt, rotating through accounts on quota failures.
// Exhausted is set when rotation wrapped all the way around, meaning every
// available account was given a chance within this call.
func (w *Wrapper) Call(ctx context.Context, prompt string) WrapperResult {
	result := WrapperResult{}

	for {
		result.Attempts++
		call := w.runner.Run(ctx, prompt)
		if call.Success {
			result.Success = true
			result.Output = call.Output
			return result
		}
		result.Error = call.Error

		if !IsQuotaError(call.Error) || result.Switches >= w.maxRetries {
			return result
		}

		advanced, newIndex, err := w.switcher.SwitchNext(rotation.ReasonAutoQuota)
		if err != nil {
			log.WithError(err).Warn("quota rotation failed")
			return result
		}
		result.Switches++
		log.Infof("quota exhausted, rotated to account %d (attempt %d)", newIndex, result.Attempts)
		if !advanced {
			result.Exhausted = true
		}
	}
}
