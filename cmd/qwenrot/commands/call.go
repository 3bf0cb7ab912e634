package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qwenrotate-go/internal/runner"
)

func NewCallCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "call PROMPT...",
		Short: "Run a prompt through the wrapped tool, rotating on quota errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := opts.manager()
			wrapper := runner.NewWrapper(opts.toolRunner(), mgr, opts.Config.MaxRetries)

			result := wrapper.Call(cmd.Context(), strings.Join(args, " "))
			if result.Success {
				fmt.Println(result.Output)
				return nil
			}
			if result.Exhausted {
				return fmt.Errorf("all accounts exhausted after %d attempts: %s", result.Attempts, result.Error)
			}
			return fmt.Errorf("call failed after %d attempts: %s", result.Attempts, result.Error)
		},
	}
}
