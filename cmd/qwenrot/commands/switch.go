package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"qwenrotate-go/internal/rotation"
)

func NewSwitchCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch INDEX",
		Short: "Switch to a specific account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index <= 0 {
				return fmt.Errorf("invalid account index %q", args[0])
			}
			if err := opts.manager().SwitchTo(index, rotation.ReasonManual); err != nil {
				return err
			}
			fmt.Printf("Switched to account %d\n", index)
			return nil
		},
	}
}

func NewNextCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Switch to the next account in round-robin order",
		RunE: func(cmd *cobra.Command, args []string) error {
			advanced, newIndex, err := opts.manager().SwitchNext(rotation.ReasonManual)
			if err != nil {
				return err
			}
			if !advanced {
				fmt.Printf("Cycled back to the first available account (%d)\n", newIndex)
			} else {
				fmt.Printf("Switched to account %d\n", newIndex)
			}
			return nil
		},
	}
}
