package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewSetupCommand(opts *Options) *cobra.Command {
	var accounts int

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup of the initial account pool",
		Long: `Guides you through logging into the wrapped tool once per account,
filing each login's credential file into its rotation slot, and writing
the initial rotation state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := opts.manager()
			if accounts <= 0 {
				accounts = opts.Config.TotalAccounts
			}
			return opts.onboarder(mgr).SetupAccounts(accounts)
		},
	}
	cmd.Flags().IntVar(&accounts, "accounts", 0, "Number of accounts to set up (default: total_accounts from config)")
	return cmd
}

func NewAddCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add one more account to the rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := opts.manager()
			index, err := opts.onboarder(mgr).AddAccount()
			if err != nil {
				return err
			}
			fmt.Printf("Account %d added\n", index)
			return nil
		},
	}
}

func NewRemoveCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove INDEX",
		Short: "Remove an account from the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index <= 0 {
				return fmt.Errorf("invalid account index %q", args[0])
			}
			mgr := opts.manager()
			return opts.onboarder(mgr).RemoveAccount(index)
		},
	}
}
