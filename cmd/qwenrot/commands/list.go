package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func NewListCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := opts.manager().ListAccounts()
			if len(accounts) == 0 {
				fmt.Println("No accounts configured. Run 'qwenrot setup' or 'qwenrot add'.")
				return nil
			}

			infos := make([]struct {
				index    int
				active   bool
				switches int
				lastUsed string
			}, 0, len(accounts))
			for _, info := range accounts {
				infos = append(infos, struct {
					index    int
					active   bool
					switches int
					lastUsed string
				}{info.Index, info.Active, info.SwitchesCount, info.LastUsed})
			}
			sort.Slice(infos, func(i, j int) bool { return infos[i].index < infos[j].index })

			fmt.Println("Accounts:")
			for _, info := range infos {
				marker := " "
				if info.active {
					marker = "*"
				}
				last := info.lastUsed
				if last == "" {
					last = "never"
				}
				fmt.Printf("  %s [%d] switches=%d last_used=%s\n", marker, info.index, info.switches, last)
			}
			fmt.Println("\n(* = active account)")
			return nil
		},
	}
}

func NewStatsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := opts.manager().GetStats()

			last := stats.LastSwitch
			if last == "" {
				last = "never"
			}
			fmt.Println("Usage statistics:")
			fmt.Printf("  Total switches: %d\n", stats.TotalSwitches)
			fmt.Printf("  Last switch:    %s\n", last)
			fmt.Printf("  Current active: %s\n", stats.CurrentAccount)
			fmt.Printf("  Most used:      %s (%d times)\n", stats.MostUsed, stats.MostUsedCount)

			keys := make([]string, 0, len(stats.Accounts))
			for key := range stats.Accounts {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			fmt.Println("Per-account switches:")
			for _, key := range keys {
				fmt.Printf("  %s: %d\n", key, stats.Accounts[key])
			}
			return nil
		},
	}
}
