package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	logLevel string
	jsonOut  bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "memsim",
		Short: "Simulate classic operating-system memory allocation techniques",
		Long: `memsim runs an interactive session against one memory-management technique:
fixed-size partitioning, unequal-size partitioning, dynamic allocation, the buddy
system or paging. Processes are allocated and freed from a menu, and the table of
partitions, blocks or frames can be displayed after every step.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Display memory as JSON")

	rootCmd.AddCommand(
		newFixedCommand(opts),
		newUnequalCommand(opts),
		newDynamicCommand(opts),
		newBuddyCommand(opts),
		newPagingCommand(opts),
		newRunCommand(opts),
	)

	return rootCmd
}

func execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
