package main

import (
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// startSession builds the allocator described by params and hands it to a session on the
// command's input and output streams
func startSession(cmd *cobra.Command, opts *rootOptions, params allocatorParams, strategyToken string, operations []operation) error {
	logger := newLogger(opts.logLevel, cmd.ErrOrStderr())

	strategy, err := parseStrategy(strategyToken)
	if err != nil {
		return err
	}

	allocator, err := newAllocator(logger, params)
	if err != nil {
		return err
	}

	logger.Info("session started",
		"technique", allocator.Kind().String(),
		"bytes", allocator.Size(),
		"strategy", strategy.String())

	s := newSession(logger, allocator, strategy, cmd.InOrStdin(), cmd.OutOrStdout(), opts.jsonOut)
	if len(operations) > 0 {
		return s.RunScript(operations)
	}
	return s.Run()
}

func newFixedCommand(opts *rootOptions) *cobra.Command {
	params := allocatorParams{Technique: metadata.KindFixed.String()}
	var strategy string

	cmd := &cobra.Command{
		Use:   "fixed",
		Short: "Fixed-size partitioning",
		Long:  "Divide memory into equal partitions, one process per partition. The remainder of memory that does not fill a whole partition is unused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd, opts, params, strategy, nil)
		},
	}

	cmd.Flags().IntVar(&params.MemorySize, "memory", 100, "Total memory size in bytes")
	cmd.Flags().IntVar(&params.PartitionSize, "partition", 10, "Partition size in bytes")
	cmd.Flags().StringVar(&strategy, "strategy", "first_fit", "Placement strategy (first_fit, best_fit, worst_fit)")

	return cmd
}

func newUnequalCommand(opts *rootOptions) *cobra.Command {
	params := allocatorParams{Technique: metadata.KindUnequal.String()}

	cmd := &cobra.Command{
		Use:   "unequal",
		Short: "Unequal-size partitioning",
		Long:  "Use a fixed list of partitions of differing sizes. Each process takes the first free partition large enough to hold it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd, opts, params, "", nil)
		},
	}

	cmd.Flags().IntSliceVar(&params.Partitions, "partitions", []int{10, 20, 30, 40}, "Partition sizes in bytes, in table order")

	return cmd
}

func newDynamicCommand(opts *rootOptions) *cobra.Command {
	params := allocatorParams{Technique: metadata.KindDynamic.String()}
	var strategy string

	cmd := &cobra.Command{
		Use:   "dynamic",
		Short: "Dynamic allocation with coalescing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd, opts, params, strategy, nil)
		},
	}

	cmd.Flags().IntVar(&params.MemorySize, "memory", 100, "Total memory size in bytes")
	cmd.Flags().StringVar(&strategy, "strategy", "first_fit", "Placement strategy (first_fit, best_fit, worst_fit)")

	return cmd
}

func newBuddyCommand(opts *rootOptions) *cobra.Command {
	params := allocatorParams{Technique: metadata.KindBuddy.String()}

	cmd := &cobra.Command{
		Use:   "buddy",
		Short: "Buddy system allocation",
		Long:  "Split a power-of-two arena in halves until a block fits the request, and merge equal-size free neighbors on release.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd, opts, params, "", nil)
		},
	}

	cmd.Flags().IntVar(&params.MemorySize, "memory", 128, "Total memory size in bytes, a power of two")

	return cmd
}

func newPagingCommand(opts *rootOptions) *cobra.Command {
	params := allocatorParams{Technique: metadata.KindPaging.String()}

	cmd := &cobra.Command{
		Use:   "paging",
		Short: "Paging with per-process page tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSession(cmd, opts, params, "", nil)
		},
	}

	cmd.Flags().IntVar(&params.MemorySize, "memory", 100, "Total memory size in bytes")
	cmd.Flags().IntVar(&params.PageSize, "page", 10, "Page and frame size in bytes")

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario file",
		Long:  "Load a TOML scenario naming a technique, its parameters and an optional list of operations. A scenario without operations starts an interactive session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(configPath)
			if err != nil {
				return err
			}
			return startSession(cmd, opts, sc.params(), sc.Strategy, sc.Operations)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the scenario file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
