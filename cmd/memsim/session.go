package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

const menu = `
1. Allocate Memory
2. Deallocate Memory
3. Display Memory
4. Statistics
5. Exit
`

const (
	opAllocate   = "allocate"
	opDeallocate = "deallocate"
	opDisplay    = "display"
	opStats      = "stats"
	opCompact    = "compact"
)

// session drives one allocator from a menu on in, writing every result to out
type session struct {
	allocator metadata.Allocator
	strategy  metadata.FitStrategy
	logger    *slog.Logger
	jsonOut   bool

	in  *bufio.Scanner
	out io.Writer
}

func newSession(logger *slog.Logger, allocator metadata.Allocator, strategy metadata.FitStrategy, in io.Reader, out io.Writer, jsonOut bool) *session {
	return &session{
		allocator: allocator,
		strategy:  strategy,
		logger:    logger,
		jsonOut:   jsonOut,
		in:        bufio.NewScanner(in),
		out:       out,
	}
}

// Run shows the menu until the user picks Exit or the input ends
func (s *session) Run() error {
	for {
		fmt.Fprint(s.out, menu)
		choice, ok := s.prompt("Enter your choice: ")
		if !ok {
			return s.finish()
		}

		number, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid choice, please enter a number.")
			continue
		}

		switch number {
		case 1:
			pid, ok := s.promptInt("Enter process ID: ")
			if !ok {
				continue
			}
			size, ok := s.promptInt("Enter process size: ")
			if !ok {
				continue
			}
			s.allocate(metadata.ProcessID(pid), size)
		case 2:
			pid, ok := s.promptInt("Enter process ID to deallocate: ")
			if !ok {
				continue
			}
			s.deallocate(metadata.ProcessID(pid))
		case 3:
			s.display()
		case 4:
			s.printStatistics()
		case 5:
			return s.finish()
		default:
			fmt.Fprintln(s.out, "Invalid choice, please try again.")
		}
	}
}

// RunScript applies a fixed sequence of operations without prompting
func (s *session) RunScript(operations []operation) error {
	for i, op := range operations {
		switch strings.ToLower(strings.TrimSpace(op.Op)) {
		case opAllocate:
			s.allocate(metadata.ProcessID(op.PID), op.Size)
		case opDeallocate:
			s.deallocate(metadata.ProcessID(op.PID))
		case opDisplay:
			s.display()
		case opStats:
			s.printStatistics()
		case opCompact:
			if err := s.compact(); err != nil {
				return err
			}
		default:
			return cerrors.Newf("operation %d has unknown op %q", i, op.Op)
		}
	}
	return s.finish()
}

func (s *session) prompt(text string) (string, bool) {
	fmt.Fprint(s.out, text)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *session) promptInt(text string) (int, bool) {
	value, ok := s.prompt(text)
	if !ok {
		return 0, false
	}

	number, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid number %q.\n", value)
		return 0, false
	}
	return number, true
}

func (s *session) allocate(pid metadata.ProcessID, size int) {
	err := s.allocator.Allocate(pid, size, s.strategy)
	if err != nil {
		fmt.Fprintf(s.out, "Allocation failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Process %d allocated %d bytes.\n", pid, size)
}

func (s *session) deallocate(pid metadata.ProcessID) {
	err := s.allocator.Deallocate(pid)
	if err != nil {
		fmt.Fprintf(s.out, "Deallocation failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Process %d deallocated.\n", pid)
}

func (s *session) display() {
	if s.jsonOut {
		writer := jwriter.NewWriter()
		obj := writer.Object()
		s.allocator.BlockJsonData(obj)
		obj.End()

		if err := writer.Error(); err != nil {
			fmt.Fprintf(s.out, "Display failed: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, string(writer.Bytes()))
		return
	}

	for _, line := range s.allocator.Display() {
		fmt.Fprintln(s.out, line)
	}
}

func (s *session) printStatistics() {
	var stats memutils.DetailedStatistics
	stats.Clear()
	s.allocator.AddDetailedStatistics(&stats)

	fmt.Fprintf(s.out, "Technique: %s\n", s.allocator.Kind())
	fmt.Fprintf(s.out, "Total: %d bytes in %d regions\n", stats.TotalBytes, stats.RegionCount)
	fmt.Fprintf(s.out, "Allocated: %d bytes in %d regions\n", stats.AllocationBytes, stats.AllocationCount)
	fmt.Fprintf(s.out, "Free: %d bytes in %d ranges, largest %d\n", stats.FreeBytes(), stats.UnusedRangeCount, stats.UnusedRangeSizeMax)
	fmt.Fprintf(s.out, "Utilization: %.1f%%\n", stats.Utilization()*100)
	fmt.Fprintf(s.out, "External fragmentation: %.1f%%\n", stats.ExternalFragmentation()*100)
}

// compact slides every occupied block of a compactable allocator toward offset zero
func (s *session) compact() error {
	target, ok := s.allocator.(defrag.Compactable)
	if !ok {
		fmt.Fprintf(s.out, "Compaction is not supported by the %s technique.\n", s.allocator.Kind())
		return nil
	}

	defragContext := defrag.MetadataDefragContext{
		Target: target,
		Logger: s.logger,
		Handler: func(move metadata.Relocation) error {
			fmt.Fprintf(s.out, "Moved process %d (%d bytes) from %d to %d.\n", move.Owner, move.Size, move.From, move.To)
			return nil
		},
	}
	if err := defragContext.Init(); err != nil {
		return err
	}

	if _, err := defragContext.Run(&defrag.PassContext{}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Compaction moved %d bytes in %d relocations.\n",
		defragContext.Stats.BytesMoved, defragContext.Stats.AllocationsMoved)
	return nil
}

// finish reports every region still held when the session ends
func (s *session) finish() error {
	metadata.DebugLogAllAllocations(s.allocator, s.logger, func(log *slog.Logger, region metadata.Region) {
		log.LogAttrs(context.Background(), slog.LevelInfo, "unreleased allocation",
			slog.Int("pid", int(region.Owner)),
			slog.Int("offset", region.Offset),
			slog.Int("size", region.Size))
	})
	fmt.Fprintln(s.out, "Exiting...")
	return nil
}
