package metadata

//go:generate mockgen -source metadata.go -destination mocks/allocator.go

import (
	"context"
	"io"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
)

// Allocator is one memory-management technique operating over its own table of regions.
// Every implementation is single-threaded: each call runs to completion and leaves the table
// consistent (Validate returns nil) whether it succeeds or fails.
type Allocator interface {
	memutils.Validatable

	// Kind identifies which technique this allocator implements
	Kind() Kind
	// Size returns the number of bytes the table manages
	Size() int

	// Allocate reserves size bytes for pid. strategy is ignored by variants that only support
	// a single placement policy. A nil error means the allocation succeeded. On failure the
	// table is left exactly as it was and the error wraps one of the memutils sentinel errors.
	Allocate(pid ProcessID, size int, strategy FitStrategy) error
	// Deallocate releases the memory held by pid, returning an error wrapping
	// memutils.ErrUnknownProcess if pid holds none.
	Deallocate(pid ProcessID) error
	// Display returns one human-readable status line per partition, block or frame, in table order
	Display() []string

	// VisitAllRegions calls visit once per record in table order. Iteration stops at the
	// first error, which is returned.
	VisitAllRegions(visit func(region Region) error) error
	// AddStatistics sums this table's occupancy into stats
	AddStatistics(stats *memutils.Statistics)
	// AddDetailedStatistics sums this table's occupancy and range sizes into stats
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// BlockJsonData populates a json object with information about this table
	BlockJsonData(json jwriter.ObjectState)
}

// tableBase holds the state shared by every allocator implementation
type tableBase struct {
	kind   Kind
	size   int
	logger *slog.Logger
}

func newTableBase(logger *slog.Logger, kind Kind, size int) tableBase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return tableBase{
		kind:   kind,
		size:   size,
		logger: logger.With(slog.String("technique", kind.String())),
	}
}

func (m *tableBase) Kind() Kind { return m.kind }

// Size returns the number of bytes the table manages
func (m *tableBase) Size() int { return m.size }

func (m *tableBase) logDebug(msg string, attrs ...slog.Attr) {
	m.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

// checkRequest validates the parameters every allocation shares before any table is touched
func (m *tableBase) checkRequest(pid ProcessID, size int, resident bool) error {
	if pid < 0 {
		return cerrors.Wrapf(memutils.ErrInvalidProcess, "process %d", pid)
	}
	if size <= 0 {
		return cerrors.Wrapf(memutils.ErrInvalidSize, "process %d requested %d", pid, size)
	}
	if resident {
		return cerrors.Wrapf(memutils.ErrProcessExists, "process %d", pid)
	}
	return nil
}

func (m *tableBase) allocationFailed(pid ProcessID, size int, err error) error {
	m.logDebug("allocation failed",
		slog.Int("pid", int(pid)),
		slog.Int("size", size),
		slog.Any("error", err))
	return err
}

// statistics tallies the allocator's regions and folds them into stats
func statistics(allocator Allocator, stats *memutils.Statistics) {
	table := memutils.Statistics{TotalBytes: allocator.Size()}
	_ = allocator.VisitAllRegions(func(region Region) error {
		table.RegionCount++
		if !region.IsFree() {
			table.AllocationCount++
			table.AllocationBytes += region.Size
		}
		return nil
	})
	stats.AddStatistics(&table)
}

func detailedStatistics(allocator Allocator, stats *memutils.DetailedStatistics) {
	var table memutils.DetailedStatistics
	table.Clear()
	table.TotalBytes = allocator.Size()

	_ = allocator.VisitAllRegions(func(region Region) error {
		if region.IsFree() {
			table.AddUnusedRange(region.Size)
		} else {
			table.AddAllocation(region.Size)
		}
		return nil
	})
	stats.AddDetailedStatistics(&table)
}

func blockJsonData(allocator Allocator, json jwriter.ObjectState) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)

	json.Name("Technique").String(allocator.Kind().String())
	json.Name("TotalBytes").Int(stats.TotalBytes)
	json.Name("UnusedBytes").Int(stats.FreeBytes())
	json.Name("Allocations").Int(stats.AllocationCount)
	json.Name("UnusedRanges").Int(stats.UnusedRangeCount)

	arrayState := json.Name("Regions").Array()
	defer arrayState.End()

	_ = allocator.VisitAllRegions(func(region Region) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Index").Int(region.Index)
		obj.Name("Offset").Int(region.Offset)
		obj.Name("Size").Int(region.Size)
		if region.IsFree() {
			obj.Name("Type").String("Free")
			return nil
		}

		obj.Name("Type").String("Occupied")
		obj.Name("Process").Int(int(region.Owner))
		if region.Page >= 0 {
			obj.Name("Page").Int(region.Page)
		}
		return nil
	})
}

// DebugLogAllAllocations calls logFunc once for every occupied region of the allocator
func DebugLogAllAllocations(allocator Allocator, logger *slog.Logger, logFunc func(log *slog.Logger, region Region)) {
	_ = allocator.VisitAllRegions(func(region Region) error {
		if !region.IsFree() {
			logFunc(logger, region)
		}
		return nil
	})
}
