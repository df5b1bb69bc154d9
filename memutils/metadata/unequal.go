package metadata

import (
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/samber/lo"
	"github.com/vkngwrapper/memsim/memutils"
)

// UnequalAllocator is a static partition table whose partition sizes are chosen by the caller.
// It always places processes first-fit.
type UnequalAllocator struct {
	partitionTable
}

var _ Allocator = &UnequalAllocator{}

// NewUnequalAllocator creates one partition per entry of sizes, in the order given
func NewUnequalAllocator(logger *slog.Logger, sizes []int) (*UnequalAllocator, error) {
	if len(sizes) == 0 {
		return nil, cerrors.Wrap(memutils.ErrInvalidSize, "at least one partition size is required")
	}
	if _, index, found := lo.FindIndexOf(sizes, func(size int) bool { return size <= 0 }); found {
		return nil, cerrors.Wrapf(memutils.ErrInvalidSize, "partition %d has size %d", index, sizes[index])
	}

	return &UnequalAllocator{
		partitionTable: newPartitionTable(logger, KindUnequal, sizes),
	}, nil
}

// Allocate places pid in the first free partition large enough to hold size bytes.
// strategy is ignored.
func (a *UnequalAllocator) Allocate(pid ProcessID, size int, strategy FitStrategy) error {
	err := a.checkRequest(pid, size, a.find(pid) >= 0)
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}

	err = a.allocate(pid, size, FitStrategyFirst)
	memutils.DebugValidate(a)
	return err
}

func (a *UnequalAllocator) Deallocate(pid ProcessID) error {
	err := a.deallocate(pid)
	memutils.DebugValidate(a)
	return err
}

func (a *UnequalAllocator) Validate() error {
	return a.validatePartitions()
}

func (a *UnequalAllocator) AddStatistics(stats *memutils.Statistics) { statistics(a, stats) }

func (a *UnequalAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	detailedStatistics(a, stats)
}

func (a *UnequalAllocator) BlockJsonData(json jwriter.ObjectState) {
	blockJsonData(a, json)
}
