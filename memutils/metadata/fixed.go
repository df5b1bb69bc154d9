package metadata

import (
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
)

// FixedAllocator divides memory into equally-sized partitions, each holding at most one process.
// Any bytes left over after the last whole partition are never used.
type FixedAllocator struct {
	partitionTable

	partitionSize int
}

var _ Allocator = &FixedAllocator{}

// NewFixedAllocator creates memorySize / partitionSize partitions of partitionSize bytes each
func NewFixedAllocator(logger *slog.Logger, memorySize, partitionSize int) (*FixedAllocator, error) {
	if err := memutils.CheckPositive(memorySize, "memorySize"); err != nil {
		return nil, err
	}
	if err := memutils.CheckPositive(partitionSize, "partitionSize"); err != nil {
		return nil, err
	}
	if partitionSize > memorySize {
		return nil, cerrors.Wrapf(memutils.ErrExceedsCapacity, "partition size %d is larger than memory size %d", partitionSize, memorySize)
	}

	sizes := make([]int, memorySize/partitionSize)
	for i := range sizes {
		sizes[i] = partitionSize
	}

	return &FixedAllocator{
		partitionTable: newPartitionTable(logger, KindFixed, sizes),
		partitionSize:  partitionSize,
	}, nil
}

// PartitionSize is the size in bytes of every partition
func (a *FixedAllocator) PartitionSize() int { return a.partitionSize }

func (a *FixedAllocator) Allocate(pid ProcessID, size int, strategy FitStrategy) error {
	err := a.checkRequest(pid, size, a.find(pid) >= 0)
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}
	if size > a.partitionSize {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrExceedsCapacity, "process %d size %d exceeds partition size %d", pid, size, a.partitionSize))
	}

	err = a.allocate(pid, size, strategy)
	memutils.DebugValidate(a)
	return err
}

func (a *FixedAllocator) Deallocate(pid ProcessID) error {
	err := a.deallocate(pid)
	memutils.DebugValidate(a)
	return err
}

func (a *FixedAllocator) Validate() error {
	if err := a.validatePartitions(); err != nil {
		return err
	}

	for i, partition := range a.partitions {
		if partition.Size != a.partitionSize {
			return cerrors.Newf("partition %d has size %d, but every partition should have size %d", i, partition.Size, a.partitionSize)
		}
	}

	return nil
}

func (a *FixedAllocator) AddStatistics(stats *memutils.Statistics) { statistics(a, stats) }

func (a *FixedAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	detailedStatistics(a, stats)
}

func (a *FixedAllocator) BlockJsonData(json jwriter.ObjectState) {
	json.Name("PartitionSize").Int(a.partitionSize)
	blockJsonData(a, json)
}
