package metadata

import (
	"fmt"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils"
)

// partitionTable is the shared state of FixedAllocator and UnequalAllocator. Partitions never
// split or merge, so the slice is never resized after construction.
type partitionTable struct {
	tableBase

	partitions []Partition
}

func newPartitionTable(logger *slog.Logger, kind Kind, sizes []int) partitionTable {
	partitions := make([]Partition, len(sizes))
	total := 0
	for i, size := range sizes {
		partitions[i] = Partition{Size: size, Owner: NoProcess}
		total += size
	}

	return partitionTable{
		tableBase:  newTableBase(logger, kind, total),
		partitions: partitions,
	}
}

// Partitions returns a copy of the partition table in index order
func (t *partitionTable) Partitions() []Partition {
	return append([]Partition(nil), t.partitions...)
}

func (t *partitionTable) find(pid ProcessID) int {
	for i, partition := range t.partitions {
		if !partition.IsFree() && partition.Owner == pid {
			return i
		}
	}
	return -1
}

func (t *partitionTable) allocate(pid ProcessID, size int, strategy FitStrategy) error {
	index, err := selectFit(len(t.partitions), size, strategy, func(i int) (int, bool) {
		return t.partitions[i].Size, t.partitions[i].IsFree()
	})
	if err != nil {
		return t.allocationFailed(pid, size, err)
	}
	if index < 0 {
		return t.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrNoSpace, "process %d using %s", pid, strategy))
	}

	t.partitions[index].Owner = pid
	t.logDebug("allocated partition",
		slog.Int("pid", int(pid)),
		slog.Int("size", size),
		slog.Int("partition", index),
		slog.Int("partitionSize", t.partitions[index].Size))
	return nil
}

func (t *partitionTable) deallocate(pid ProcessID) error {
	index := t.find(pid)
	if index < 0 {
		return cerrors.Wrapf(memutils.ErrUnknownProcess, "process %d", pid)
	}

	t.partitions[index].Owner = NoProcess
	t.logDebug("freed partition", slog.Int("pid", int(pid)), slog.Int("partition", index))
	return nil
}

func (t *partitionTable) Display() []string {
	lines := make([]string, len(t.partitions))
	for i, partition := range t.partitions {
		lines[i] = fmt.Sprintf("Partition %d: %s", i, ownerStatus(partition.Owner))
	}
	return lines
}

func (t *partitionTable) VisitAllRegions(visit func(region Region) error) error {
	offset := 0
	for i, partition := range t.partitions {
		err := visit(Region{
			Index:  i,
			Offset: offset,
			Size:   partition.Size,
			Owner:  partition.Owner,
			Page:   -1,
		})
		if err != nil {
			return err
		}
		offset += partition.Size
	}
	return nil
}

func (t *partitionTable) validatePartitions() error {
	owners := make(map[ProcessID]int, len(t.partitions))
	total := 0

	for i, partition := range t.partitions {
		if partition.Size <= 0 {
			return cerrors.Newf("partition %d has non-positive size %d", i, partition.Size)
		}
		total += partition.Size

		if partition.IsFree() {
			continue
		}
		if partition.Owner < 0 {
			return cerrors.Newf("partition %d has invalid owner %d", i, partition.Owner)
		}
		if previous, ok := owners[partition.Owner]; ok {
			return cerrors.Newf("process %d owns both partition %d and partition %d", partition.Owner, previous, i)
		}
		owners[partition.Owner] = i
	}

	if total != t.size {
		return cerrors.Newf("partition sizes add up to %d, but the table manages %d bytes", total, t.size)
	}

	return nil
}
