package metadata_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

func TestFixedConstruction(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 100, 30)
	require.NoError(t, err)

	require.Equal(t, metadata.KindFixed, fixed.Kind())
	require.Equal(t, 90, fixed.Size())
	require.Equal(t, 30, fixed.PartitionSize())
	require.Equal(t, []string{
		"Partition 0: Free",
		"Partition 1: Free",
		"Partition 2: Free",
	}, fixed.Display())
	require.NoError(t, fixed.Validate())

	_, err = metadata.NewFixedAllocator(testLogger(), 0, 10)
	require.True(t, errors.Is(err, memutils.ErrInvalidSize))

	_, err = metadata.NewFixedAllocator(testLogger(), 100, -1)
	require.True(t, errors.Is(err, memutils.ErrInvalidSize))

	_, err = metadata.NewFixedAllocator(testLogger(), 10, 20)
	require.True(t, errors.Is(err, memutils.ErrExceedsCapacity))
}

func TestFixedAllocAndFree(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)

	require.NoError(t, fixed.Allocate(1, 10, metadata.FitStrategyFirst))
	require.NoError(t, fixed.Allocate(2, 3, metadata.FitStrategyBest))
	require.NoError(t, fixed.Allocate(3, 7, metadata.FitStrategyWorst))

	require.Equal(t, []string{
		"Partition 0: Occupied by process 1",
		"Partition 1: Occupied by process 2",
		"Partition 2: Occupied by process 3",
		"Partition 3: Free",
	}, fixed.Display())

	require.NoError(t, fixed.Deallocate(2))
	require.NoError(t, fixed.Allocate(4, 1, metadata.FitStrategyFirst))
	require.Equal(t, metadata.ProcessID(4), fixed.Partitions()[1].Owner)

	require.NoError(t, fixed.Allocate(5, 1, metadata.FitStrategyFirst))
	err = fixed.Allocate(6, 1, metadata.FitStrategyFirst)
	require.True(t, errors.Is(err, memutils.ErrNoSpace))

	require.NoError(t, fixed.Validate())
}

func TestFixedRejectsOversizedProcess(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)

	before := fixed.Partitions()
	err = fixed.Allocate(1, 11, metadata.FitStrategyFirst)
	require.True(t, errors.Is(err, memutils.ErrExceedsCapacity))
	require.Contains(t, err.Error(), "exceeds partition size 10")
	require.Empty(t, cmp.Diff(before, fixed.Partitions()))
}

func TestFixedRejectsBadRequests(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)
	require.NoError(t, fixed.Allocate(1, 5, metadata.FitStrategyFirst))

	before := fixed.Partitions()

	err = fixed.Allocate(2, 5, metadata.FitStrategy(9))
	require.True(t, errors.Is(err, memutils.ErrUnknownStrategy))

	err = fixed.Allocate(1, 5, metadata.FitStrategyFirst)
	require.True(t, errors.Is(err, memutils.ErrProcessExists))

	err = fixed.Allocate(-3, 5, metadata.FitStrategyFirst)
	require.True(t, errors.Is(err, memutils.ErrInvalidProcess))

	err = fixed.Allocate(2, 0, metadata.FitStrategyFirst)
	require.True(t, errors.Is(err, memutils.ErrInvalidSize))

	require.Empty(t, cmp.Diff(before, fixed.Partitions()))
}

func TestFixedDeallocateUnknownProcess(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)
	require.NoError(t, fixed.Allocate(1, 5, metadata.FitStrategyFirst))

	before := fixed.Partitions()
	err = fixed.Deallocate(2)
	require.True(t, errors.Is(err, memutils.ErrUnknownProcess))
	require.Empty(t, cmp.Diff(before, fixed.Partitions()))
}

func TestFixedStatistics(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)
	require.NoError(t, fixed.Allocate(1, 5, metadata.FitStrategyFirst))

	var stats memutils.Statistics
	fixed.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		RegionCount:     4,
		AllocationCount: 1,
		TotalBytes:      40,
		AllocationBytes: 10,
	}, stats)

	regions := collectRegions(t, fixed)
	require.Len(t, regions, 4)
	require.Equal(t, metadata.Region{Index: 2, Offset: 20, Size: 10, Owner: metadata.NoProcess, Page: -1}, regions[2])
}

func TestStatisticsAccumulateAcrossTables(t *testing.T) {
	fixed, err := metadata.NewFixedAllocator(testLogger(), 40, 10)
	require.NoError(t, err)
	require.NoError(t, fixed.Allocate(1, 5, metadata.FitStrategyFirst))

	dynamic, err := metadata.NewDynamicAllocator(testLogger(), 64)
	require.NoError(t, err)
	require.NoError(t, dynamic.Allocate(1, 24, metadata.FitStrategyFirst))

	var stats memutils.Statistics
	fixed.AddStatistics(&stats)
	dynamic.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		RegionCount:     6,
		AllocationCount: 2,
		TotalBytes:      104,
		AllocationBytes: 34,
	}, stats)

	var detailed memutils.DetailedStatistics
	detailed.Clear()
	fixed.AddDetailedStatistics(&detailed)
	dynamic.AddDetailedStatistics(&detailed)
	require.Equal(t, 104, detailed.TotalBytes)
	require.Equal(t, 4, detailed.UnusedRangeCount)
	require.Equal(t, 10, detailed.UnusedRangeSizeMin)
	require.Equal(t, 40, detailed.UnusedRangeSizeMax)
	require.Equal(t, 10, detailed.AllocationSizeMin)
	require.Equal(t, 24, detailed.AllocationSizeMax)
}
