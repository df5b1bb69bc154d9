package metadata_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func collectRegions(t *testing.T, allocator metadata.Allocator) []metadata.Region {
	t.Helper()

	var regions []metadata.Region
	err := allocator.VisitAllRegions(func(region metadata.Region) error {
		regions = append(regions, region)
		return nil
	})
	require.NoError(t, err)
	return regions
}

func requireNoAdjacentFree(t *testing.T, blocks []metadata.Block) {
	t.Helper()

	for i := 1; i < len(blocks); i++ {
		require.False(t, blocks[i-1].IsFree() && blocks[i].IsFree(),
			"blocks %d and %d are both free: %+v", i-1, i, blocks)
	}
}

func requireNoAdjacentEqualFree(t *testing.T, blocks []metadata.Block) {
	t.Helper()

	for i := 1; i < len(blocks); i++ {
		require.False(t, blocks[i-1].IsFree() && blocks[i].IsFree() && blocks[i-1].Size == blocks[i].Size,
			"blocks %d and %d are equal-size free neighbors: %+v", i-1, i, blocks)
	}
}

func sumBlockSizes(blocks []metadata.Block) int {
	total := 0
	for _, block := range blocks {
		total += block.Size
	}
	return total
}
