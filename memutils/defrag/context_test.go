package defrag_test

import (
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// fragmented returns [free 0-10][2 10-30][free 30-60][4 60-70][free 70-100]
func fragmented(t *testing.T) *metadata.DynamicAllocator {
	t.Helper()

	allocator, err := metadata.NewDynamicAllocator(nil, 100)
	require.NoError(t, err)

	require.NoError(t, allocator.Allocate(1, 10, metadata.FitStrategyFirst))
	require.NoError(t, allocator.Allocate(2, 20, metadata.FitStrategyFirst))
	require.NoError(t, allocator.Allocate(3, 30, metadata.FitStrategyFirst))
	require.NoError(t, allocator.Allocate(4, 10, metadata.FitStrategyFirst))
	require.NoError(t, allocator.Deallocate(1))
	require.NoError(t, allocator.Deallocate(3))
	require.Len(t, allocator.Blocks(), 5)

	return allocator
}

func requireCompacted(t *testing.T, allocator *metadata.DynamicAllocator) {
	t.Helper()

	require.Equal(t, []metadata.Block{
		{Start: 0, Size: 20, Owner: 2},
		{Start: 20, Size: 10, Owner: 4},
		{Start: 30, Size: 70, Owner: metadata.NoProcess},
	}, allocator.Blocks())
	require.NoError(t, allocator.Validate())
}

func TestCompactionRun(t *testing.T) {
	allocator := fragmented(t)

	context := defrag.MetadataDefragContext{Target: allocator}
	require.NoError(t, context.Init())

	moves, err := context.Run(&defrag.PassContext{})
	require.NoError(t, err)
	require.Equal(t, []metadata.Relocation{
		{Owner: 2, Size: 20, From: 10, To: 0},
		{Owner: 4, Size: 10, From: 60, To: 20},
	}, moves)
	require.Equal(t, defrag.DefragmentationStats{BytesMoved: 30, AllocationsMoved: 2, Passes: 1}, context.Stats)
	requireCompacted(t, allocator)

	// A compacted allocator can still serve the request fragmentation used to refuse
	require.NoError(t, allocator.Allocate(5, 70, metadata.FitStrategyFirst))
}

func TestCompactionPassAllocationBudget(t *testing.T) {
	allocator := fragmented(t)

	context := defrag.MetadataDefragContext{Target: allocator}
	require.NoError(t, context.Init())
	pass := &defrag.PassContext{MaxPassAllocations: 1}

	moves, done, err := context.Pass(pass)
	require.NoError(t, err)
	require.False(t, done)
	require.Len(t, moves, 1)
	require.Equal(t, metadata.ProcessID(2), moves[0].Owner)

	moves, done, err = context.Pass(pass)
	require.NoError(t, err)
	require.True(t, done)
	require.Len(t, moves, 1)
	require.Equal(t, metadata.ProcessID(4), moves[0].Owner)

	require.Equal(t, 2, context.Stats.Passes)
	requireCompacted(t, allocator)
}

func TestCompactionPassByteBudget(t *testing.T) {
	allocator := fragmented(t)

	context := defrag.MetadataDefragContext{Target: allocator}
	require.NoError(t, context.Init())
	pass := &defrag.PassContext{MaxPassBytes: 15}

	// The first move of a pass is always made, even over budget
	moves, done, err := context.Pass(pass)
	require.NoError(t, err)
	require.False(t, done)
	require.Len(t, moves, 1)
	require.Equal(t, 20, pass.Stats.BytesMoved)

	moves, done, err = context.Pass(pass)
	require.NoError(t, err)
	require.True(t, done)
	require.Len(t, moves, 1)
	require.Equal(t, 10, pass.Stats.BytesMoved)

	requireCompacted(t, allocator)
}

func TestCompactionAlreadyCompact(t *testing.T) {
	allocator, err := metadata.NewDynamicAllocator(nil, 64)
	require.NoError(t, err)
	require.NoError(t, allocator.Allocate(1, 16, metadata.FitStrategyFirst))

	context := defrag.MetadataDefragContext{Target: allocator}
	require.NoError(t, context.Init())

	moves, done, err := context.Pass(&defrag.PassContext{})
	require.NoError(t, err)
	require.True(t, done)
	require.Empty(t, moves)
	require.Equal(t, defrag.DefragmentationStats{}, context.Stats)
}

func TestCompactionHandler(t *testing.T) {
	allocator := fragmented(t)

	var seen []metadata.ProcessID
	context := defrag.MetadataDefragContext{
		Target: allocator,
		Handler: func(move metadata.Relocation) error {
			seen = append(seen, move.Owner)
			return nil
		},
	}
	require.NoError(t, context.Init())

	_, err := context.Run(&defrag.PassContext{})
	require.NoError(t, err)
	require.Equal(t, []metadata.ProcessID{2, 4}, seen)
}

func TestCompactionHandlerError(t *testing.T) {
	allocator := fragmented(t)
	handlerErr := cerrors.New("copy failed")

	context := defrag.MetadataDefragContext{
		Target: allocator,
		Handler: func(move metadata.Relocation) error {
			return handlerErr
		},
	}
	require.NoError(t, context.Init())

	moves, err := context.Run(&defrag.PassContext{})
	require.True(t, cerrors.Is(err, handlerErr))
	require.Len(t, moves, 1)
	require.NoError(t, allocator.Validate())
}

func TestCompactionInitRequiresTarget(t *testing.T) {
	var context defrag.MetadataDefragContext
	require.Error(t, context.Init())
}
