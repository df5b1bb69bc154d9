package metadata

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils"
)

func fitOver(sizes []int, free []bool) func(int) (int, bool) {
	return func(i int) (int, bool) {
		return sizes[i], free[i]
	}
}

func TestSelectFitPolicies(t *testing.T) {
	sizes := []int{10, 4, 20}
	free := []bool{true, true, true}

	index, err := selectFit(len(sizes), 5, FitStrategyFirst, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 0, index)

	index, err = selectFit(len(sizes), 5, FitStrategyBest, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 0, index)

	index, err = selectFit(len(sizes), 5, FitStrategyWorst, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 2, index)
}

func TestSelectFitTiesPreferEarliest(t *testing.T) {
	sizes := []int{8, 6, 6, 8}
	free := []bool{true, true, true, true}

	index, err := selectFit(len(sizes), 5, FitStrategyBest, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 1, index)

	index, err = selectFit(len(sizes), 5, FitStrategyWorst, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 0, index)
}

func TestSelectFitSkipsOccupiedAndSmall(t *testing.T) {
	sizes := []int{50, 4, 20, 30}
	free := []bool{false, true, true, true}

	index, err := selectFit(len(sizes), 5, FitStrategyFirst, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, 2, index)

	index, err = selectFit(len(sizes), 31, FitStrategyWorst, fitOver(sizes, free))
	require.NoError(t, err)
	require.Equal(t, -1, index)
}

func TestSelectFitUnknownStrategy(t *testing.T) {
	_, err := selectFit(1, 1, FitStrategy(42), fitOver([]int{10}, []bool{true}))
	require.True(t, errors.Is(err, memutils.ErrUnknownStrategy))
}
