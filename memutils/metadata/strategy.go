package metadata

import (
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils"
)

// FitStrategy chooses among several free regions that are all large enough for a request.
// The zero value is FitStrategyFirst.
type FitStrategy uint32

const (
	// FitStrategyFirst selects the first adequate free region in scan order
	FitStrategyFirst FitStrategy = iota
	// FitStrategyBest selects the smallest adequate free region, preferring the earliest on ties
	FitStrategyBest
	// FitStrategyWorst selects the largest adequate free region, preferring the earliest on ties
	FitStrategyWorst
)

var fitStrategyMapping = map[FitStrategy]string{
	FitStrategyFirst: "first_fit",
	FitStrategyBest:  "best_fit",
	FitStrategyWorst: "worst_fit",
}

func (s FitStrategy) String() string {
	str, ok := fitStrategyMapping[s]
	if !ok {
		return "unknown"
	}
	return str
}

// IsValid reports whether s is one of the known strategies
func (s FitStrategy) IsValid() bool {
	_, ok := fitStrategyMapping[s]
	return ok
}

// ParseFitStrategy converts a token such as "best_fit" into a FitStrategy
func ParseFitStrategy(token string) (FitStrategy, error) {
	token = strings.TrimSpace(token)
	for strategy, name := range fitStrategyMapping {
		if name == token {
			return strategy, nil
		}
	}

	return FitStrategyFirst, cerrors.Wrapf(memutils.ErrUnknownStrategy, "token %q", token)
}

// selectFit scans count regions in index order and returns the index chosen by strategy
// for a request of the given size, or -1 if no free region is large enough.
func selectFit(count int, request int, strategy FitStrategy, region func(index int) (size int, free bool)) (int, error) {
	if !strategy.IsValid() {
		return -1, cerrors.Wrapf(memutils.ErrUnknownStrategy, "strategy value %d", uint32(strategy))
	}

	chosen := -1
	chosenSize := 0
	for i := 0; i < count; i++ {
		size, free := region(i)
		if !free || size < request {
			continue
		}

		switch strategy {
		case FitStrategyFirst:
			return i, nil
		case FitStrategyBest:
			if chosen < 0 || size < chosenSize {
				chosen, chosenSize = i, size
			}
		case FitStrategyWorst:
			if chosen < 0 || size > chosenSize {
				chosen, chosenSize = i, size
			}
		}
	}

	return chosen, nil
}
