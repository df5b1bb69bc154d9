package main

import (
	"log/slog"
	"os"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// allocatorParams carries the construction parameters of any one technique. Only the fields the
// chosen technique uses are read.
type allocatorParams struct {
	Technique     string
	MemorySize    int
	PartitionSize int
	Partitions    []int
	PageSize      int
}

// scenario is the on-disk form of a simulation run
type scenario struct {
	Technique     string      `toml:"technique"`
	MemorySize    int         `toml:"memory_size"`
	PartitionSize int         `toml:"partition_size"`
	Partitions    []int       `toml:"partitions"`
	PageSize      int         `toml:"page_size"`
	Strategy      string      `toml:"strategy"`
	Operations    []operation `toml:"operations"`
}

type operation struct {
	Op   string `toml:"op"`
	PID  int    `toml:"pid"`
	Size int    `toml:"size"`
}

func (s *scenario) params() allocatorParams {
	return allocatorParams{
		Technique:     s.Technique,
		MemorySize:    s.MemorySize,
		PartitionSize: s.PartitionSize,
		Partitions:    s.Partitions,
		PageSize:      s.PageSize,
	}
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "failed to read scenario %s", path)
	}

	sc, err := parseScenario(data)
	if err != nil {
		return nil, cerrors.Wrapf(err, "failed to load scenario %s", path)
	}
	return sc, nil
}

func parseScenario(data []byte) (*scenario, error) {
	var sc scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return nil, cerrors.Wrap(err, "failed to decode scenario")
	}
	if strings.TrimSpace(sc.Technique) == "" {
		return nil, cerrors.New("scenario does not name a technique")
	}
	return &sc, nil
}

// parseStrategy maps an empty token to first fit
func parseStrategy(token string) (metadata.FitStrategy, error) {
	if strings.TrimSpace(token) == "" {
		return metadata.FitStrategyFirst, nil
	}
	return metadata.ParseFitStrategy(token)
}

func newAllocator(logger *slog.Logger, params allocatorParams) (metadata.Allocator, error) {
	var allocator metadata.Allocator

	switch strings.ToLower(strings.TrimSpace(params.Technique)) {
	case metadata.KindFixed.String():
		fixed, err := metadata.NewFixedAllocator(logger, params.MemorySize, params.PartitionSize)
		if err != nil {
			return nil, err
		}
		allocator = fixed
	case metadata.KindUnequal.String():
		unequal, err := metadata.NewUnequalAllocator(logger, params.Partitions)
		if err != nil {
			return nil, err
		}
		allocator = unequal
	case metadata.KindDynamic.String():
		dynamic, err := metadata.NewDynamicAllocator(logger, params.MemorySize)
		if err != nil {
			return nil, err
		}
		allocator = dynamic
	case metadata.KindBuddy.String():
		buddy, err := metadata.NewBuddyAllocator(logger, params.MemorySize)
		if err != nil {
			return nil, err
		}
		allocator = buddy
	case metadata.KindPaging.String():
		paging, err := metadata.NewPagingAllocator(logger, params.MemorySize, params.PageSize)
		if err != nil {
			return nil, err
		}
		allocator = paging
	default:
		return nil, cerrors.Newf("unknown technique %q", params.Technique)
	}

	return allocator, nil
}
