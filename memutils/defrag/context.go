package defrag

import (
	"context"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// Compactable is an allocator whose occupied blocks can be slid toward offset zero, gathering
// its free space into a single block at the end of memory
type Compactable interface {
	metadata.Allocator

	// PeekRelocation reports the move Relocate would make next without making it
	PeekRelocation() (metadata.Relocation, bool)
	// Relocate performs one move, returning false once nothing is left to move
	Relocate() (metadata.Relocation, bool)
}

// MoveHandler is called once for every relocation a pass performs
type MoveHandler func(move metadata.Relocation) error

// MetadataDefragContext compacts one allocator. A compaction run consists of one or more passes,
// each bounded by the budgets of its PassContext.
type MetadataDefragContext struct {
	// Target is the allocator this context exists to compact
	Target Compactable
	// Handler, if set, is called after each relocation. A handler error ends the pass.
	Handler MoveHandler
	// Logger receives one debug line per pass. A nil Logger disables pass logging.
	Logger *slog.Logger

	// Stats accumulates the statistics of every pass completed by this context
	Stats DefragmentationStats
}

// Init prepares the context for a fresh run. It may be called again to reuse the context.
func (c *MetadataDefragContext) Init() error {
	if c.Target == nil {
		return cerrors.New("attempted to init compaction context without a target")
	}

	c.Stats = DefragmentationStats{}
	return nil
}

// Pass performs relocations until the pass budget is spent or the target is fully compacted.
// It returns the moves performed, and true once there is no compaction work left.
func (c *MetadataDefragContext) Pass(pass *PassContext) ([]metadata.Relocation, bool, error) {
	pass.reset()

	var moves []metadata.Relocation
	for {
		next, ok := c.Target.PeekRelocation()
		if !ok {
			c.completePass(pass)
			return moves, true, nil
		}
		if pass.checkCounters(next.Size) == defragCounterEnd {
			break
		}

		move, _ := c.Target.Relocate()
		moves = append(moves, move)
		limitReached := pass.incrementCounters(move.Size)

		if c.Handler != nil {
			if err := c.Handler(move); err != nil {
				c.completePass(pass)
				return moves, false, cerrors.Wrapf(err, "relocating process %d", move.Owner)
			}
		}

		if limitReached {
			break
		}
	}

	c.completePass(pass)
	_, more := c.Target.PeekRelocation()
	return moves, !more, nil
}

// Run performs passes until the target is fully compacted
func (c *MetadataDefragContext) Run(pass *PassContext) ([]metadata.Relocation, error) {
	var all []metadata.Relocation

	for {
		moves, done, err := c.Pass(pass)
		all = append(all, moves...)
		if err != nil || done {
			memutils.DebugValidate(c.Target)
			return all, err
		}
	}
}

func (c *MetadataDefragContext) completePass(pass *PassContext) {
	if pass.Stats.AllocationsMoved > 0 {
		pass.Stats.Passes = 1
	}
	c.Stats.Add(pass.Stats)

	if c.Logger != nil {
		c.Logger.LogAttrs(context.Background(), slog.LevelDebug, "compaction pass complete",
			slog.Int("bytesMoved", pass.Stats.BytesMoved),
			slog.Int("allocationsMoved", pass.Stats.AllocationsMoved))
	}
}

var _ Compactable = &metadata.DynamicAllocator{}
