package metadata

import (
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
)

// BuddyAllocator hands out power-of-two blocks carved from a power-of-two region by repeated
// halving. On deallocation, any two adjacent free blocks of equal size are merged. The merge
// does not check that the pair came from the same split, so blocks that are not true buddies
// can be combined into a block that is not aligned to its own size.
type BuddyAllocator struct {
	blockList
}

var _ Allocator = &BuddyAllocator{}

// NewBuddyAllocator creates a table holding one free block of size bytes. size must be a
// power of two.
func NewBuddyAllocator(logger *slog.Logger, size int) (*BuddyAllocator, error) {
	if err := memutils.CheckPow2(size, "size"); err != nil {
		return nil, err
	}

	return &BuddyAllocator{
		blockList: newBlockList(logger, KindBuddy, size),
	}, nil
}

// Allocate takes the first free block that can hold size bytes and halves it until it is no
// more than twice the request. strategy is ignored.
func (a *BuddyAllocator) Allocate(pid ProcessID, size int, strategy FitStrategy) error {
	err := a.checkRequest(pid, size, a.find(pid) >= 0)
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}
	if size > a.size {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrExceedsCapacity, "process %d size %d exceeds memory size %d", pid, size, a.size))
	}

	index, _ := selectFit(len(a.blocks), size, FitStrategyFirst, func(i int) (int, bool) {
		return a.blocks[i].Size, a.blocks[i].IsFree()
	})
	if index < 0 {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrNoSpace, "process %d", pid))
	}

	for a.blocks[index].Size/2 > size {
		half := a.blocks[index].Size / 2
		memutils.DebugCheckPow2(half, "split size")
		a.insertFreeAfter(index, half)
		a.logDebug("split block",
			slog.Int("start", a.blocks[index].Start),
			slog.Int("half", half))
	}

	a.blocks[index].Owner = pid
	a.logDebug("allocated block",
		slog.Int("pid", int(pid)),
		slog.Int("start", a.blocks[index].Start),
		slog.Int("size", a.blocks[index].Size),
		slog.Int("requested", size))
	memutils.DebugValidate(a)
	return nil
}

func (a *BuddyAllocator) Deallocate(pid ProcessID) error {
	_, err := a.free(pid)
	if err != nil {
		return err
	}

	a.mergeBuddies()
	memutils.DebugValidate(mergedBuddies{a})
	return nil
}

// mergeBuddies combines adjacent free blocks of equal size, sweeping the table until a full
// pass merges nothing. A merge can create a block equal in size to its left neighbor, which
// only a later pass sees.
func (a *BuddyAllocator) mergeBuddies() {
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(a.blocks)-1; {
			current, next := a.blocks[i], a.blocks[i+1]
			if current.IsFree() && next.IsFree() && current.Size == next.Size {
				a.logDebug("merged blocks",
					slog.Int("start", current.Start),
					slog.Int("size", current.Size*2))
				a.absorbNext(i)
				merged = true
				continue
			}
			i++
		}
	}
}

// Validate checks the block layout and that every block size is a power of two. Splitting can
// leave equal-size free neighbors behind, so merge completeness is only checked after a
// deallocation, by mergedBuddies.
func (a *BuddyAllocator) Validate() error {
	if err := a.validateBlocks(); err != nil {
		return err
	}

	for i, block := range a.blocks {
		if err := memutils.CheckPow2(block.Size, "block size"); err != nil {
			return cerrors.Wrapf(err, "block %d at offset %d", i, block.Start)
		}
	}

	return nil
}

// mergedBuddies validates a buddy table that has just been merged: on top of the layout checks,
// no two adjacent free blocks may share a size
type mergedBuddies struct {
	*BuddyAllocator
}

func (m mergedBuddies) Validate() error {
	if err := m.BuddyAllocator.Validate(); err != nil {
		return err
	}

	for i := 1; i < len(m.blocks); i++ {
		prev, block := m.blocks[i-1], m.blocks[i]
		if prev.IsFree() && block.IsFree() && prev.Size == block.Size {
			return cerrors.Newf("blocks %d and %d are adjacent free blocks of size %d that should have been merged", i-1, i, block.Size)
		}
	}

	return nil
}

func (a *BuddyAllocator) AddStatistics(stats *memutils.Statistics) { statistics(a, stats) }

func (a *BuddyAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	detailedStatistics(a, stats)
}

func (a *BuddyAllocator) BlockJsonData(json jwriter.ObjectState) {
	blockJsonData(a, json)
}
