package metadata

import (
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
)

// DynamicAllocator manages a single region of memory as a list of variable-size blocks.
// Allocation splits the chosen free block and deallocation coalesces adjacent free blocks, so
// the table never holds two neighboring free blocks once a call returns.
type DynamicAllocator struct {
	blockList
}

var _ Allocator = &DynamicAllocator{}

// NewDynamicAllocator creates a table holding one free block of memorySize bytes
func NewDynamicAllocator(logger *slog.Logger, memorySize int) (*DynamicAllocator, error) {
	if err := memutils.CheckPositive(memorySize, "memorySize"); err != nil {
		return nil, err
	}

	return &DynamicAllocator{
		blockList: newBlockList(logger, KindDynamic, memorySize),
	}, nil
}

func (a *DynamicAllocator) Allocate(pid ProcessID, size int, strategy FitStrategy) error {
	err := a.checkRequest(pid, size, a.find(pid) >= 0)
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}
	if size > a.size {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrExceedsCapacity, "process %d size %d exceeds memory size %d", pid, size, a.size))
	}

	index, err := selectFit(len(a.blocks), size, strategy, func(i int) (int, bool) {
		return a.blocks[i].Size, a.blocks[i].IsFree()
	})
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}
	if index < 0 {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrNoSpace, "process %d using %s", pid, strategy))
	}

	a.splitBlock(index, pid, size)
	memutils.DebugValidate(a)
	return nil
}

// splitBlock shrinks the block at index to size bytes, hands it to pid and leaves any
// remainder as a new free block directly after it
func (a *DynamicAllocator) splitBlock(index int, pid ProcessID, size int) {
	if remainder := a.blocks[index].Size - size; remainder > 0 {
		a.insertFreeAfter(index, remainder)
		a.logDebug("split block",
			slog.Int("start", a.blocks[index].Start),
			slog.Int("size", size),
			slog.Int("remainder", remainder))
	}

	a.blocks[index].Owner = pid
	a.logDebug("allocated block",
		slog.Int("pid", int(pid)),
		slog.Int("start", a.blocks[index].Start),
		slog.Int("size", size))
}

func (a *DynamicAllocator) Deallocate(pid ProcessID) error {
	_, err := a.free(pid)
	if err != nil {
		return err
	}

	a.coalesce()
	memutils.DebugValidate(a)
	return nil
}

// coalesce merges every run of adjacent free blocks into the leftmost block of the run
func (a *DynamicAllocator) coalesce() {
	for i := 0; i < len(a.blocks)-1; {
		if a.blocks[i].IsFree() && a.blocks[i+1].IsFree() {
			a.logDebug("coalesced blocks",
				slog.Int("start", a.blocks[i].Start),
				slog.Int("absorbedStart", a.blocks[i+1].Start))
			a.absorbNext(i)
			continue
		}
		i++
	}
}

// nextRelocation returns the index of the first free block directly followed by an occupied
// block, or -1 if all occupied blocks already sit below all free space
func (a *DynamicAllocator) nextRelocation() int {
	for i := 0; i+1 < len(a.blocks); i++ {
		if a.blocks[i].IsFree() && !a.blocks[i+1].IsFree() {
			return i
		}
	}
	return -1
}

// PeekRelocation reports the move the next call to Relocate would make without making it
func (a *DynamicAllocator) PeekRelocation() (Relocation, bool) {
	index := a.nextRelocation()
	if index < 0 {
		return Relocation{}, false
	}

	occupied := a.blocks[index+1]
	return Relocation{
		Owner: occupied.Owner,
		Size:  occupied.Size,
		From:  occupied.Start,
		To:    a.blocks[index].Start,
	}, true
}

// Relocate moves the lowest occupied block that sits above free space down to the start of that
// space. The free space ends up directly after the moved block and is coalesced with any free
// block beyond it. It returns false once memory is fully compacted.
func (a *DynamicAllocator) Relocate() (Relocation, bool) {
	index := a.nextRelocation()
	if index < 0 {
		return Relocation{}, false
	}

	free := a.blocks[index]
	occupied := a.blocks[index+1]
	move := Relocation{
		Owner: occupied.Owner,
		Size:  occupied.Size,
		From:  occupied.Start,
		To:    free.Start,
	}

	occupied.Start = free.Start
	free.Start = occupied.End()
	a.blocks[index] = occupied
	a.blocks[index+1] = free

	if index+2 < len(a.blocks) && a.blocks[index+2].IsFree() {
		a.absorbNext(index + 1)
	}

	a.logDebug("relocated block",
		slog.Int("pid", int(move.Owner)),
		slog.Int("size", move.Size),
		slog.Int("from", move.From),
		slog.Int("to", move.To))
	memutils.DebugValidate(a)
	return move, true
}

func (a *DynamicAllocator) Validate() error {
	if err := a.validateBlocks(); err != nil {
		return err
	}

	for i := 1; i < len(a.blocks); i++ {
		if a.blocks[i-1].IsFree() && a.blocks[i].IsFree() {
			return cerrors.Newf("blocks %d and %d are adjacent free blocks that should have been coalesced", i-1, i)
		}
	}

	return nil
}

func (a *DynamicAllocator) AddStatistics(stats *memutils.Statistics) { statistics(a, stats) }

func (a *DynamicAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	detailedStatistics(a, stats)
}

func (a *DynamicAllocator) BlockJsonData(json jwriter.ObjectState) {
	blockJsonData(a, json)
}
