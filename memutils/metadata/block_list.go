package metadata

import (
	"fmt"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils"
	"golang.org/x/exp/slices"
)

// blockList is an ordered, gapless sequence of blocks covering [0, size). It is the table
// behind DynamicAllocator and BuddyAllocator. Blocks are held by value and addressed by index,
// so splitting and merging only ever shift neighbors within the slice.
type blockList struct {
	tableBase

	blocks []Block
}

func newBlockList(logger *slog.Logger, kind Kind, size int) blockList {
	return blockList{
		tableBase: newTableBase(logger, kind, size),
		blocks:    []Block{{Start: 0, Size: size, Owner: NoProcess}},
	}
}

// Blocks returns a copy of the block table ordered by start offset
func (l *blockList) Blocks() []Block {
	return append([]Block(nil), l.blocks...)
}

func (l *blockList) find(pid ProcessID) int {
	return slices.IndexFunc(l.blocks, func(block Block) bool {
		return !block.IsFree() && block.Owner == pid
	})
}

// insertFreeAfter inserts a free block of the given size directly after index, carving it
// out of the end of the block at index
func (l *blockList) insertFreeAfter(index int, size int) {
	block := &l.blocks[index]
	block.Size -= size
	l.blocks = slices.Insert(l.blocks, index+1, Block{
		Start: block.Start + block.Size,
		Size:  size,
		Owner: NoProcess,
	})
}

// absorbNext grows the block at index by the size of its successor and drops the successor
func (l *blockList) absorbNext(index int) {
	l.blocks[index].Size += l.blocks[index+1].Size
	l.blocks = slices.Delete(l.blocks, index+1, index+2)
}

func (l *blockList) free(pid ProcessID) (int, error) {
	index := l.find(pid)
	if index < 0 {
		return -1, cerrors.Wrapf(memutils.ErrUnknownProcess, "process %d", pid)
	}

	l.blocks[index].Owner = NoProcess
	l.logDebug("freed block",
		slog.Int("pid", int(pid)),
		slog.Int("start", l.blocks[index].Start),
		slog.Int("size", l.blocks[index].Size))
	return index, nil
}

func (l *blockList) Display() []string {
	lines := make([]string, len(l.blocks))
	for i, block := range l.blocks {
		lines[i] = fmt.Sprintf("Block %d - Size: %d, %s", block.Start, block.Size, ownerStatus(block.Owner))
	}
	return lines
}

func (l *blockList) VisitAllRegions(visit func(region Region) error) error {
	for i, block := range l.blocks {
		err := visit(Region{
			Index:  i,
			Offset: block.Start,
			Size:   block.Size,
			Owner:  block.Owner,
			Page:   -1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// validateBlocks checks the layout invariants every block table shares: blocks are contiguous
// from offset zero, sizes are positive and add up to the table size, and each process owns at
// most one block.
func (l *blockList) validateBlocks() error {
	if len(l.blocks) == 0 {
		return cerrors.New("the block table is empty")
	}

	owners := make(map[ProcessID]int, len(l.blocks))
	offset := 0
	for i, block := range l.blocks {
		if block.Start != offset {
			return cerrors.Newf("block %d starts at offset %d, expected offset %d", i, block.Start, offset)
		}
		if block.Size <= 0 {
			return cerrors.Newf("block %d at offset %d has non-positive size %d", i, block.Start, block.Size)
		}
		if !block.IsFree() {
			if block.Owner < 0 {
				return cerrors.Newf("block %d has invalid owner %d", i, block.Owner)
			}
			if previous, ok := owners[block.Owner]; ok {
				return cerrors.Newf("process %d owns both block %d and block %d", block.Owner, previous, i)
			}
			owners[block.Owner] = i
		}

		offset = block.End()
	}

	if offset != l.size {
		return cerrors.Newf("block sizes add up to %d, but the table manages %d bytes", offset, l.size)
	}

	return nil
}
