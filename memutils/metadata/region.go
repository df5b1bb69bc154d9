package metadata

import "fmt"

// Partition is one slot of a fixed or unequal partition table. Its identity is its index.
type Partition struct {
	Size  int
	Owner ProcessID
}

func (p Partition) IsFree() bool { return p.Owner == NoProcess }

// Block is one contiguous range of a dynamic or buddy table
type Block struct {
	Start int
	Size  int
	Owner ProcessID
}

func (b Block) IsFree() bool { return b.Owner == NoProcess }

// End is the offset one past the last byte of the block
func (b Block) End() int { return b.Start + b.Size }

// Frame is one fixed-size physical frame of a paging table
type Frame struct {
	Owner ProcessID
	// Page is the logical page held in this frame, or -1 while the frame is free
	Page int
}

func (f Frame) IsFree() bool { return f.Owner == NoProcess }

// Region is the allocator-independent view of one record that is handed to
// Allocator.VisitAllRegions callbacks
type Region struct {
	Index  int
	Offset int
	Size   int
	Owner  ProcessID
	// Page is the logical page number for paging frames and -1 everywhere else
	Page int
}

func (r Region) IsFree() bool { return r.Owner == NoProcess }

func ownerStatus(owner ProcessID) string {
	if owner == NoProcess {
		return "Free"
	}
	return fmt.Sprintf("Occupied by process %d", owner)
}

// Relocation describes one occupied block slid down into the free space before it
type Relocation struct {
	Owner ProcessID
	Size  int
	// From is the block's start offset before the move and To the start offset after it
	From int
	To   int
}
