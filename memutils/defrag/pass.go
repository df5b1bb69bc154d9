package defrag

import "fmt"

// PassContext is an object used to track data for the current compaction pass across
// multiple relocations
type PassContext struct {
	// MaxPassBytes is the maximum number of bytes to relocate in each pass. Zero means no limit.
	// A pass always makes at least one relocation, even one larger than this budget, so that
	// every run finishes.
	MaxPassBytes int
	// MaxPassAllocations is the maximum number of relocations to perform in each pass. Zero
	// means no limit.
	MaxPassAllocations int
	// Stats contains statistics for the current pass
	Stats DefragmentationStats
}

func (p *PassContext) reset() {
	p.Stats = DefragmentationStats{}
}

func (p *PassContext) checkCounters(bytes int) defragCounterStatus {
	if p.Stats.AllocationsMoved == 0 {
		return defragCounterPass
	}

	if p.MaxPassBytes > 0 && p.Stats.BytesMoved+bytes > p.MaxPassBytes {
		return defragCounterEnd
	}

	return defragCounterPass
}

func (p *PassContext) incrementCounters(bytes int) bool {
	p.Stats.BytesMoved += bytes
	p.Stats.AllocationsMoved++

	if p.MaxPassAllocations > 0 && p.Stats.AllocationsMoved > p.MaxPassAllocations {
		panic(fmt.Sprintf("somehow passed maximum pass allocations: allocs %d, max %d", p.Stats.AllocationsMoved, p.MaxPassAllocations))
	}

	// Early return when max found
	if p.MaxPassAllocations > 0 && p.Stats.AllocationsMoved == p.MaxPassAllocations {
		return true
	}
	return p.MaxPassBytes > 0 && p.Stats.BytesMoved >= p.MaxPassBytes
}
