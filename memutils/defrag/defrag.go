package defrag

type defragCounterStatus uint32

const (
	defragCounterPass defragCounterStatus = iota
	defragCounterEnd
)

// DefragmentationStats contains basic metrics for compaction over time
type DefragmentationStats struct {
	// BytesMoved is the number of bytes that have been relocated
	BytesMoved int
	// AllocationsMoved is the number of relocations performed
	AllocationsMoved int
	// Passes is the number of passes that moved at least one allocation
	Passes int
}

func (s *DefragmentationStats) Add(stats DefragmentationStats) {
	s.BytesMoved += stats.BytesMoved
	s.AllocationsMoved += stats.AllocationsMoved
	s.Passes += stats.Passes
}
