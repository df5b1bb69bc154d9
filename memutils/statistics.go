package memutils

import "math"

// Statistics summarizes the occupancy of one allocator table
type Statistics struct {
	// RegionCount is the number of records (partitions, blocks or frames) in the table
	RegionCount     int
	AllocationCount int
	TotalBytes      int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.RegionCount = 0
	s.AllocationCount = 0
	s.TotalBytes = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.RegionCount += other.RegionCount
	s.AllocationCount += other.AllocationCount
	s.TotalBytes += other.TotalBytes
	s.AllocationBytes += other.AllocationBytes
}

// FreeBytes is the number of bytes not held by any process
func (s *Statistics) FreeBytes() int {
	return s.TotalBytes - s.AllocationBytes
}

// Utilization is the fraction of TotalBytes held by processes, in the range [0, 1]
func (s *Statistics) Utilization() float64 {
	if s.TotalBytes == 0 {
		return 0
	}
	return float64(s.AllocationBytes) / float64(s.TotalBytes)
}

type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.RegionCount++
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.RegionCount++
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

// ExternalFragmentation reports how scattered the free space is: 0 when all free bytes sit in
// one range (or nothing is free), approaching 1 as the largest free range shrinks relative to the
// total free bytes.
func (s *DetailedStatistics) ExternalFragmentation() float64 {
	free := s.FreeBytes()
	if free <= 0 || s.UnusedRangeCount == 0 {
		return 0
	}
	return 1 - float64(s.UnusedRangeSizeMax)/float64(free)
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
