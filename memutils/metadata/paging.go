package metadata

import (
	"fmt"
	"log/slog"

	cerrors "github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/samber/lo"
	"github.com/vkngwrapper/memsim/memutils"
)

// PagingAllocator divides memory into fixed-size frames and gives each resident process a page
// table mapping its logical pages, in order, to frame indices. Allocation is all-or-nothing.
type PagingAllocator struct {
	tableBase

	pageSize   int
	frames     []Frame
	pageTables *swiss.Map[ProcessID, []int]
}

var _ Allocator = &PagingAllocator{}

// NewPagingAllocator creates memorySize / pageSize free frames. Any bytes left over after the
// last whole frame are never used.
func NewPagingAllocator(logger *slog.Logger, memorySize, pageSize int) (*PagingAllocator, error) {
	if err := memutils.CheckPositive(memorySize, "memorySize"); err != nil {
		return nil, err
	}
	if err := memutils.CheckPositive(pageSize, "pageSize"); err != nil {
		return nil, err
	}
	if pageSize > memorySize {
		return nil, cerrors.Wrapf(memutils.ErrExceedsCapacity, "page size %d is larger than memory size %d", pageSize, memorySize)
	}

	frameCount := memorySize / pageSize
	frames := make([]Frame, frameCount)
	for i := range frames {
		frames[i] = Frame{Owner: NoProcess, Page: -1}
	}

	return &PagingAllocator{
		tableBase:  newTableBase(logger, KindPaging, frameCount*pageSize),
		pageSize:   pageSize,
		frames:     frames,
		pageTables: swiss.NewMap[ProcessID, []int](uint32(frameCount)),
	}, nil
}

// PageSize is the size in bytes of every page and frame
func (a *PagingAllocator) PageSize() int { return a.pageSize }

// FrameCount is the number of physical frames in the table
func (a *PagingAllocator) FrameCount() int { return len(a.frames) }

// Frames returns a copy of the frame table in frame-index order
func (a *PagingAllocator) Frames() []Frame {
	return append([]Frame(nil), a.frames...)
}

// FreeFrameCount is the number of frames not held by any process
func (a *PagingAllocator) FreeFrameCount() int {
	return lo.CountBy(a.frames, func(frame Frame) bool { return frame.IsFree() })
}

// PageTable returns a copy of the frame indices holding pid's logical pages, in page order
func (a *PagingAllocator) PageTable(pid ProcessID) ([]int, bool) {
	table, ok := a.pageTables.Get(pid)
	if !ok {
		return nil, false
	}
	return append([]int(nil), table...), true
}

// Allocate maps ceil(size / PageSize) logical pages for pid onto the lowest-numbered free
// frames. If there are not enough free frames nothing is assigned. strategy is ignored.
func (a *PagingAllocator) Allocate(pid ProcessID, size int, strategy FitStrategy) error {
	err := a.checkRequest(pid, size, a.pageTables.Has(pid))
	if err != nil {
		return a.allocationFailed(pid, size, err)
	}

	if size > a.size {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrExceedsCapacity, "process %d needs %d bytes but memory has %d frames of %d bytes", pid, size, len(a.frames), a.pageSize))
	}

	pageCount := memutils.CeilDiv(size, a.pageSize)

	freeFrames := a.FreeFrameCount()
	if freeFrames < pageCount {
		return a.allocationFailed(pid, size,
			cerrors.Wrapf(memutils.ErrNoSpace, "process %d needs %d pages but only %d frames are free", pid, pageCount, freeFrames))
	}

	table := make([]int, 0, pageCount)
	for frameIndex := 0; frameIndex < len(a.frames) && len(table) < pageCount; frameIndex++ {
		if !a.frames[frameIndex].IsFree() {
			continue
		}

		a.frames[frameIndex] = Frame{Owner: pid, Page: len(table)}
		table = append(table, frameIndex)
	}
	a.pageTables.Put(pid, table)

	a.logDebug("allocated pages",
		slog.Int("pid", int(pid)),
		slog.Int("size", size),
		slog.Int("pages", pageCount),
		slog.Any("frames", table))
	memutils.DebugValidate(a)
	return nil
}

func (a *PagingAllocator) Deallocate(pid ProcessID) error {
	table, ok := a.pageTables.Get(pid)
	if !ok {
		return cerrors.Wrapf(memutils.ErrUnknownProcess, "process %d", pid)
	}

	for _, frameIndex := range table {
		a.frames[frameIndex] = Frame{Owner: NoProcess, Page: -1}
	}
	a.pageTables.Delete(pid)

	a.logDebug("freed pages",
		slog.Int("pid", int(pid)),
		slog.Any("frames", table))
	memutils.DebugValidate(a)
	return nil
}

func (a *PagingAllocator) Display() []string {
	lines := make([]string, len(a.frames))
	for i, frame := range a.frames {
		if frame.IsFree() {
			lines[i] = fmt.Sprintf("Frame %d: Free", i)
			continue
		}
		lines[i] = fmt.Sprintf("Frame %d: Occupied by process %d page %d", i, frame.Owner, frame.Page)
	}
	return lines
}

func (a *PagingAllocator) VisitAllRegions(visit func(region Region) error) error {
	for i, frame := range a.frames {
		err := visit(Region{
			Index:  i,
			Offset: i * a.pageSize,
			Size:   a.pageSize,
			Owner:  frame.Owner,
			Page:   frame.Page,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the frame table and the page tables describe the same mapping
func (a *PagingAllocator) Validate() error {
	if len(a.frames)*a.pageSize != a.size {
		return cerrors.Newf("%d frames of %d bytes do not cover the %d bytes the table manages", len(a.frames), a.pageSize, a.size)
	}

	referenced := 0
	var err error
	a.pageTables.Iter(func(pid ProcessID, table []int) bool {
		if len(table) == 0 {
			err = cerrors.Newf("process %d has an empty page table", pid)
			return true
		}

		for page, frameIndex := range table {
			if frameIndex < 0 || frameIndex >= len(a.frames) {
				err = cerrors.Newf("page %d of process %d refers to frame %d, which does not exist", page, pid, frameIndex)
				return true
			}

			frame := a.frames[frameIndex]
			if frame.Owner != pid || frame.Page != page {
				err = cerrors.Newf("page %d of process %d refers to frame %d, which holds page %d of process %s", page, pid, frameIndex, frame.Page, frame.Owner)
				return true
			}
		}

		referenced += len(table)
		return false
	})
	if err != nil {
		return err
	}

	occupied := 0
	for i, frame := range a.frames {
		if frame.IsFree() {
			if frame.Page != -1 {
				return cerrors.Newf("frame %d is free but records page %d", i, frame.Page)
			}
			continue
		}

		if !a.pageTables.Has(frame.Owner) {
			return cerrors.Newf("frame %d is held by process %d, which has no page table", i, frame.Owner)
		}
		occupied++
	}

	if occupied != referenced {
		return cerrors.Newf("%d frames are occupied, but page tables reference %d", occupied, referenced)
	}

	return nil
}

func (a *PagingAllocator) AddStatistics(stats *memutils.Statistics) { statistics(a, stats) }

func (a *PagingAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	detailedStatistics(a, stats)
}

func (a *PagingAllocator) BlockJsonData(json jwriter.ObjectState) {
	json.Name("PageSize").Int(a.pageSize)
	json.Name("ResidentProcesses").Int(a.pageTables.Count())
	blockJsonData(a, json)
}
