package metadata

import "strconv"

// ProcessID identifies the owner of a region. Valid ids are non-negative.
type ProcessID int

const (
	// NoProcess marks a region that is not owned by any process
	NoProcess ProcessID = -1
)

func (p ProcessID) String() string {
	if p == NoProcess {
		return "none"
	}
	return strconv.Itoa(int(p))
}
