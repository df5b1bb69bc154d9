package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrExceedsCapacity is returned when a request is larger than any region the allocator could ever hand out
	ErrExceedsCapacity = errors.New("request exceeds region capacity")
	// ErrNoSpace is returned when no free region satisfies the request under the chosen policy
	ErrNoSpace = errors.New("no suitable region found")
	// ErrUnknownProcess is returned when deallocating a process that holds no memory
	ErrUnknownProcess = errors.New("process not found in memory")
	// ErrUnknownStrategy is returned for fit strategy values or tokens that are not recognized
	ErrUnknownStrategy = errors.New("unknown allocation strategy")
	// ErrProcessExists is returned when allocating for a process that already holds memory
	ErrProcessExists = errors.New("process already holds memory")
	// ErrInvalidSize is returned for non-positive request or construction sizes
	ErrInvalidSize = errors.New("size must be positive")
	// ErrInvalidProcess is returned for negative process ids
	ErrInvalidProcess = errors.New("process id must not be negative")
)
