package launch

import (
	"errors"
	"fmt"
)

// =============================================================================
// Host Port Selection
// =============================================================================

// Default host port range offered to launches that do not request an
// explicit port.
const (
	DefaultPortRangeStart = 20000
	DefaultPortRangeEnd   = 29999
)

var (
	ErrPortInUse      = errors.New("requested host port is already in use")
	ErrPortOutOfRange = errors.New("requested host port is out of range")
	ErrRangeExhausted = errors.New("no free host port in range")
)

// PortRange is an inclusive range of host ports available to launches.
type PortRange struct {
	Start int
	End   int
}

// DefaultPortRange returns the default launch port range.
func DefaultPortRange() PortRange {
	return PortRange{Start: DefaultPortRangeStart, End: DefaultPortRangeEnd}
}

// SelectHostPort picks a host port for a launch.
//
// If requested is non-zero it is honored when valid and unused; otherwise
// the lowest free port in the range is chosen. used lists ports already
// assigned to other launches. Pure function: the caller is responsible for
// persisting the assignment atomically.
func SelectHostPort(r PortRange, used []int, requested int) (int, error) {
	inUse := make(map[int]bool, len(used))
	for _, p := range used {
		inUse[p] = true
	}

	if requested != 0 {
		if requested < 1 || requested > 65535 {
			return 0, fmt.Errorf("%w: %d", ErrPortOutOfRange, requested)
		}
		if inUse[requested] {
			return 0, fmt.Errorf("%w: %d", ErrPortInUse, requested)
		}
		return requested, nil
	}

	for p := r.Start; p <= r.End; p++ {
		if !inUse[p] {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %d-%d", ErrRangeExhausted, r.Start, r.End)
}
