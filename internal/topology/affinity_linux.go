//go:build linux

package topology

import (
	"golang.org/x/sys/unix"
)

// Pin restricts the calling OS thread to the given kernel CPU. The caller
// must have locked its goroutine to the thread first. Failure is reported
// but tolerated: an unpinned worker still computes correct results.
func Pin(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
