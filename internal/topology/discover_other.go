//go:build !linux

package topology

import "runtime"

// Discover has no sysfs to read on this platform; it assumes a flat
// single-LLC topology over all visible CPUs.
func Discover() *Topology {
	return Synthetic(1, runtime.NumCPU(), 1)
}
