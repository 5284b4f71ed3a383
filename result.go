package polyhj

import "time"

// Result is the outcome of a join run: the number of probe-side matches and
// a checksum over built keys and matched payloads. The join result itself is
// not materialized; matches' payloads are located and accessed, which is the
// standard measurement protocol for in-memory join kernels.
type Result struct {
	Matches  uint64
	Checksum uint64

	Model     Model // the model the run finished under, after any rewrite
	Rewritten bool  // true iff skew detection rewrote the plan mid-run

	PartitionTime  time.Duration
	BuildProbeTime time.Duration
	TotalTime      time.Duration
}
