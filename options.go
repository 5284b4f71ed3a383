package polyhj

import (
	multierror "github.com/hashicorp/go-multierror"

	"github.com/cmuq-ccl/polyhj/errors"
)

// Default relation sizes and seeds, matching the engine's benchmark
// configuration: 12.8M 8-byte tuples per side.
const (
	DefaultSizeR = 128 * 1000 * 100
	DefaultSizeS = 128 * 1000 * 100
	DefaultSeedR = 12345
	DefaultSeedS = 54321
)

// Options configures a join run.
type Options struct {
	Threads int // number of worker threads; 0 means one per hardware thread

	SizeR int     // build-side tuples
	SizeS int     // probe-side tuples
	Skew  float64 // Zipf exponent for S's foreign keys; 0 means uniform
	SeedR uint32
	SeedS uint32

	// RadixR/RadixS override the automatically selected plan when
	// UserDefined is set; they are ignored otherwise. A user-defined plan is
	// never rewritten by skew detection.
	RadixR      uint32
	RadixS      uint32
	UserDefined bool

	FavorPhysicalCores bool // one hardware thread per core when cores suffice

	// KeyAsPayload stores keys in table cells instead of payloads; matches
	// then count exact-key hits and the checksum reflects keys twice.
	KeyAsPayload bool

	TopologyPath string // optional JSON topology override
	Verbose      bool
}

// DefaultOptions returns the engine's default configuration.
func DefaultOptions() *Options {
	return &Options{
		SizeR:              DefaultSizeR,
		SizeS:              DefaultSizeS,
		SeedR:              DefaultSeedR,
		SeedS:              DefaultSeedS,
		FavorPhysicalCores: true,
	}
}

// Validate checks this Options for violations, aggregating all of them
// rather than stopping at the first.
func (o *Options) Validate() error {
	var result *multierror.Error
	if o.Threads < 0 {
		result = multierror.Append(result, errors.ConfigError{Field: "Threads", Reason: "must be non-negative"})
	}
	if o.SizeR <= 0 {
		result = multierror.Append(result, errors.ConfigError{Field: "SizeR", Reason: "must be positive"})
	}
	if o.SizeS <= 0 {
		result = multierror.Append(result, errors.ConfigError{Field: "SizeS", Reason: "must be positive"})
	}
	if o.Skew < 0 {
		result = multierror.Append(result, errors.ConfigError{Field: "Skew", Reason: "must be non-negative"})
	}
	if o.UserDefined && o.RadixR < o.RadixS {
		result = multierror.Append(result, errors.ConfigError{Field: "RadixS", Reason: "must not exceed RadixR"})
	}
	if o.UserDefined && o.RadixR > o.RadixS && o.RadixS > 0 {
		result = multierror.Append(result, errors.ConfigError{Field: "RadixS", Reason: "asymmetric partitioned fanouts are not supported"})
	}
	return result.ErrorOrNil()
}

// Plan returns the radix plan implied by this Options: the user-supplied
// radices when set, otherwise a zero Plan to be filled by ChoosePlan.
func (o *Options) Plan() Plan {
	if o.UserDefined {
		return Plan{RBits: o.RadixR, SBits: o.RadixS, UserDefined: true}
	}
	return Plan{}
}
