package polyhj

import (
	"github.com/cmuq-ccl/polyhj/errors"
	"github.com/cmuq-ccl/polyhj/internal/util"
)

// Model identifies one of the collaborative build/probe variants the engine
// dispatches between after partitioning.
type Model int

const (
	// ModelI joins through a single shared hash table over unpartitioned R.
	ModelI Model = iota + 1
	// ModelII joins through per-LLC hash tables rotated across thread groups.
	ModelII
	// ModelIII joins through a single |R|-sized table partitioned by a
	// high-bit radix on R, probing unpartitioned S.
	ModelIII
	// ModelIV is reserved for asymmetric fanouts with R partitioned finer
	// than S. Plan selection refuses to produce it.
	ModelIV
)

// String returns a textual representation of this Model.
func (m Model) String() string {
	switch m {
	case ModelI:
		return "I"
	case ModelII:
		return "II"
	case ModelIII:
		return "III"
	case ModelIV:
		return "IV"
	default:
		return "?"
	}
}

// Plan is a radix plan: the number of radix bits used to partition each
// relation, and whether the user supplied them. A user-defined plan is never
// rewritten by skew detection.
type Plan struct {
	RBits       uint32
	SBits       uint32
	UserDefined bool
}

// FanoutR returns the number of partitions of relation R under this Plan.
func (p Plan) FanoutR() uint32 { return 1 << p.RBits }

// FanoutS returns the number of partitions of relation S under this Plan.
func (p Plan) FanoutS() uint32 { return 1 << p.SBits }

// MaskR returns the partition mask for relation R.
func (p Plan) MaskR() uint32 { return p.FanoutR() - 1 }

// MaskS returns the partition mask for relation S.
func (p Plan) MaskS() uint32 { return p.FanoutS() - 1 }

// Model maps this Plan's fanouts to the build/probe model they imply.
func (p Plan) Model() Model {
	switch {
	case p.RBits == 0 && p.SBits == 0:
		return ModelI
	case p.RBits == p.SBits:
		return ModelII
	case p.SBits == 0:
		return ModelIII
	default:
		return ModelIV
	}
}

// ChoosePlan selects a radix plan from the build-side size and the LLC size.
// R small enough to fit in an LLC with slack runs unpartitioned (Model I);
// otherwise both relations are partitioned at a fanout that makes each
// R-partition's hash table fit in roughly two thirds of an LLC (Model II).
// Skew detection during partitioning of S may later demote the plan to
// Model III.
func ChoosePlan(sizeR int, llcSize uint64) Plan {
	tableBytes := uint64(sizeR) * BucketSize
	if tableBytes <= llcSize*6/5 {
		return Plan{}
	}
	ratio := util.DivCeil(int(tableBytes), int(llcSize*2/3))
	bits := util.LgCeil(uint32(ratio))
	return Plan{RBits: bits, SBits: bits}
}

// Validate checks that this Plan is one the engine can execute with the
// given number of LLC groups.
func (p Plan) Validate(numGroups int) error {
	if p.RBits > p.SBits && p.SBits > 0 {
		return errors.PlanError{
			Reason: "asymmetric fanouts with partitioned S are not supported",
		}
	}
	if p.RBits > 0 && p.FanoutR()%uint32(numGroups) != 0 {
		return errors.PlanError{
			Reason: "fanout of R is not divisible by the number of LLC groups",
		}
	}
	if p.SBits > 0 && p.FanoutS()%uint32(numGroups) != 0 {
		return errors.PlanError{
			Reason: "fanout of S is not divisible by the number of LLC groups",
		}
	}
	return nil
}
