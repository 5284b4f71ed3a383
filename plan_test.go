package polyhj

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmuq-ccl/polyhj/errors"
)

func TestChoosePlanSmallRStaysUnpartitioned(t *testing.T) {
	llc := uint64(32 * 1024 * 1024)
	// table of |R|+ buckets fits in 6/5 of the LLC
	plan := ChoosePlan(1<<20, llc)
	require.Equal(t, uint32(0), plan.RBits)
	require.Equal(t, uint32(0), plan.SBits)
	require.Equal(t, ModelI, plan.Model())
}

func TestChoosePlanPartitionsLargeR(t *testing.T) {
	llc := uint64(32 * 1024 * 1024)
	sizeR := 128 * 1000 * 100 // default benchmark size
	plan := ChoosePlan(sizeR, llc)
	require.Greater(t, plan.RBits, uint32(0))
	require.Equal(t, plan.RBits, plan.SBits)
	require.Equal(t, ModelII, plan.Model())
	// each partition's table fits in 2/3 of the LLC
	perPartition := uint64(sizeR) / uint64(plan.FanoutR()) * BucketSize
	require.LessOrEqual(t, perPartition, llc*2/3)
}

func TestPlanModelMapping(t *testing.T) {
	require.Equal(t, ModelI, Plan{}.Model())
	require.Equal(t, ModelII, Plan{RBits: 4, SBits: 4}.Model())
	require.Equal(t, ModelIII, Plan{RBits: 4}.Model())
	require.Equal(t, ModelIV, Plan{RBits: 4, SBits: 2}.Model())
}

func TestPlanValidate(t *testing.T) {
	require.Nil(t, Plan{RBits: 4, SBits: 4}.Validate(4))
	require.Nil(t, Plan{}.Validate(3))

	err := Plan{RBits: 4, SBits: 2}.Validate(2)
	require.NotNil(t, err)
	require.IsType(t, errors.PlanError{}, err)

	// fanout 4 does not divide across 3 groups
	err = Plan{RBits: 2, SBits: 2}.Validate(3)
	require.NotNil(t, err)
	require.IsType(t, errors.PlanError{}, err)
}

func TestPlanMasks(t *testing.T) {
	p := Plan{RBits: 3, SBits: 2}
	require.Equal(t, uint32(8), p.FanoutR())
	require.Equal(t, uint32(4), p.FanoutS())
	require.Equal(t, uint32(7), p.MaskR())
	require.Equal(t, uint32(3), p.MaskS())
}
