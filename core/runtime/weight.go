package runtime

import (
	"fmt"
	"math"
)

// Weight is the two-dimensional unit of execution resource. RefTime is the
// computation time and ProofSize is the size of the storage proof.
type Weight struct {
	RefTime   uint64 `yaml:"ref_time"`
	ProofSize uint64 `yaml:"proof_size"`
}

// NewWeight returns a new weight.
func NewWeight(refTime, proofSize uint64) Weight {
	return Weight{
		RefTime:   refTime,
		ProofSize: proofSize,
	}
}

// IsZero returns true if both components are zero.
func (w Weight) IsZero() bool {
	return w.RefTime == 0 && w.ProofSize == 0
}

// Add returns the sum of the weights. Each component saturates at the maximum
// value.
func (w Weight) Add(o Weight) Weight {
	return Weight{
		RefTime:   saturatingAdd(w.RefTime, o.RefTime),
		ProofSize: saturatingAdd(w.ProofSize, o.ProofSize),
	}
}

// Sub returns the difference of the weights. Each component saturates at
// zero.
func (w Weight) Sub(o Weight) Weight {
	return Weight{
		RefTime:   saturatingSub(w.RefTime, o.RefTime),
		ProofSize: saturatingSub(w.ProofSize, o.ProofSize),
	}
}

// Mul returns the weight multiplied by the factor. Each component saturates at
// the maximum value.
func (w Weight) Mul(n uint64) Weight {
	return Weight{
		RefTime:   saturatingMul(w.RefTime, n),
		ProofSize: saturatingMul(w.ProofSize, n),
	}
}

// AllLTE returns true if both components are lower or equal to the other
// weight.
func (w Weight) AllLTE(o Weight) bool {
	return w.RefTime <= o.RefTime && w.ProofSize <= o.ProofSize
}

// AnyGT returns true if any of the components is greater than the one of the
// other weight.
func (w Weight) AnyGT(o Weight) bool {
	return !w.AllLTE(o)
}

// Max returns the component-wise maximum of the weights.
func (w Weight) Max(o Weight) Weight {
	res := w
	if o.RefTime > res.RefTime {
		res.RefTime = o.RefTime
	}
	if o.ProofSize > res.ProofSize {
		res.ProofSize = o.ProofSize
	}

	return res
}

// String implements fmt.Stringer.
func (w Weight) String() string {
	return fmt.Sprintf("Weight(ref_time=%d, proof_size=%d)", w.RefTime, w.ProofSize)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}

	return a + b
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}

func saturatingMul(a, n uint64) uint64 {
	if a != 0 && n > math.MaxUint64/a {
		return math.MaxUint64
	}

	return a * n
}
