package sandbox

import "go.dedis.ch/inkconn/core/runtime"

// meter keeps track of the weight consumed by an execution.
type meter struct {
	limit     runtime.Weight
	consumed  runtime.Weight
	required  runtime.Weight
	exhausted bool
}

func newMeter(limit runtime.Weight) *meter {
	return &meter{limit: limit}
}

// charge adds the weight to the consumption. It fails without consuming the
// weight when the limit would be exceeded, and the meter stays exhausted.
func (m *meter) charge(w runtime.Weight) error {
	if m.exhausted {
		return ErrOutOfGas
	}

	next := m.consumed.Add(w)

	m.required = m.required.Max(next)

	if next.AnyGT(m.limit) {
		m.exhausted = true
		return ErrOutOfGas
	}

	m.consumed = next

	return nil
}
