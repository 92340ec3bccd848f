// Package budget enforces the compute budget of a single instruction.
//
// Work is accounted on a cosmos-sdk gas meter. Charging past the limit panics
// with storetypes.ErrorOutOfGas, which Guard turns into ErrComputeExhausted
// after discarding everything the guarded function computed.
package budget

import (
	storetypes "cosmossdk.io/store/types"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// Meter counts compute units against a fixed limit.
type Meter struct {
	gas storetypes.GasMeter
}

var _ types.ComputeMeter = (*Meter)(nil)

// NewMeter returns a meter with the given limit.
func NewMeter(limit uint64) *Meter {
	return &Meter{gas: storetypes.NewGasMeter(limit)}
}

// Consume charges units. It panics with storetypes.ErrorOutOfGas when the
// limit is crossed; call it only inside Guard.
func (m *Meter) Consume(units uint64, descriptor string) {
	m.gas.ConsumeGas(units, descriptor)
}

// Require aborts unless at least units remain. Nothing is charged.
func (m *Meter) Require(units uint64, descriptor string) {
	if m.gas.GasRemaining() < units {
		panic(storetypes.ErrorOutOfGas{Descriptor: descriptor})
	}
}

// Used returns the units consumed so far, capped at the limit.
func (m *Meter) Used() uint64 {
	return m.gas.GasConsumedToLimit()
}

// Limit returns the meter's limit.
func (m *Meter) Limit() uint64 {
	return m.gas.Limit()
}

// Remaining returns the units still available.
func (m *Meter) Remaining() uint64 {
	return m.gas.GasRemaining()
}

// Guard runs fn against a fresh meter of the given limit. If fn runs out of
// budget, Guard returns ErrComputeExhausted and fn's partial results are lost
// with its stack. Other panics are not recovered.
func Guard(limit uint64, fn func(m *Meter) error) (used uint64, err error) {
	m := NewMeter(limit)
	defer func() {
		if r := recover(); r != nil {
			var descriptor string
			switch rType := r.(type) {
			case storetypes.ErrorOutOfGas:
				descriptor = rType.Descriptor
			case storetypes.ErrorGasOverflow:
				descriptor = rType.Descriptor
			default:
				panic(r)
			}
			used = m.Used()
			err = types.ErrComputeExhausted.Wrapf(
				"out of compute in location: %s; limit: %d, used: %d", descriptor, limit, used)
		}
	}()

	err = fn(m)
	return m.Used(), err
}
