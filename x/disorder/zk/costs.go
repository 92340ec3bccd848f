package zk

// Compute units charged while verifying an envelope. Pairing checks dominate;
// PLONK costs more than Groth16 for its extra KZG openings.
const (
	CostEnvelopeByte  uint64 = 10
	CostPublicInput   uint64 = 5_000
	CostVerifyPlonk   uint64 = 1_000_000
	CostVerifyGroth16 uint64 = 650_000
)

// WorstCaseVerifyUnits is the most VerifyEnvelope can charge for any input.
// A budget below it is rejected before any byte is read.
const WorstCaseVerifyUnits = uint64(MaxEnvelopeSize)*CostEnvelopeByte +
	uint64(NbPublicInputs)*CostPublicInput +
	CostVerifyPlonk

// VerifyCost returns the cost of checking one proof of scheme against its
// public inputs.
func VerifyCost(scheme Scheme) uint64 {
	inputs := uint64(NbPublicInputs) * CostPublicInput
	if scheme == SchemeGroth16 {
		return CostVerifyGroth16 + inputs
	}
	return CostVerifyPlonk + inputs
}
