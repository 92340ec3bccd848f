package constants

// ConstantName represents the names of the network-tunable limits of the
// program.
//
//go:generate stringer -type=ConstantName
type ConstantName int

const (
	// DefaultComputeBudget is applied when a request carries no budget.
	DefaultComputeBudget ConstantName = iota
	// MaxComputeBudget caps any requested budget.
	MaxComputeBudget
	// MaxLedgerScan bounds the number of records one ledger listing returns.
	MaxLedgerScan
)

func FromString(s string) (ConstantName, bool) {
	switch s {
	case "DefaultComputeBudget":
		return DefaultComputeBudget, true
	case "MaxComputeBudget":
		return MaxComputeBudget, true
	case "MaxLedgerScan":
		return MaxLedgerScan, true
	default:
		return 0, false
	}
}

// Uint64 returns the value of name for the current build.
func Uint64(name ConstantName) uint64 {
	v := DefaultValues[name]
	if v < 0 {
		return 0
	}
	return uint64(v)
}
