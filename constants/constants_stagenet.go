//go:build stagenet

package constants

var DefaultValues = map[ConstantName]int64{
	DefaultComputeBudget: 200_000,
	MaxComputeBudget:     1_400_000,
	MaxLedgerScan:        500,
}
