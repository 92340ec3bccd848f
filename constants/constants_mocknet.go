//go:build mocknet

package constants

var DefaultValues = map[ConstantName]int64{
	DefaultComputeBudget: 1_400_000, // proofs verify without an explicit budget
	MaxComputeBudget:     1_400_000,
	MaxLedgerScan:        1_000,
}
