package types

import (
	errorsmod "cosmossdk.io/errors"
)

// x/disorder module sentinel errors
var (
	ErrInvalidInputSize   = errorsmod.Register(ModuleName, 2, "invalid input size")
	ErrParse              = errorsmod.Register(ModuleName, 3, "the provided data could not be deserialized")
	ErrVerificationFailed = errorsmod.Register(ModuleName, 4, "hyperchaotic trace verification failed, zk-disorder proof is invalid")
	ErrComputeExhausted   = errorsmod.Register(ModuleName, 5, "compute budget exhausted")
	ErrMissingProof       = errorsmod.Register(ModuleName, 6, "no proof supplied")
	ErrNotInitialized     = errorsmod.Register(ModuleName, 7, "verifier not initialized")
	ErrLedger             = errorsmod.Register(ModuleName, 8, "ledger failure")
	ErrRecordNotFound     = errorsmod.Register(ModuleName, 9, "record not found")
)
