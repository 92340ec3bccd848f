package types

import "time"

// Instruction names, matching the program's call surface.
const (
	InstructionInitialize  = "initialize"
	InstructionEncryptSim  = "encryptSim"
	InstructionDecryptSim  = "decryptSim"
	InstructionVerifyProof = "verifyProof"
)

// Mode selects whether an instruction records its result in the ledger or
// only returns it. Both modes run the same computation.
type Mode int

const (
	// ModeCommit records the result atomically after a successful run.
	ModeCommit Mode = iota
	// ModeSimulate returns the result without touching the ledger.
	ModeSimulate
)

func (m Mode) String() string {
	switch m {
	case ModeCommit:
		return "commit"
	case ModeSimulate:
		return "simulate"
	default:
		return "unknown"
	}
}

// CipherRequest is the input of encryptSim and decryptSim. Input is the
// plaintext for encryptSim and the ciphertext for decryptSim.
type CipherRequest struct {
	Key           Key
	IV            IV
	Input         Block
	Mode          Mode
	ComputeBudget uint64
}

// CipherResponse is the output of encryptSim and decryptSim.
type CipherResponse struct {
	Output      Block
	ComputeUsed uint64
	Committed   bool
	LedgerSeq   uint64
}

// VerifyRequest is the input of verifyProof.
type VerifyRequest struct {
	Proof         []byte
	Mode          Mode
	ComputeBudget uint64
}

// VerifyResponse is returned only when the proof was accepted.
type VerifyResponse struct {
	Digest      [32]byte
	Scheme      string
	ComputeUsed uint64
	Committed   bool
	LedgerSeq   uint64
}

// KeyDigest identifies an embedded verifying key by its BLAKE2b-256 digest.
type KeyDigest struct {
	Scheme string `json:"scheme"`
	Digest string `json:"digest"`
}

// ProgramInfo is written once by the initialize instruction.
type ProgramInfo struct {
	Version       string      `json:"version"`
	VerifyingKeys []KeyDigest `json:"verifying_keys"`
	InitializedAt time.Time   `json:"initialized_at"`
}

// Record is a committed instruction result. Secret keys are never part of it.
type Record struct {
	Seq         uint64    `json:"seq"`
	Instruction string    `json:"instruction"`
	IV          *IV       `json:"iv,omitempty"`
	Input       *Block    `json:"input,omitempty"`
	Output      *Block    `json:"output,omitempty"`
	ProofDigest string    `json:"proof_digest,omitempty"`
	Scheme      string    `json:"scheme,omitempty"`
	ComputeUsed uint64    `json:"compute_used"`
	CommittedAt time.Time `json:"committed_at"`
}
