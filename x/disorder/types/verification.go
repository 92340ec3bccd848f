package types

// FailureReason classifies why a proof was not accepted.
type FailureReason int

const (
	// ReasonNone means the proof was accepted.
	ReasonNone FailureReason = iota
	// ReasonMissing means no proof bytes were supplied.
	ReasonMissing
	// ReasonMalformed means the envelope could not be parsed.
	ReasonMalformed
	// ReasonInvalid means the proof parsed but failed a cryptographic check.
	ReasonInvalid
	// ReasonBudget means the compute budget could not cover verification.
	ReasonBudget
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissing:
		return "missing"
	case ReasonMalformed:
		return "malformed"
	case ReasonInvalid:
		return "invalid"
	case ReasonBudget:
		return "budget"
	default:
		return "unknown"
	}
}

// VerificationResult is the outcome of verifying one proof envelope.
// Err is nil exactly when Valid is true.
type VerificationResult struct {
	Valid  bool
	Reason FailureReason
	Scheme string
	Digest [32]byte
	Err    error
}
