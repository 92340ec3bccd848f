package types

// ComputeMeter is the metering surface handed to the cipher and verifier paths.
type ComputeMeter interface {
	Consume(units uint64, descriptor string)
	Require(units uint64, descriptor string)
	Used() uint64
}

// ProofVerifier defines the expected interface of the verification engine.
type ProofVerifier interface {
	VerifyEnvelope(envelope []byte, meter ComputeMeter) VerificationResult
	KeyDigests() []KeyDigest
}
