package zk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/plonk"
	"golang.org/x/crypto/blake2b"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// Envelope layout (big-endian):
//
//	magic      [4]  "NYXD"
//	version    [1]  EnvelopeVersion
//	scheme     [1]  Scheme
//	proofLen   [4]  uint32, MinProofDataLen..MaxProofDataLen
//	proof      [proofLen]
//	statement  [StatementLen]  iv0 iv1 pt0 pt1 ct0 ct1 (uint64) commitment (32)
const (
	EnvelopeMagic   = "NYXD"
	EnvelopeVersion = uint8(1)

	envelopeHeaderLen = len(EnvelopeMagic) + 1 + 1 + 4

	// StatementLen is the encoded size of a Statement.
	StatementLen = 3*types.BlockWords*8 + fr.Bytes

	// MinProofDataLen is below the smallest BN254 Groth16 proof.
	MinProofDataLen = 128
	// MaxProofDataLen bounds the proof section. PLONK proofs for this
	// circuit are under 1KB.
	MaxProofDataLen = 4096

	MinEnvelopeSize = envelopeHeaderLen + MinProofDataLen + StatementLen
	MaxEnvelopeSize = envelopeHeaderLen + MaxProofDataLen + StatementLen
)

// groth16ProofLen is the encoded size of a compressed Groth16 proof without
// commitments, the only shape DisorderCircuit produces.
var groth16ProofLen = func() int {
	b, err := SerializeKey(groth16.NewProof(ecc.BN254))
	if err != nil {
		panic(err)
	}
	return len(b)
}()

// Scheme identifies the proof system an envelope carries.
type Scheme uint8

const (
	SchemeUnknown Scheme = iota
	SchemePlonk
	SchemeGroth16
)

// Schemes lists the supported proof systems.
var Schemes = []Scheme{SchemePlonk, SchemeGroth16}

func (s Scheme) String() string {
	switch s {
	case SchemePlonk:
		return "plonk"
	case SchemeGroth16:
		return "groth16"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseScheme parses a scheme name.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case "plonk":
		return SchemePlonk, nil
	case "groth16":
		return SchemeGroth16, nil
	default:
		return SchemeUnknown, fmt.Errorf("unknown proof scheme %q", name)
	}
}

// ParsedProof is a structurally valid envelope. Parsing says nothing about
// validity; that is Verifier's job.
type ParsedProof struct {
	Scheme    Scheme
	Statement Statement
	// Digest is BLAKE2b-256 of the whole envelope.
	Digest [32]byte

	plonkProof   plonk.Proof
	groth16Proof groth16.Proof
}

// EncodeProof wraps a gnark proof and its statement in an envelope.
func EncodeProof(scheme Scheme, proof io.WriterTo, st Statement) ([]byte, error) {
	if scheme != SchemePlonk && scheme != SchemeGroth16 {
		return nil, fmt.Errorf("unsupported scheme %s", scheme)
	}
	var pb bytes.Buffer
	if _, err := proof.WriteTo(&pb); err != nil {
		return nil, fmt.Errorf("failed to serialize %s proof: %w", scheme, err)
	}
	if pb.Len() < MinProofDataLen || pb.Len() > MaxProofDataLen {
		return nil, fmt.Errorf("%s proof is %d bytes, outside [%d, %d]", scheme, pb.Len(), MinProofDataLen, MaxProofDataLen)
	}

	out := make([]byte, 0, envelopeHeaderLen+pb.Len()+StatementLen)
	out = append(out, EnvelopeMagic...)
	out = append(out, EnvelopeVersion, byte(scheme))
	out = binary.BigEndian.AppendUint32(out, uint32(pb.Len()))
	out = append(out, pb.Bytes()...)
	return appendStatement(out, st), nil
}

func appendStatement(out []byte, st Statement) []byte {
	for _, words := range [][types.BlockWords]uint64{st.IV, st.Plaintext, st.Ciphertext} {
		for _, w := range words {
			out = binary.BigEndian.AppendUint64(out, w)
		}
	}
	return append(out, st.KeyCommitment[:]...)
}

// ParseProof decodes an envelope. Every length is checked before it is used
// and every byte must be consumed; any deviation is ErrParse.
func ParseProof(data []byte) (*ParsedProof, error) {
	if len(data) < MinEnvelopeSize || len(data) > MaxEnvelopeSize {
		return nil, types.ErrParse.Wrapf("envelope length %d outside [%d, %d]", len(data), MinEnvelopeSize, MaxEnvelopeSize)
	}
	if string(data[:len(EnvelopeMagic)]) != EnvelopeMagic {
		return nil, types.ErrParse.Wrap("bad envelope magic")
	}
	off := len(EnvelopeMagic)
	if v := data[off]; v != EnvelopeVersion {
		return nil, types.ErrParse.Wrapf("unsupported envelope version %d", v)
	}
	scheme := Scheme(data[off+1])
	if scheme != SchemePlonk && scheme != SchemeGroth16 {
		return nil, types.ErrParse.Wrapf("unsupported scheme %d", uint8(scheme))
	}
	proofLen := int(binary.BigEndian.Uint32(data[off+2 : envelopeHeaderLen]))
	if proofLen < MinProofDataLen || proofLen > MaxProofDataLen {
		return nil, types.ErrParse.Wrapf("proof length %d outside [%d, %d]", proofLen, MinProofDataLen, MaxProofDataLen)
	}
	if scheme == SchemeGroth16 && proofLen != groth16ProofLen {
		return nil, types.ErrParse.Wrapf("groth16 proof length %d, want %d", proofLen, groth16ProofLen)
	}
	if len(data) != envelopeHeaderLen+proofLen+StatementLen {
		return nil, types.ErrParse.Wrapf("envelope length %d does not match proof length %d", len(data), proofLen)
	}

	proofBytes := data[envelopeHeaderLen : envelopeHeaderLen+proofLen]
	if err := checkProofLayout(scheme, proofBytes); err != nil {
		return nil, err
	}

	p := &ParsedProof{Scheme: scheme, Digest: blake2b.Sum256(data)}
	st, err := decodeStatement(data[envelopeHeaderLen+proofLen:])
	if err != nil {
		return nil, err
	}
	p.Statement = st

	var proof io.ReaderFrom
	switch scheme {
	case SchemePlonk:
		p.plonkProof = plonk.NewProof(ecc.BN254)
		proof = p.plonkProof
	case SchemeGroth16:
		p.groth16Proof = groth16.NewProof(ecc.BN254)
		proof = p.groth16Proof
	}
	r := bytes.NewReader(proofBytes)
	if _, err := proof.ReadFrom(r); err != nil {
		return nil, types.ErrParse.Wrapf("decode %s proof: %v", scheme, err)
	}
	if r.Len() != 0 {
		return nil, types.ErrParse.Wrapf("%s proof has %d trailing bytes", scheme, r.Len())
	}
	if p.groth16Proof != nil {
		if err := checkGroth16Proof(p.groth16Proof); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Compressed point sizes and the encoding flags carried in the top two bits of
// a point's first byte.
const (
	g1Len = 32
	g2Len = 64

	pointFlagMask         byte = 0b11 << 6
	pointFlagUncompressed byte = 0b00 << 6
)

// checkProofLayout walks the compressed gnark encoding of proof and checks
// every embedded slice length against the bytes that are actually present.
// The gnark decoders allocate from those prefixes before reading any element,
// so they must never see one that the proof section cannot back.
func checkProofLayout(scheme Scheme, proof []byte) error {
	switch scheme {
	case SchemeGroth16:
		return checkGroth16Layout(proof)
	case SchemePlonk:
		return checkPlonkLayout(proof)
	default:
		return types.ErrParse.Wrapf("unsupported scheme %d", uint8(scheme))
	}
}

// Groth16: Ar (G1) | Bs (G2) | Krs (G1) | len(Commitments) u32 | CommitmentPok (G1).
func checkGroth16Layout(proof []byte) error {
	const countOff = g1Len + g2Len + g1Len
	if len(proof) != countOff+4+g1Len {
		return types.ErrParse.Wrapf("groth16 proof length %d, want %d", len(proof), countOff+4+g1Len)
	}
	for _, off := range []int{0, g1Len, g1Len + g2Len, countOff + 4} {
		if err := checkCompressed(proof, off); err != nil {
			return err
		}
	}
	if n := binary.BigEndian.Uint32(proof[countOff:]); n != 0 {
		return types.ErrParse.Wrapf("groth16 proof carries %d commitments, want 0", n)
	}
	return nil
}

// PLONK: LRO, Z, H (7 G1) | BatchedProof.H (G1) | ClaimedValues (u32 + n*fr) |
// ZShiftedOpening.H (G1) | ZShiftedOpening.ClaimedValue (fr) |
// Bsb22Commitments (u32 + m*G1).
func checkPlonkLayout(proof []byte) error {
	const claimedOff = 8 * g1Len
	size := uint64(len(proof))
	if size < claimedOff+4 {
		return types.ErrParse.Wrapf("plonk proof length %d is too short", size)
	}
	for i := 0; i < 8; i++ {
		if err := checkCompressed(proof, i*g1Len); err != nil {
			return err
		}
	}

	nClaimed := uint64(binary.BigEndian.Uint32(proof[claimedOff:]))
	shiftedOff := claimedOff + 4 + nClaimed*fr.Bytes
	bsbOff := shiftedOff + g1Len + fr.Bytes
	if bsbOff+4 > size {
		return types.ErrParse.Wrapf("plonk proof declares %d claimed values, only %d bytes present", nClaimed, size)
	}
	if err := checkCompressed(proof, int(shiftedOff)); err != nil {
		return err
	}

	nBsb := uint64(binary.BigEndian.Uint32(proof[bsbOff:]))
	if bsbOff+4+nBsb*g1Len != size {
		return types.ErrParse.Wrapf("plonk proof declares %d bsb22 commitments, %d bytes remain", nBsb, size-bsbOff-4)
	}
	for i := uint64(0); i < nBsb; i++ {
		if err := checkCompressed(proof, int(bsbOff+4+i*g1Len)); err != nil {
			return err
		}
	}
	return nil
}

func checkCompressed(proof []byte, off int) error {
	if proof[off]&pointFlagMask == pointFlagUncompressed {
		return types.ErrParse.Wrapf("uncompressed point at proof offset %d", off)
	}
	return nil
}

// checkGroth16Proof rejects commitment data the circuit never produces. The
// verifier skips the knowledge proof when there are no commitments, so a
// non-identity value there would make the envelope malleable.
func checkGroth16Proof(proof groth16.Proof) error {
	bp, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return types.ErrParse.Wrapf("unexpected groth16 proof type %T", proof)
	}
	if len(bp.Commitments) != 0 {
		return types.ErrParse.Wrapf("groth16 proof carries %d commitments, want 0", len(bp.Commitments))
	}
	if !bp.CommitmentPok.IsInfinity() {
		return types.ErrParse.Wrap("groth16 proof carries a commitment knowledge proof")
	}
	return nil
}

func decodeStatement(b []byte) (Statement, error) {
	var st Statement
	if len(b) != StatementLen {
		return st, types.ErrParse.Wrapf("statement length %d, want %d", len(b), StatementLen)
	}
	var words [3 * types.BlockWords]uint64
	for i := range words {
		words[i] = binary.BigEndian.Uint64(b[i*8:])
	}
	copy(st.IV[:], words[0:2])
	copy(st.Plaintext[:], words[2:4])
	copy(st.Ciphertext[:], words[4:6])
	copy(st.KeyCommitment[:], b[3*types.BlockWords*8:])

	var e fr.Element
	if err := e.SetBytesCanonical(st.KeyCommitment[:]); err != nil {
		return st, types.ErrParse.Wrapf("key commitment is not a canonical field element: %v", err)
	}
	return st, nil
}
