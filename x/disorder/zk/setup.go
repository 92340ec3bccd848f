package zk

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	ptau "github.com/mdehoog/gnark-ptau"
	"golang.org/x/crypto/blake2b"
)

const (
	// HermezPtauURL is the URL template of the Hermez Powers of Tau files.
	HermezPtauURL = "https://storage.googleapis.com/zkevm/ptau/powersOfTau28_hez_final_%02d.ptau"

	// DefaultPtauPower is the power of the published ceremony file used by
	// default. DisorderCircuit needs far fewer than 2^21 constraints.
	DefaultPtauPower = 21
)

// Blake2b-512 of the Hermez ceremony outputs, from the snarkjs README.
var ptauBlake2bHashes = map[int]string{
	21: "9aef0573cef4ded9c4a75f148709056bf989f80dad96876aadeb6f1c6d062391f07a394a9e756d16f7eb233198d5b69407cca44594c763ab4a5b67ae73254678",
}

// Setup file names inside a per-scheme directory.
const (
	FileConstraintSystem = "circuit.cs"
	FileProvingKey       = "proving.key"
	FileVerifyingKey     = "verifying.key"
	FileVerifyingKeyHex  = "verifying.key.hex"
)

// SetupResult holds a compiled circuit and the keys of one scheme. Only the
// key pair matching Scheme is set.
type SetupResult struct {
	Scheme           Scheme
	ConstraintSystem constraint.ConstraintSystem

	PlonkProvingKey     plonk.ProvingKey
	PlonkVerifyingKey   plonk.VerifyingKey
	Groth16ProvingKey   groth16.ProvingKey
	Groth16VerifyingKey groth16.VerifyingKey
}

// ProvingKey returns the scheme's proving key.
func (s *SetupResult) ProvingKey() io.WriterTo {
	if s.Scheme == SchemeGroth16 {
		return s.Groth16ProvingKey
	}
	return s.PlonkProvingKey
}

// VerifyingKey returns the scheme's verifying key.
func (s *SetupResult) VerifyingKey() io.WriterTo {
	if s.Scheme == SchemeGroth16 {
		return s.Groth16VerifyingKey
	}
	return s.PlonkVerifyingKey
}

// VerifyingKeys returns the result as a single-scheme key set.
func (s *SetupResult) VerifyingKeys() VerifyingKeys {
	return VerifyingKeys{Plonk: s.PlonkVerifyingKey, Groth16: s.Groth16VerifyingKey}
}

// SetupMode specifies how the PLONK SRS is obtained. Groth16 always runs a
// local single-party setup.
type SetupMode int

const (
	// SetupModeTest uses an unsafe test SRS (development only)
	SetupModeTest SetupMode = iota
	// SetupModeFile loads the SRS from files
	SetupModeFile
	// SetupModeDownload downloads and caches the Hermez Powers of Tau
	SetupModeDownload
)

// ParseSetupMode parses "test", "file" or "download".
func ParseSetupMode(s string) (SetupMode, error) {
	switch s {
	case "test":
		return SetupModeTest, nil
	case "file":
		return SetupModeFile, nil
	case "download":
		return SetupModeDownload, nil
	default:
		return 0, fmt.Errorf("unknown setup mode %q", s)
	}
}

// SetupOptions configures the setup process.
type SetupOptions struct {
	Mode SetupMode
	// SRSPath and SRSLagrangePath are read in SetupModeFile.
	SRSPath         string
	SRSLagrangePath string
	// CacheDir holds downloaded and converted SRS files.
	CacheDir  string
	PtauPower int
}

// DefaultSetupOptions downloads and caches the Hermez SRS.
func DefaultSetupOptions() SetupOptions {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return SetupOptions{
		Mode:      SetupModeDownload,
		CacheDir:  filepath.Join(homeDir, ".disorder", "zk-cache"),
		PtauPower: DefaultPtauPower,
	}
}

// TestSetupOptions uses an unsafe in-memory SRS. Never use it outside tests
// and local networks.
func TestSetupOptions() SetupOptions {
	return SetupOptions{Mode: SetupModeTest}
}

// CompileCircuit compiles DisorderCircuit for scheme: a sparse system for
// PLONK, R1CS for Groth16.
func CompileCircuit(scheme Scheme) (constraint.ConstraintSystem, error) {
	var builder frontend.NewBuilder
	switch scheme {
	case SchemePlonk:
		builder = scs.NewBuilder
	case SchemeGroth16:
		builder = r1cs.NewBuilder
	default:
		return nil, fmt.Errorf("unsupported scheme %s", scheme)
	}
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), builder, &DisorderCircuit{})
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}
	logger.Info().Str("scheme", scheme.String()).Int("constraints", cs.GetNbConstraints()).Msg("circuit compiled")
	return cs, nil
}

// Setup compiles the circuit and generates keys for scheme.
func Setup(scheme Scheme, opts SetupOptions) (*SetupResult, error) {
	cs, err := CompileCircuit(scheme)
	if err != nil {
		return nil, err
	}
	res := &SetupResult{Scheme: scheme, ConstraintSystem: cs}

	if scheme == SchemeGroth16 {
		res.Groth16ProvingKey, res.Groth16VerifyingKey, err = groth16.Setup(cs)
		if err != nil {
			return nil, fmt.Errorf("failed to run Groth16 setup: %w", err)
		}
		return res, nil
	}

	srs, srsLagrange, err := loadSRS(cs, opts)
	if err != nil {
		return nil, err
	}
	res.PlonkProvingKey, res.PlonkVerifyingKey, err = plonk.Setup(cs, srs, srsLagrange)
	if err != nil {
		return nil, fmt.Errorf("failed to run PLONK setup: %w", err)
	}
	return res, nil
}

func loadSRS(cs constraint.ConstraintSystem, opts SetupOptions) (*kzg.SRS, *kzg.SRS, error) {
	switch opts.Mode {
	case SetupModeTest:
		srsCanon, srsLag, err := unsafekzg.NewSRS(cs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate test SRS: %w", err)
		}
		return srsCanon.(*kzg.SRS), srsLag.(*kzg.SRS), nil

	case SetupModeFile:
		srs, err := LoadBN254SRSFromFile(opts.SRSPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load SRS from %s: %w", opts.SRSPath, err)
		}
		srsLagrange, err := LoadBN254SRSFromFile(opts.SRSLagrangePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load SRS Lagrange from %s: %w", opts.SRSLagrangePath, err)
		}
		return srs, srsLagrange, nil

	case SetupModeDownload:
		power := opts.PtauPower
		if power == 0 {
			power = DefaultPtauPower
		}
		srs, srsLagrange, err := LoadOrDownloadHermezSRS(opts.CacheDir, power, plonkDomainSize(cs))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load/download Hermez SRS: %w", err)
		}
		return srs, srsLagrange, nil

	default:
		return nil, nil, fmt.Errorf("unknown setup mode: %d", opts.Mode)
	}
}

// LoadBN254SRSFromFile loads a BN254 KZG SRS in gnark format.
func LoadBN254SRSFromFile(path string) (*kzg.SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRS file: %w", err)
	}
	defer f.Close()

	var srs kzg.SRS
	if _, err := srs.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to read SRS: %w", err)
	}
	return &srs, nil
}

// DownloadFile fetches url into path.
func DownloadFile(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: HTTP %d", url, resp.StatusCode)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// LoadOrDownloadHermezSRS loads the converted Hermez SRS from cacheDir, or
// downloads, checks and converts it. systemSize is the PLONK system size,
// constraints plus public inputs; the Lagrange SRS covers its next power of two.
func LoadOrDownloadHermezSRS(cacheDir string, power int, systemSize int) (*kzg.SRS, *kzg.SRS, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	lagrangeSize := nextPowerOfTwo(systemSize)
	if maxSize := 1 << power; lagrangeSize > maxSize {
		return nil, nil, fmt.Errorf("circuit needs a domain of %d but SRS only supports %d (2^%d); increase power",
			lagrangeSize, maxSize, power)
	}

	srsPath := filepath.Join(cacheDir, fmt.Sprintf("srs_bn254_%d.dat", power))
	srsLagrangePath := filepath.Join(cacheDir, fmt.Sprintf("srs_lagrange_bn254_%d_%d.dat", power, lagrangeSize))
	rawPath := filepath.Join(cacheDir, fmt.Sprintf("powersOfTau28_hez_final_%02d.ptau", power))

	if fileExists(srsPath) && fileExists(srsLagrangePath) {
		logger.Info().Str("dir", cacheDir).Msg("loading cached SRS")
		srs, err := LoadBN254SRSFromFile(srsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load cached SRS: %w", err)
		}
		srsLagrange, err := LoadBN254SRSFromFile(srsLagrangePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load cached SRS Lagrange: %w", err)
		}
		return srs, srsLagrange, nil
	}

	if !fileExists(rawPath) {
		url := fmt.Sprintf(HermezPtauURL, power)
		logger.Info().Int("power", power).Str("url", url).Msg("downloading Hermez Powers of Tau")
		if err := DownloadFile(context.Background(), url, rawPath); err != nil {
			return nil, nil, err
		}
		if expected, ok := ptauBlake2bHashes[power]; ok {
			if err := verifyFileBlake2b(rawPath, expected); err != nil {
				_ = os.Remove(rawPath)
				return nil, nil, fmt.Errorf("PTAU hash verification failed: %w", err)
			}
			logger.Info().Int("power", power).Msg("PTAU Blake2b hash verified")
		}
	}

	file, err := os.Open(rawPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open PTAU file: %w", err)
	}
	defer file.Close()
	srs, err := ptau.ToSRS(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert PTAU to gnark SRS: %w", err)
	}

	logger.Info().Int("size", lagrangeSize).Msg("generating Lagrange SRS")
	lagrangeG1, err := kzg.ToLagrangeG1(srs.Pk.G1[:lagrangeSize])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute Lagrange SRS: %w", err)
	}
	srsLagrange := &kzg.SRS{Pk: kzg.ProvingKey{G1: lagrangeG1}, Vk: srs.Vk}

	if err := saveBN254SRSToFile(srs, srsPath); err != nil {
		logger.Warn().Err(err).Msg("failed to cache SRS")
	}
	if err := saveBN254SRSToFile(srsLagrange, srsLagrangePath); err != nil {
		logger.Warn().Err(err).Msg("failed to cache SRS Lagrange")
	}
	return srs, srsLagrange, nil
}

// plonkDomainSize is the number of rows gnark's PLONK backend lays out for cs.
func plonkDomainSize(cs constraint.ConstraintSystem) int {
	return cs.GetNbConstraints() + cs.GetNbPublicVariables()
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func fileExists(path string) bool {
	f, err := os.Stat(path)
	return err == nil && !f.IsDir()
}

// verifyFileBlake2b streams filePath through Blake2b-512; PTAU files are
// hundreds of MB.
func verifyFileBlake2b(filePath, expectedHash string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash, err := blake2b.New512(nil)
	if err != nil {
		return fmt.Errorf("failed to create blake2b hasher: %w", err)
	}
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}
	if actual := hex.EncodeToString(hash.Sum(nil)); actual != expectedHash {
		return fmt.Errorf("hash mismatch: expected %s, got %s", expectedHash, actual)
	}
	return nil
}

func saveBN254SRSToFile(srs *kzg.SRS, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = srs.WriteTo(f)
	return err
}

// SerializeKey serializes a gnark key, proof or constraint system.
func SerializeKey(obj io.WriterTo) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := obj.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize: %w", err)
	}
	return buf.Bytes(), nil
}

func readInto[T io.ReaderFrom](obj T, r io.Reader, what string) (T, error) {
	if _, err := obj.ReadFrom(r); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return obj, nil
}

// WriteSetupDir stores the constraint system and keys under dir/<scheme>.
// The verifying key is also written as hex for embedding in configuration.
func WriteSetupDir(dir string, res *SetupResult) error {
	out := filepath.Join(dir, res.Scheme.String())
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files := []struct {
		name string
		obj  io.WriterTo
	}{
		{FileConstraintSystem, res.ConstraintSystem},
		{FileProvingKey, res.ProvingKey()},
		{FileVerifyingKey, res.VerifyingKey()},
	}
	for _, f := range files {
		raw, err := SerializeKey(f.obj)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(out, f.name), raw, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if f.name == FileVerifyingKey {
			if err := os.WriteFile(filepath.Join(out, FileVerifyingKeyHex), []byte(hex.EncodeToString(raw)), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", FileVerifyingKeyHex, err)
			}
		}
	}
	logger.Info().Str("dir", out).Str("scheme", res.Scheme.String()).Msg("setup written")
	return nil
}

// LoadSetupDir reads what WriteSetupDir wrote for scheme.
func LoadSetupDir(dir string, scheme Scheme) (*SetupResult, error) {
	in := filepath.Join(dir, scheme.String())
	open := func(name string) (*os.File, error) {
		f, err := os.Open(filepath.Join(in, name))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		return f, nil
	}

	res := &SetupResult{Scheme: scheme}
	f, err := open(FileConstraintSystem)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch scheme {
	case SchemePlonk:
		if res.ConstraintSystem, err = readInto(plonk.NewCS(ecc.BN254), f, FileConstraintSystem); err != nil {
			return nil, err
		}
	case SchemeGroth16:
		if res.ConstraintSystem, err = readInto(groth16.NewCS(ecc.BN254), f, FileConstraintSystem); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scheme %s", scheme)
	}

	pkf, err := open(FileProvingKey)
	if err != nil {
		return nil, err
	}
	defer pkf.Close()
	vkf, err := open(FileVerifyingKey)
	if err != nil {
		return nil, err
	}
	defer vkf.Close()

	if scheme == SchemePlonk {
		if res.PlonkProvingKey, err = readInto(plonk.NewProvingKey(ecc.BN254), pkf, FileProvingKey); err != nil {
			return nil, err
		}
		if res.PlonkVerifyingKey, err = readInto(plonk.NewVerifyingKey(ecc.BN254), vkf, FileVerifyingKey); err != nil {
			return nil, err
		}
		return res, nil
	}
	if res.Groth16ProvingKey, err = readInto(groth16.NewProvingKey(ecc.BN254), pkf, FileProvingKey); err != nil {
		return nil, err
	}
	if res.Groth16VerifyingKey, err = readInto(groth16.NewVerifyingKey(ecc.BN254), vkf, FileVerifyingKey); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadVerifyingKeyFile reads a raw or hex-encoded verifying key file.
func LoadVerifyingKeyFile(path string) ([]byte, error) {
	raw, err := readHexOrRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return raw, nil
}

// LoadProofFile reads a raw or hex-encoded proof envelope.
func LoadProofFile(path string) ([]byte, error) {
	raw, err := readHexOrRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proof: %w", err)
	}
	return raw, nil
}

func readHexOrRaw(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if dec, err := hex.DecodeString(string(bytes.TrimSpace(raw))); err == nil {
		return dec, nil
	}
	return raw, nil
}
