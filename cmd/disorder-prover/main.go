// Package main provides a CLI tool for generating disorder proofs: proofs
// that a committed key encrypts a public plaintext to a public ciphertext.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nyxanic/disorder/x/disorder/types"
	"github.com/nyxanic/disorder/x/disorder/zk"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zk.SetLogger(log.Logger.Level(zerolog.InfoLevel))

	rootCmd := &cobra.Command{
		Use:   "disorder-prover",
		Short: "ZK proof generator for the disorder cipher",
		Long: `disorder-prover generates zero-knowledge proofs that a secret key,
committed to by its MiMC hash, encrypts a public plaintext block to a public
ciphertext block under a public IV.

The resulting envelope can be submitted to the verifyProof instruction.
Both PLONK (Hermez Powers of Tau SRS) and Groth16 are supported.`,
	}

	rootCmd.AddCommand(
		setupCmd(),
		proveCmd(),
		statementCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupCmd creates the trusted setup command
func setupCmd() *cobra.Command {
	var (
		outputDir  string
		schemeName string
		modeName   string
		cacheDir   string
		srsPath    string
		lagPath    string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate proving and verifying keys",
		Long: `Compile the disorder circuit and generate keys for one scheme.
Output goes to <output>/<scheme>/: circuit.cs, proving.key, verifying.key and
verifying.key.hex. The hex verifying key is what the gateway configuration
points at.

For PLONK, --mode download (default) fetches and caches the Hermez Powers of
Tau ceremony SRS; --mode file reads a local SRS; --mode test uses an unsafe
in-memory SRS. Groth16 always runs a local single-party setup and is meant for
development networks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := zk.ParseScheme(schemeName)
			if err != nil {
				return err
			}
			mode, err := zk.ParseSetupMode(modeName)
			if err != nil {
				return err
			}

			opts := zk.DefaultSetupOptions()
			opts.Mode = mode
			if cacheDir != "" {
				opts.CacheDir = cacheDir
			}
			opts.SRSPath = srsPath
			opts.SRSLagrangePath = lagPath

			if mode == zk.SetupModeTest || scheme == zk.SchemeGroth16 {
				log.Warn().Str("scheme", scheme.String()).Msg("keys come from an unsafe setup, DO NOT use them in production")
			}

			setup, err := zk.Setup(scheme, opts)
			if err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			if err := zk.WriteSetupDir(outputDir, setup); err != nil {
				return err
			}

			vk, err := zk.SerializeKey(setup.VerifyingKey())
			if err != nil {
				return err
			}
			v, err := zk.NewVerifier(setup.VerifyingKeys())
			if err != nil {
				return err
			}
			for _, d := range v.KeyDigests() {
				fmt.Printf("%s verifying key: %d bytes, blake2b-256 %s\n", d.Scheme, len(vk), d.Digest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "./zk-setup", "Output directory for keys")
	cmd.Flags().StringVar(&schemeName, "scheme", zk.SchemePlonk.String(), "Proof system: plonk or groth16")
	cmd.Flags().StringVar(&modeName, "mode", "download", "PLONK SRS source: download, file or test")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory to cache downloaded SRS files (default: ~/.disorder/zk-cache)")
	cmd.Flags().StringVar(&srsPath, "srs", "", "Canonical SRS file for --mode file")
	cmd.Flags().StringVar(&lagPath, "srs-lagrange", "", "Lagrange SRS file for --mode file")

	return cmd
}

type blockFlags struct {
	key       []string
	iv        []string
	plaintext []string
}

func (f *blockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.key, "key", nil, "Secret key words, hex (0x...) or decimal")
	cmd.Flags().StringSliceVar(&f.iv, "iv", nil, "IV words")
	cmd.Flags().StringSliceVar(&f.plaintext, "plaintext", nil, "Plaintext words")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("iv")
	_ = cmd.MarkFlagRequired("plaintext")
}

func (f *blockFlags) parse() (types.Key, types.IV, types.Block, error) {
	var (
		key types.Key
		iv  types.IV
		pt  types.Block
	)
	w, err := types.ParseWords(f.key)
	if err != nil {
		return key, iv, pt, err
	}
	if key, err = types.KeyFromWords(w); err != nil {
		return key, iv, pt, err
	}
	if w, err = types.ParseWords(f.iv); err != nil {
		return key, iv, pt, err
	}
	if iv, err = types.IVFromWords(w); err != nil {
		return key, iv, pt, err
	}
	if w, err = types.ParseWords(f.plaintext); err != nil {
		return key, iv, pt, err
	}
	pt, err = types.BlockFromWords(w)
	return key, iv, pt, err
}

type statementJSON struct {
	IV            []string `json:"iv"`
	Plaintext     []string `json:"plaintext"`
	Ciphertext    []string `json:"ciphertext"`
	KeyCommitment string   `json:"key_commitment"`
}

func newStatementJSON(st zk.Statement) statementJSON {
	hexWords := func(w [types.BlockWords]uint64) []string {
		out := make([]string, len(w))
		for i, v := range w {
			out[i] = fmt.Sprintf("%#x", v)
		}
		return out
	}
	return statementJSON{
		IV:            hexWords(st.IV),
		Plaintext:     hexWords(st.Plaintext),
		Ciphertext:    hexWords(st.Ciphertext),
		KeyCommitment: st.KeyCommitment.String(),
	}
}

// proveCmd creates the prove command
func proveCmd() *cobra.Command {
	var (
		blocks     blockFlags
		setupDir   string
		schemeName string
		outputFile string
		hexOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Encrypt a block and prove the encryption",
		Long: `Encrypt the plaintext under (key, iv) and generate a proof that the
ciphertext was produced by the key behind the published commitment. The key
itself never leaves this process and is not part of the envelope.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, iv, pt, err := blocks.parse()
			if err != nil {
				return err
			}
			scheme, err := zk.ParseScheme(schemeName)
			if err != nil {
				return err
			}

			log.Info().Str("dir", setupDir).Str("scheme", scheme.String()).Msg("loading setup")
			setup, err := zk.LoadSetupDir(setupDir, scheme)
			if err != nil {
				return err
			}
			env, st, err := zk.ProverFromSetup(setup).Prove(key, iv, pt)
			if err != nil {
				return err
			}

			out := env
			if hexOutput {
				out = []byte(hex.EncodeToString(env))
			}
			if err := os.WriteFile(outputFile, out, 0o644); err != nil {
				return fmt.Errorf("failed to write proof: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(newStatementJSON(st)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "proof envelope (%d bytes) saved to: %s\n", len(env), outputFile)
			return nil
		},
	}

	blocks.register(cmd)
	cmd.Flags().StringVar(&setupDir, "setup-dir", "./zk-setup", "Directory written by setup")
	cmd.Flags().StringVar(&schemeName, "scheme", zk.SchemePlonk.String(), "Proof system: plonk or groth16")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "proof.bin", "Output file for the proof envelope")
	cmd.Flags().BoolVar(&hexOutput, "hex", false, "Write the envelope hex-encoded")

	return cmd
}

// statementCmd prints the public statement without proving it.
func statementCmd() *cobra.Command {
	var blocks blockFlags

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print the public statement for a key, IV and plaintext",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, iv, pt, err := blocks.parse()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(newStatementJSON(zk.NewStatement(key, iv, pt)))
		},
	}
	blocks.register(cmd)
	return cmd
}
