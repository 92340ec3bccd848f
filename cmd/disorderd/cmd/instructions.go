package cmd

import (
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nyxanic/disorder/gateway"
	"github.com/nyxanic/disorder/x/disorder/keeper"
	"github.com/nyxanic/disorder/x/disorder/types"
	"github.com/nyxanic/disorder/x/disorder/zk"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Initialize the program and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			svc, err := gateway.NewService(*cfg)
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				svc.Stop()
				return err
			}
			<-ctx.Done()
			log.Info().Msg("shutting down")
			svc.Stop()
			return nil
		},
	}
}

type instructionFlags struct {
	simulate bool
	budget   uint64
}

func (f *instructionFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.simulate, "simulate", false, "Run without committing to the ledger")
	fs.Uint64Var(&f.budget, "compute-budget", 0, "Compute budget (0 selects the configured default)")
}

func (f *instructionFlags) mode() types.Mode {
	if f.simulate {
		return types.ModeSimulate
	}
	return types.ModeCommit
}

type cipherOutput struct {
	Output      []hexutil.Uint64 `json:"output"`
	ComputeUsed uint64           `json:"compute_used"`
	Committed   bool             `json:"committed"`
	LedgerSeq   uint64           `json:"ledger_seq,omitempty"`
}

func cipherCmd(use, short string, run func(*keeper.Program, *cobra.Command, types.CipherRequest) (*types.CipherResponse, error)) *cobra.Command {
	var (
		flags             instructionFlags
		keyWords, ivWords []string
		inputWords        []string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.CipherRequest{Mode: flags.mode(), ComputeBudget: flags.budget}
			w, err := types.ParseWords(keyWords)
			if err != nil {
				return err
			}
			if req.Key, err = types.KeyFromWords(w); err != nil {
				return err
			}
			if w, err = types.ParseWords(ivWords); err != nil {
				return err
			}
			if req.IV, err = types.IVFromWords(w); err != nil {
				return err
			}
			if w, err = types.ParseWords(inputWords); err != nil {
				return err
			}
			if req.Input, err = types.BlockFromWords(w); err != nil {
				return err
			}

			p, err := openProgram(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			resp, err := run(p, cmd, req)
			if err != nil {
				return err
			}
			out := cipherOutput{
				ComputeUsed: resp.ComputeUsed,
				Committed:   resp.Committed,
				LedgerSeq:   resp.LedgerSeq,
			}
			for _, v := range resp.Output {
				out.Output = append(out.Output, hexutil.Uint64(v))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&keyWords, "key", nil, "Key words, hex (0x...) or decimal")
	cmd.Flags().StringSliceVar(&ivWords, "iv", nil, "IV words")
	cmd.Flags().StringSliceVar(&inputWords, "input", nil, "Input block words")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("iv")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func encryptCmd() *cobra.Command {
	return cipherCmd("encrypt", "Run encryptSim on one block",
		func(p *keeper.Program, cmd *cobra.Command, req types.CipherRequest) (*types.CipherResponse, error) {
			return p.EncryptSim(cmd.Context(), req)
		})
}

func decryptCmd() *cobra.Command {
	return cipherCmd("decrypt", "Run decryptSim on one block",
		func(p *keeper.Program, cmd *cobra.Command, req types.CipherRequest) (*types.CipherResponse, error) {
			return p.DecryptSim(cmd.Context(), req)
		})
}

type verifyOutput struct {
	Valid       bool   `json:"valid"`
	Digest      string `json:"digest"`
	Scheme      string `json:"scheme"`
	ComputeUsed uint64 `json:"compute_used"`
	Committed   bool   `json:"committed"`
	LedgerSeq   uint64 `json:"ledger_seq,omitempty"`
}

func verifyCmd() *cobra.Command {
	var flags instructionFlags
	cmd := &cobra.Command{
		Use:   "verify [proof-file]",
		Short: "Run verifyProof on a proof envelope (raw or hex)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proof, err := zk.LoadProofFile(args[0])
			if err != nil {
				return err
			}
			p, err := openProgram(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			budget := flags.budget
			if budget == 0 {
				budget = zk.WorstCaseVerifyUnits
			}
			resp, err := p.VerifyProof(cmd.Context(), types.VerifyRequest{
				Proof:         proof,
				Mode:          flags.mode(),
				ComputeBudget: budget,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), verifyOutput{
				Valid:       true,
				Digest:      hex.EncodeToString(resp.Digest[:]),
				Scheme:      resp.Scheme,
				ComputeUsed: resp.ComputeUsed,
				Committed:   resp.Committed,
				LedgerSeq:   resp.LedgerSeq,
			})
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func ledgerCmd() *cobra.Command {
	var (
		from  uint64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "ledger [seq]",
		Short: "Show committed ledger records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProgram(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if len(args) == 1 {
				w, err := types.ParseWords(args)
				if err != nil {
					return err
				}
				rec, err := p.GetRecord(cmd.Context(), w[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}
			recs, err := p.Records(cmd.Context(), from, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 1, "First sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records (0 selects the scan maximum)")
	return cmd
}
