package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nyxanic/disorder/gateway"
	"github.com/nyxanic/disorder/gateway/config"
	"github.com/nyxanic/disorder/x/disorder/keeper"
	"github.com/nyxanic/disorder/x/disorder/zk"
)

const flagConfig = "config"

// NewRootCmd creates the disorderd root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "disorderd",
		Short: "Disorder cipher program and proof verifier",
		Long: `disorderd runs the disorder program: a chaotic-map block cipher and a
zero-knowledge verifier for proofs of correct encryption, behind a compute
budget and an append-only ledger.

Configuration is read from --config or ./config.json, with DISORDER_*
environment overrides.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return setupLogger(cfg.LogLevel, cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().String(flagConfig, "", "Path to the config file")

	rootCmd.AddCommand(
		initCmd(),
		startCmd(),
		encryptCmd(),
		decryptCmd(),
		verifyCmd(),
		ledgerCmd(),
	)
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	return config.GetConfig(path)
}

func setupLogger(level string, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	if lvl > zerolog.DebugLevel {
		zk.SilenceGnark()
	} else {
		zk.SetLogger(log.Logger)
	}
	return nil
}

// openProgram opens the configured ledger for a one-shot command.
func openProgram(cmd *cobra.Command) (*keeper.Program, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	verifier, err := gateway.LoadVerifier(*cfg)
	if err != nil {
		return nil, err
	}
	db, err := keeper.NewLevelDB(cfg.LedgerPath, false)
	if err != nil {
		return nil, err
	}
	p, err := keeper.NewProgram(db, verifier,
		keeper.WithSyncWrites(cfg.SyncWrites),
		keeper.WithComputeBudgets(cfg.DefaultComputeBudget, cfg.MaxComputeBudget),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func initCmd() *cobra.Command {
	var output string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		// the config file may not exist yet
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(zerolog.InfoLevel.String(), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", output)
			}
			raw, err := json.MarshalIndent(config.DefaultConfig(), "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, append(raw, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			log.Info().Str("path", output).Msg("config written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "config.json", "Config file to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
