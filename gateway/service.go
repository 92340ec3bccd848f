// Package gateway serves the program's instructions over HTTP. It owns the
// ledger database and the verifier and turns program errors into JSON
// responses carrying the registered error code.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nyxanic/disorder/gateway/config"
	"github.com/nyxanic/disorder/gateway/metrics"
	"github.com/nyxanic/disorder/x/disorder/keeper"
	"github.com/nyxanic/disorder/x/disorder/types"
	"github.com/nyxanic/disorder/x/disorder/zk"
)

// Service wires the program, metrics and HTTP server together.
type Service struct {
	cfg     config.Config
	logger  zerolog.Logger
	program *keeper.Program

	// http server
	hs *http.Server

	// metrics
	metrics *metrics.Metrics
}

// NewService opens the ledger and loads the configured verifying keys.
func NewService(cfg config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	verifier, err := LoadVerifier(cfg)
	if err != nil {
		return nil, err
	}
	if verifier == nil {
		log.Warn().Msg("no verifying key configured, verifyProof is disabled")
	}

	db, err := keeper.NewLevelDB(cfg.LedgerPath, cfg.CompactOnInit)
	if err != nil {
		return nil, fmt.Errorf("failed to create level db: %w", err)
	}
	program, err := keeper.NewProgram(db, verifier,
		keeper.WithSyncWrites(cfg.SyncWrites),
		keeper.WithComputeBudgets(cfg.DefaultComputeBudget, cfg.MaxComputeBudget),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open program: %w", err)
	}
	return newService(cfg, program), nil
}

func newService(cfg config.Config, program *keeper.Program) *Service {
	s := &Service{
		cfg:     cfg,
		logger:  log.With().Str("module", "gateway").Logger(),
		program: program,
		metrics: metrics.NewMetrics(),
	}
	s.hs = &http.Server{
		Addr:              cfg.HTTPListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// LoadVerifier builds a verifier from the configured key files. It returns
// nil, nil when no key is configured.
func LoadVerifier(cfg config.Config) (types.ProofVerifier, error) {
	if cfg.PlonkVerifyingKey == "" && cfg.Groth16VerifyingKey == "" {
		return nil, nil
	}
	var plonkVK, groth16VK []byte
	var err error
	if cfg.PlonkVerifyingKey != "" {
		if plonkVK, err = zk.LoadVerifyingKeyFile(cfg.PlonkVerifyingKey); err != nil {
			return nil, fmt.Errorf("plonk: %w", err)
		}
	}
	if cfg.Groth16VerifyingKey != "" {
		if groth16VK, err = zk.LoadVerifyingKeyFile(cfg.Groth16VerifyingKey); err != nil {
			return nil, fmt.Errorf("groth16: %w", err)
		}
	}
	v, err := zk.NewVerifierFromBytes(plonkVK, groth16VK)
	if err != nil {
		return nil, fmt.Errorf("failed to load verifying keys: %w", err)
	}
	return v, nil
}

// Program exposes the underlying program for in-process callers.
func (s *Service) Program() *keeper.Program {
	return s.program
}

// Handler returns the HTTP routes, metrics included.
func (s *Service) Handler() http.Handler {
	r := s.registerRoutes()
	metrics.RegisterHandlers(r)
	return r
}

// Start serves HTTP in the background.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.program.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize program: %w", err)
	}
	go func() {
		if err := s.hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("failed to start http server")
		}
	}()
	s.logger.Info().Str("addr", s.cfg.HTTPListenAddress).Msg("disorder gateway started")
	return nil
}

// Stop shuts down the HTTP server and closes the ledger.
func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.hs.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to shutdown http server")
	} else {
		s.logger.Info().Msg("http server shutdown")
	}
	if err := s.program.Close(); err != nil {
		s.logger.Error().Err(err).Msg("failed to close leveldb")
	} else {
		s.logger.Info().Msg("leveldb closed")
	}
}
