// Package keeper dispatches the program's instructions: initialize,
// encryptSim, decryptSim and verifyProof. Every instruction runs its pure core
// under a compute budget; in commit mode a successful result is then appended
// to the ledger in a single atomic batch.
package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nyxanic/disorder/constants"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// Program is the instruction surface. It is safe for concurrent use; only
// ledger commits are serialized.
type Program struct {
	db       *leveldb.DB
	verifier types.ProofVerifier
	logger   zerolog.Logger
	now      func() time.Time
	sync     bool

	defaultBudget uint64
	maxBudget     uint64
	maxScan       int

	mu  sync.Mutex
	seq uint64
}

// Option configures a Program.
type Option func(*Program)

// WithLogger sets the program logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Program) { p.logger = l.With().Str("module", types.ModuleName).Logger() }
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Program) { p.now = now }
}

// WithSyncWrites fsyncs every ledger commit.
func WithSyncWrites(enabled bool) Option {
	return func(p *Program) { p.sync = enabled }
}

// WithComputeBudgets overrides the default and maximum compute budgets.
func WithComputeBudgets(defaultBudget, maxBudget uint64) Option {
	return func(p *Program) {
		p.defaultBudget = defaultBudget
		p.maxBudget = maxBudget
	}
}

// NewProgram creates a Program over db. verifier may be nil, in which case
// verifyProof fails with ErrNotInitialized.
func NewProgram(db *leveldb.DB, verifier types.ProofVerifier, opts ...Option) (*Program, error) {
	p := &Program{
		db:            db,
		verifier:      verifier,
		logger:        log.With().Str("module", types.ModuleName).Logger(),
		now:           time.Now,
		defaultBudget: constants.Uint64(constants.DefaultComputeBudget),
		maxBudget:     constants.Uint64(constants.MaxComputeBudget),
		maxScan:       int(constants.Uint64(constants.MaxLedgerScan)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.defaultBudget > p.maxBudget {
		p.defaultBudget = p.maxBudget
	}

	seq, err := p.loadSequence()
	if err != nil {
		return nil, err
	}
	p.seq = seq
	return p, nil
}

// Close closes the ledger.
func (p *Program) Close() error {
	return p.db.Close()
}

// ComputeLimit resolves a requested budget: zero selects the default and
// anything above the maximum is clamped.
func (p *Program) ComputeLimit(requested uint64) uint64 {
	if requested == 0 {
		return p.defaultBudget
	}
	if requested > p.maxBudget {
		return p.maxBudget
	}
	return requested
}

// Initialize records the program version and the digests of the embedded
// verifying keys. It is idempotent: later calls return the first record.
func (p *Program) Initialize(ctx context.Context) (*types.ProgramInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.programInfo()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, types.ErrNotInitialized) {
		return nil, err
	}

	info := &types.ProgramInfo{
		Version:       types.ProgramVersion,
		VerifyingKeys: []types.KeyDigest{},
		InitializedAt: p.now().UTC(),
	}
	if p.verifier != nil {
		info.VerifyingKeys = p.verifier.KeyDigests()
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, types.ErrLedger.Wrapf("encode program info: %v", err)
	}
	if err := p.db.Put(types.ProgramInfoKey, raw, p.writeOptions()); err != nil {
		return nil, types.ErrLedger.Wrapf("write program info: %v", err)
	}

	p.logger.Info().
		Str("version", info.Version).
		Int("verifying_keys", len(info.VerifyingKeys)).
		Msg("program initialized")
	return info, nil
}

// ProgramInfo returns what Initialize recorded.
func (p *Program) ProgramInfo(ctx context.Context) (*types.ProgramInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.programInfo()
}

func (p *Program) programInfo() (*types.ProgramInfo, error) {
	raw, err := p.db.Get(types.ProgramInfoKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, types.ErrNotInitialized.Wrap("initialize has not been called")
	}
	if err != nil {
		return nil, types.ErrLedger.Wrapf("read program info: %v", err)
	}
	var info types.ProgramInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, types.ErrLedger.Wrapf("decode program info: %v", err)
	}
	return &info, nil
}
