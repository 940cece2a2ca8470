// Package txflow sequences allowance-gated contract writes. Every
// token-spending transaction goes through the same pipeline: read the
// current ERC-20 allowance, approve the spender if the allowance falls
// short, wait until the raised allowance is actually visible on chain,
// then submit the real transaction and wait for its receipt.
package txflow

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/policastlabs/policastd/internal/domain"
)

// Phase is the externally observable state of a sequenced transaction.
type Phase string

const (
	PhaseApproving  Phase = "approving"
	PhaseSubmitted  Phase = "submitted"
	PhaseConfirming Phase = "confirming"
	PhaseConfirmed  Phase = "confirmed"
	PhaseFailed     Phase = "failed"
)

// Chain is the slice of the chain client the sequencer needs.
type Chain interface {
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// SubmitFunc submits the actual state-changing transaction once the
// allowance precondition holds.
type SubmitFunc func(ctx context.Context) (common.Hash, error)

// PhaseFunc observes phase transitions. The hash is zero until a
// transaction has been submitted.
type PhaseFunc func(phase Phase, txHash common.Hash)

const (
	defaultPollInterval      = 500 * time.Millisecond
	defaultAllowanceDeadline = 15 * time.Second
)

// unlimited is the max uint256 approval amount. Approving once for the
// maximum means subsequent spends skip the approval round-trip entirely.
var unlimited = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Config tunes the sequencer. Zero values fall back to defaults.
type Config struct {
	Token common.Address
	Owner common.Address

	// AllowancePollInterval and AllowanceDeadline bound the post-approval
	// wait for the raised allowance to become readable. RPC nodes can lag
	// the mined state, so a confirmed approval is not immediately visible.
	AllowancePollInterval time.Duration
	AllowanceDeadline     time.Duration
}

// Sequencer drives allowance-gated writes against one token/owner pair.
type Sequencer struct {
	chain Chain
	cfg   Config

	logger *slog.Logger
}

// New builds a sequencer. The owner is the operator wallet whose
// allowance gates every spend.
func New(chain Chain, cfg Config, logger *slog.Logger) *Sequencer {
	if cfg.AllowancePollInterval <= 0 {
		cfg.AllowancePollInterval = defaultPollInterval
	}
	if cfg.AllowanceDeadline <= 0 {
		cfg.AllowanceDeadline = defaultAllowanceDeadline
	}
	return &Sequencer{
		chain:  chain,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "txflow")),
	}
}

// NeedsApproval reports whether the known allowance is short of the
// required spend. An unknown (nil) allowance is an error: submission must
// never proceed on a guess.
func NeedsApproval(allowance, required *big.Int) (bool, error) {
	if allowance == nil {
		return false, domain.ErrAllowanceUnknown
	}
	return allowance.Cmp(required) < 0, nil
}

// Execute runs the full pipeline for one write. required is the token
// amount the transaction will spend; pass nil or zero for writes that
// spend nothing (claims, admin actions), which skips the allowance gate.
// onPhase may be nil.
func (s *Sequencer) Execute(ctx context.Context, required *big.Int, submit SubmitFunc, onPhase PhaseFunc) (*types.Receipt, error) {
	notify := func(phase Phase, hash common.Hash) {
		if onPhase != nil {
			onPhase(phase, hash)
		}
	}

	if required != nil && required.Sign() > 0 {
		if err := s.ensureAllowance(ctx, required, notify); err != nil {
			notify(PhaseFailed, common.Hash{})
			return nil, err
		}
	}

	hash, err := submit(ctx)
	if err != nil {
		notify(PhaseFailed, common.Hash{})
		return nil, fmt.Errorf("txflow: submit: %w", err)
	}
	notify(PhaseSubmitted, hash)

	notify(PhaseConfirming, hash)
	receipt, err := s.chain.WaitMined(ctx, hash)
	if err != nil {
		notify(PhaseFailed, hash)
		return receipt, fmt.Errorf("txflow: confirm %s: %w", hash.Hex(), err)
	}

	notify(PhaseConfirmed, hash)
	return receipt, nil
}

// ensureAllowance reads the current allowance and, when short, approves
// the unlimited amount and waits for the raise to become visible.
func (s *Sequencer) ensureAllowance(ctx context.Context, required *big.Int, notify PhaseFunc) error {
	allowance, err := s.chain.Allowance(ctx, s.cfg.Token, s.cfg.Owner)
	if err != nil {
		return fmt.Errorf("txflow: read allowance: %w", domain.ErrAllowanceUnknown)
	}
	short, err := NeedsApproval(allowance, required)
	if err != nil {
		return err
	}
	if !short {
		return nil
	}

	notify(PhaseApproving, common.Hash{})
	s.logger.InfoContext(ctx, "allowance short, approving",
		slog.String("allowance", allowance.String()),
		slog.String("required", required.String()),
	)

	hash, err := s.chain.Approve(ctx, s.cfg.Token, unlimited)
	if err != nil {
		return fmt.Errorf("txflow: approve: %w", err)
	}
	if _, err := s.chain.WaitMined(ctx, hash); err != nil {
		return fmt.Errorf("txflow: confirm approval %s: %w", hash.Hex(), err)
	}

	return s.awaitAllowance(ctx, required)
}

// awaitAllowance polls until the allowance covers the required spend. A
// mined approval can still be invisible through a lagging RPC node, so the
// raise is confirmed by reading it back rather than by a fixed sleep.
func (s *Sequencer) awaitAllowance(ctx context.Context, required *big.Int) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AllowanceDeadline)
	defer cancel()

	ticker := time.NewTicker(s.cfg.AllowancePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("txflow: approval not visible within %s: %w", s.cfg.AllowanceDeadline, ctx.Err())
		case <-ticker.C:
		}

		allowance, err := s.chain.Allowance(ctx, s.cfg.Token, s.cfg.Owner)
		if err != nil {
			// Transient read failures just mean another poll.
			continue
		}
		if allowance != nil && allowance.Cmp(required) >= 0 {
			return nil
		}
	}
}
