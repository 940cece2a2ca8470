package txflow

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/policastlabs/policastd/internal/domain"
)

type fakeChain struct {
	allowances []*big.Int // consumed one per Allowance call; last value repeats
	calls      int

	approved     *big.Int
	approveErr   error
	waitMinedErr error
}

func (f *fakeChain) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	i := f.calls
	if i >= len(f.allowances) {
		i = len(f.allowances) - 1
	}
	f.calls++
	return f.allowances[i], nil
}

func (f *fakeChain) Approve(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error) {
	if f.approveErr != nil {
		return common.Hash{}, f.approveErr
	}
	f.approved = amount
	return common.HexToHash("0xaa"), nil
}

func (f *fakeChain) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.waitMinedErr != nil {
		return nil, f.waitMinedErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}, nil
}

func testSequencer(chain Chain) *Sequencer {
	return New(chain, Config{
		AllowancePollInterval: time.Millisecond,
		AllowanceDeadline:     100 * time.Millisecond,
	}, slog.New(slog.DiscardHandler))
}

func TestNeedsApproval(t *testing.T) {
	tests := []struct {
		name      string
		allowance *big.Int
		required  *big.Int
		want      bool
		wantErr   error
	}{
		{name: "unknown allowance", allowance: nil, required: big.NewInt(1), wantErr: domain.ErrAllowanceUnknown},
		{name: "short", allowance: big.NewInt(5), required: big.NewInt(10), want: true},
		{name: "exact", allowance: big.NewInt(10), required: big.NewInt(10), want: false},
		{name: "ample", allowance: big.NewInt(20), required: big.NewInt(10), want: false},
		{name: "zero allowance", allowance: big.NewInt(0), required: big.NewInt(1), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NeedsApproval(tt.allowance, tt.required)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NeedsApproval error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NeedsApproval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteSufficientAllowance(t *testing.T) {
	chain := &fakeChain{allowances: []*big.Int{big.NewInt(100)}}
	seq := testSequencer(chain)

	var phases []Phase
	receipt, err := seq.Execute(context.Background(), big.NewInt(50),
		func(ctx context.Context) (common.Hash, error) {
			return common.HexToHash("0xbb"), nil
		},
		func(p Phase, _ common.Hash) { phases = append(phases, p) },
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Error("expected successful receipt")
	}
	if chain.approved != nil {
		t.Error("sufficient allowance should not trigger an approval")
	}
	want := []Phase{PhaseSubmitted, PhaseConfirming, PhaseConfirmed}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase[%d] = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestExecuteApprovesWhenShort(t *testing.T) {
	// Allowance reads: gate check sees 10; the first post-approval poll
	// still reports the stale 10; the second sees the raise.
	chain := &fakeChain{allowances: []*big.Int{big.NewInt(10), big.NewInt(10), unlimited}}
	seq := testSequencer(chain)

	var phases []Phase
	_, err := seq.Execute(context.Background(), big.NewInt(50),
		func(ctx context.Context) (common.Hash, error) {
			return common.HexToHash("0xbb"), nil
		},
		func(p Phase, _ common.Hash) { phases = append(phases, p) },
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if chain.approved == nil || chain.approved.Cmp(unlimited) != 0 {
		t.Errorf("approved amount = %v, want max uint256", chain.approved)
	}
	if len(phases) == 0 || phases[0] != PhaseApproving {
		t.Errorf("phases = %v, want approving first", phases)
	}
	if phases[len(phases)-1] != PhaseConfirmed {
		t.Errorf("phases = %v, want confirmed last", phases)
	}
}

func TestExecuteUnknownAllowanceBlocks(t *testing.T) {
	chain := &fakeChain{allowances: []*big.Int{nil}}
	seq := testSequencer(chain)

	submitted := false
	_, err := seq.Execute(context.Background(), big.NewInt(50),
		func(ctx context.Context) (common.Hash, error) {
			submitted = true
			return common.Hash{}, nil
		}, nil)
	if !errors.Is(err, domain.ErrAllowanceUnknown) {
		t.Fatalf("Execute error = %v, want ErrAllowanceUnknown", err)
	}
	if submitted {
		t.Error("submission must not proceed on an unknown allowance")
	}
}

func TestExecuteAllowanceNeverVisible(t *testing.T) {
	chain := &fakeChain{allowances: []*big.Int{big.NewInt(10)}}
	seq := testSequencer(chain)

	_, err := seq.Execute(context.Background(), big.NewInt(50),
		func(ctx context.Context) (common.Hash, error) {
			t.Fatal("submit must not run while the allowance is short")
			return common.Hash{}, nil
		}, nil)
	if err == nil {
		t.Fatal("expected deadline error when the approval never becomes visible")
	}
}

func TestExecuteZeroSpendSkipsGate(t *testing.T) {
	// No allowances configured at all: a claim must never read them.
	chain := &fakeChain{allowances: []*big.Int{nil}}
	seq := testSequencer(chain)

	_, err := seq.Execute(context.Background(), nil,
		func(ctx context.Context) (common.Hash, error) {
			return common.HexToHash("0xcc"), nil
		}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if chain.calls != 0 {
		t.Errorf("allowance read %d times for a zero-spend write, want 0", chain.calls)
	}
}

func TestExecuteSubmitFailure(t *testing.T) {
	chain := &fakeChain{allowances: []*big.Int{big.NewInt(100)}}
	seq := testSequencer(chain)

	var last Phase
	_, err := seq.Execute(context.Background(), big.NewInt(1),
		func(ctx context.Context) (common.Hash, error) {
			return common.Hash{}, errors.New("nonce too low")
		},
		func(p Phase, _ common.Hash) { last = p },
	)
	if err == nil {
		t.Fatal("expected submit error")
	}
	if last != PhaseFailed {
		t.Errorf("final phase = %s, want failed", last)
	}
}

func TestExecuteRevertedTransaction(t *testing.T) {
	chain := &fakeChain{
		allowances:   []*big.Int{big.NewInt(100)},
		waitMinedErr: errors.New("transaction reverted"),
	}
	seq := testSequencer(chain)

	var last Phase
	_, err := seq.Execute(context.Background(), big.NewInt(1),
		func(ctx context.Context) (common.Hash, error) {
			return common.HexToHash("0xdd"), nil
		},
		func(p Phase, _ common.Hash) { last = p },
	)
	if err == nil {
		t.Fatal("expected confirmation error")
	}
	if last != PhaseFailed {
		t.Errorf("final phase = %s, want failed", last)
	}
}
