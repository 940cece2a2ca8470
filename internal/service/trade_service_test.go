package service

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
	"github.com/policastlabs/policastd/internal/txflow"
	"github.com/policastlabs/policastd/internal/units"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeChain struct {
	shares  []*big.Int
	buyCost *big.Int

	boughtQty *big.Int
	soldQty   *big.Int
}

func (f *fakeChain) Operator() common.Address { return common.HexToAddress("0x01") }

func (f *fakeChain) GetUserShares(ctx context.Context, marketID uint64, user common.Address) ([]*big.Int, error) {
	return f.shares, nil
}

func (f *fakeChain) CalculateBuyCost(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error) {
	return f.buyCost, nil
}

func (f *fakeChain) CalculateSellRevenue(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeChain) BuyShares(ctx context.Context, marketID, optionID uint64, quantity, maxPrice *big.Int) (common.Hash, error) {
	f.boughtQty = quantity
	return common.HexToHash("0xb1"), nil
}

func (f *fakeChain) SellShares(ctx context.Context, marketID, optionID uint64, quantity, minPrice *big.Int) (common.Hash, error) {
	f.soldQty = quantity
	return common.HexToHash("0xs1"), nil
}

func (f *fakeChain) SwapShares(ctx context.Context, marketID, optionIn, optionOut uint64, amountIn, minAmountOut *big.Int) (common.Hash, error) {
	return common.HexToHash("0xw1"), nil
}

func (f *fakeChain) ClaimWinnings(ctx context.Context, marketID uint64) (common.Hash, error) {
	return common.HexToHash("0xc1"), nil
}

// fakeExecutor records the required spend and runs the submit callback
// directly, skipping the allowance machinery.
type fakeExecutor struct {
	required *big.Int
	phases   []txflow.Phase
}

func (f *fakeExecutor) Execute(ctx context.Context, required *big.Int, submit txflow.SubmitFunc, onPhase txflow.PhaseFunc) (*types.Receipt, error) {
	f.required = required
	hash, err := submit(ctx)
	if err != nil {
		if onPhase != nil {
			onPhase(txflow.PhaseFailed, common.Hash{})
		}
		return nil, err
	}
	if onPhase != nil {
		onPhase(txflow.PhaseSubmitted, hash)
		onPhase(txflow.PhaseConfirmed, hash)
		f.phases = append(f.phases, txflow.PhaseSubmitted, txflow.PhaseConfirmed)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}, nil
}

type fakeMarketStore struct {
	markets map[uint64]domain.Market
}

func (f *fakeMarketStore) Upsert(ctx context.Context, m domain.Market) error {
	f.markets[m.ID] = m
	return nil
}

func (f *fakeMarketStore) UpsertBatch(ctx context.Context, ms []domain.Market) error {
	for _, m := range ms {
		f.markets[m.ID] = m
	}
	return nil
}

func (f *fakeMarketStore) GetByID(ctx context.Context, id uint64) (domain.Market, error) {
	m, ok := f.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMarketStore) List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	var out []domain.Market
	for _, m := range f.markets {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.markets)), nil
}

type fakeTradeStore struct {
	inserted []domain.TradeRecord
}

func (f *fakeTradeStore) Insert(ctx context.Context, t domain.TradeRecord) error {
	f.inserted = append(f.inserted, t)
	return nil
}

func (f *fakeTradeStore) ListByUser(ctx context.Context, user string, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	return f.inserted, nil
}

func (f *fakeTradeStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	return f.inserted, nil
}

func (f *fakeTradeStore) CountByUser(ctx context.Context, user string) (int64, error) {
	return int64(len(f.inserted)), nil
}

func (f *fakeTradeStore) Participants(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeBus struct {
	published [][]byte
	streams   map[string][][]byte
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	if f.streams == nil {
		f.streams = make(map[string][][]byte)
	}
	f.streams[stream] = append(f.streams[stream], payload)
	return nil
}

func (f *fakeBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func activeMarket(id uint64) domain.Market {
	return domain.Market{
		ID:       id,
		Question: "Will it rain tomorrow?",
		Status:   domain.MarketStatusActive,
		EndTime:  time.Now().Add(24 * time.Hour),
	}
}

func newTradeFixture(t *testing.T) (*TradeService, *fakeChain, *fakeExecutor, *fakeTradeStore, *fakeBus) {
	t.Helper()
	chain := &fakeChain{buyCost: big.NewInt(42)}
	seq := &fakeExecutor{}
	markets := &fakeMarketStore{markets: map[uint64]domain.Market{3: activeMarket(3)}}
	trades := &fakeTradeStore{}
	bus := &fakeBus{}
	svc := NewTradeService(chain, seq, markets, trades, bus, nil, slog.New(slog.DiscardHandler))
	return svc, chain, seq, trades, bus
}

func TestBuyRunsAllowanceGatedPipeline(t *testing.T) {
	svc, chain, seq, trades, bus := newTradeFixture(t)

	result, err := svc.Buy(context.Background(), TradeRequest{
		MarketID:   3,
		OptionID:   1,
		Quantity:   "2.5",
		LimitPrice: "0.6",
	})
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}

	if seq.required == nil || seq.required.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("sequencer required = %v, want quoted cost 42", seq.required)
	}
	want, _ := units.ParseToken("2.5")
	if chain.boughtQty == nil || chain.boughtQty.Cmp(want) != 0 {
		t.Errorf("bought quantity = %v, want %v", chain.boughtQty, want)
	}
	if result.TxHash == "" {
		t.Error("result should carry the tx hash")
	}
	if len(trades.inserted) != 1 || trades.inserted[0].Side != "buy" {
		t.Errorf("expected one recorded buy, got %v", trades.inserted)
	}
	if len(bus.published) == 0 {
		t.Error("expected tx phase events on the signal bus")
	}
	if len(bus.streams[TxStream]) != len(bus.published) {
		t.Errorf("durable stream got %d entries, want every published phase (%d)",
			len(bus.streams[TxStream]), len(bus.published))
	}
}

func TestBuyRejectsInvalidAmounts(t *testing.T) {
	svc, _, _, _, _ := newTradeFixture(t)

	tests := []struct {
		name     string
		quantity string
	}{
		{name: "zero", quantity: "0"},
		{name: "empty", quantity: ""},
		{name: "negative", quantity: "-1"},
		{name: "garbage", quantity: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Buy(context.Background(), TradeRequest{
				MarketID: 3, OptionID: 0, Quantity: tt.quantity, LimitPrice: "1",
			})
			if err == nil {
				t.Fatalf("Buy(%q) should fail", tt.quantity)
			}
		})
	}
}

func TestBuyRejectsNonTradableMarket(t *testing.T) {
	svc, _, _, _, _ := newTradeFixture(t)

	// Market 9 does not exist in the projection.
	_, err := svc.Buy(context.Background(), TradeRequest{MarketID: 9, Quantity: "1", LimitPrice: "1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown market error = %v, want ErrNotFound", err)
	}
}

func TestSellChecksHeldShares(t *testing.T) {
	svc, chain, _, _, _ := newTradeFixture(t)
	held, _ := units.ParseToken("1")
	chain.shares = []*big.Int{held, big.NewInt(0)}

	// Selling more than held must fail before submission.
	_, err := svc.Sell(context.Background(), TradeRequest{
		MarketID: 3, OptionID: 0, Quantity: "2", LimitPrice: "0.1",
	})
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Fatalf("oversell error = %v, want ErrInsufficientShares", err)
	}
	if chain.soldQty != nil {
		t.Error("sellShares must not be submitted on insufficient balance")
	}

	// Selling exactly the held balance succeeds.
	if _, err := svc.Sell(context.Background(), TradeRequest{
		MarketID: 3, OptionID: 0, Quantity: "1", LimitPrice: "0.1",
	}); err != nil {
		t.Fatalf("Sell: %v", err)
	}
}

func TestSellSkipsAllowanceGate(t *testing.T) {
	svc, chain, seq, _, _ := newTradeFixture(t)
	held, _ := units.ParseToken("5")
	chain.shares = []*big.Int{held}

	if _, err := svc.Sell(context.Background(), TradeRequest{
		MarketID: 3, OptionID: 0, Quantity: "1", LimitPrice: "0.1",
	}); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if seq.required != nil {
		t.Errorf("sell passed required spend %v, want nil (no token outflow)", seq.required)
	}
}

func TestSwapValidatesSourceBalance(t *testing.T) {
	svc, chain, _, _, _ := newTradeFixture(t)
	held, _ := units.ParseToken("3")
	chain.shares = []*big.Int{held, big.NewInt(0)}

	_, err := svc.Swap(context.Background(), SwapRequest{
		MarketID: 3, OptionIn: 0, OptionOut: 1, AmountIn: "10", MinAmountOut: "0",
	})
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Errorf("swap error = %v, want ErrInsufficientShares", err)
	}
}
