package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/notify"
	"github.com/policastlabs/policastd/internal/txflow"
	"github.com/policastlabs/policastd/internal/units"
)

// TradeChain is the slice of the chain client the trade service needs.
type TradeChain interface {
	Operator() common.Address
	GetUserShares(ctx context.Context, marketID uint64, user common.Address) ([]*big.Int, error)
	CalculateBuyCost(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error)
	CalculateSellRevenue(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error)
	BuyShares(ctx context.Context, marketID, optionID uint64, quantity, maxPricePerShare *big.Int) (common.Hash, error)
	SellShares(ctx context.Context, marketID, optionID uint64, quantity, minPricePerShare *big.Int) (common.Hash, error)
	SwapShares(ctx context.Context, marketID, optionIn, optionOut uint64, amountIn, minAmountOut *big.Int) (common.Hash, error)
	ClaimWinnings(ctx context.Context, marketID uint64) (common.Hash, error)
}

// Executor drives an allowance-gated write to its receipt.
type Executor interface {
	Execute(ctx context.Context, required *big.Int, submit txflow.SubmitFunc, onPhase txflow.PhaseFunc) (*types.Receipt, error)
}

// TradeRequest carries user-facing trade parameters. Amounts are human
// decimal strings; conversion to the token's fixed point happens here.
type TradeRequest struct {
	MarketID uint64 `json:"market_id"`
	OptionID uint64 `json:"option_id"`
	Quantity string `json:"quantity"`
	// LimitPrice caps the per-share price on buys and floors it on sells.
	LimitPrice string `json:"limit_price"`
}

// SwapRequest moves shares between two options of the same market.
type SwapRequest struct {
	MarketID     uint64 `json:"market_id"`
	OptionIn     uint64 `json:"option_in"`
	OptionOut    uint64 `json:"option_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
}

// TradeResult reports a confirmed trade back to the caller.
type TradeResult struct {
	TxHash string `json:"tx_hash"`
	Cost   string `json:"cost,omitempty"`
}

// TradeService submits buys, sells, swaps, and winnings claims through
// the allowance-gated sequencer and records confirmed trades.
type TradeService struct {
	chain    TradeChain
	seq      Executor
	markets  domain.MarketStore
	trades   domain.TradeStore
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewTradeService creates a TradeService with all required dependencies.
func NewTradeService(
	chain TradeChain,
	seq Executor,
	markets domain.MarketStore,
	trades domain.TradeStore,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		chain:    chain,
		seq:      seq,
		markets:  markets,
		trades:   trades,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
	}
}

// Buy quotes the cost of the requested shares, runs the allowance-gated
// pipeline, and records the confirmed trade.
func (s *TradeService) Buy(ctx context.Context, req TradeRequest) (TradeResult, error) {
	quantity, maxPrice, err := s.parseTrade(ctx, req)
	if err != nil {
		return TradeResult{}, err
	}

	cost, err := s.chain.CalculateBuyCost(ctx, req.MarketID, req.OptionID, quantity)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: quote buy: %w", err)
	}

	receipt, err := s.seq.Execute(ctx, cost,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.BuyShares(ctx, req.MarketID, req.OptionID, quantity, maxPrice)
		},
		s.phasePublisher(ctx, req.MarketID),
	)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: buy market %d: %w", req.MarketID, err)
	}

	s.record(ctx, req, "buy", quantity, cost, receipt)
	return TradeResult{TxHash: receipt.TxHash.Hex(), Cost: units.FormatToken(cost)}, nil
}

// Sell validates the held balance and submits a sellShares transaction.
// Sells spend no tokens, so the allowance gate is skipped.
func (s *TradeService) Sell(ctx context.Context, req TradeRequest) (TradeResult, error) {
	quantity, minPrice, err := s.parseTrade(ctx, req)
	if err != nil {
		return TradeResult{}, err
	}

	if err := s.checkShares(ctx, req.MarketID, req.OptionID, quantity); err != nil {
		return TradeResult{}, err
	}

	revenue, err := s.chain.CalculateSellRevenue(ctx, req.MarketID, req.OptionID, quantity)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: quote sell: %w", err)
	}

	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.SellShares(ctx, req.MarketID, req.OptionID, quantity, minPrice)
		},
		s.phasePublisher(ctx, req.MarketID),
	)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: sell market %d: %w", req.MarketID, err)
	}

	s.record(ctx, req, "sell", quantity, revenue, receipt)
	return TradeResult{TxHash: receipt.TxHash.Hex(), Cost: units.FormatToken(revenue)}, nil
}

// Swap moves shares from one option to another within a market.
func (s *TradeService) Swap(ctx context.Context, req SwapRequest) (TradeResult, error) {
	amountIn, err := units.ParseToken(req.AmountIn)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: amount_in: %w", err)
	}
	minOut, err := units.ParseToken(req.MinAmountOut)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: min_amount_out: %w", err)
	}
	if amountIn.Sign() <= 0 {
		return TradeResult{}, domain.ErrInvalidAmount
	}

	if err := s.requireTradable(ctx, req.MarketID); err != nil {
		return TradeResult{}, err
	}
	if err := s.checkShares(ctx, req.MarketID, req.OptionIn, amountIn); err != nil {
		return TradeResult{}, err
	}

	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.SwapShares(ctx, req.MarketID, req.OptionIn, req.OptionOut, amountIn, minOut)
		},
		s.phasePublisher(ctx, req.MarketID),
	)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: swap market %d: %w", req.MarketID, err)
	}

	s.record(ctx, TradeRequest{MarketID: req.MarketID, OptionID: req.OptionIn}, "swap", amountIn, big.NewInt(0), receipt)
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// Claim collects winnings from a resolved market.
func (s *TradeService) Claim(ctx context.Context, marketID uint64) (TradeResult, error) {
	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.ClaimWinnings(ctx, marketID)
		},
		s.phasePublisher(ctx, marketID),
	)
	if err != nil {
		return TradeResult{}, fmt.Errorf("trade_service: claim market %d: %w", marketID, err)
	}
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// QuoteBuy returns the token cost of a prospective buy without submitting.
func (s *TradeService) QuoteBuy(ctx context.Context, marketID, optionID uint64, quantity string) (string, error) {
	qty, err := units.ParseToken(quantity)
	if err != nil {
		return "", fmt.Errorf("trade_service: quantity: %w", err)
	}
	cost, err := s.chain.CalculateBuyCost(ctx, marketID, optionID, qty)
	if err != nil {
		return "", fmt.Errorf("trade_service: quote buy: %w", err)
	}
	return units.FormatToken(cost), nil
}

// parseTrade converts and validates the request amounts, and checks the
// market is tradable.
func (s *TradeService) parseTrade(ctx context.Context, req TradeRequest) (quantity, limitPrice *big.Int, err error) {
	quantity, err = units.ParseToken(req.Quantity)
	if err != nil {
		return nil, nil, fmt.Errorf("trade_service: quantity: %w", err)
	}
	if quantity.Sign() <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	limitPrice, err = units.ParseToken(req.LimitPrice)
	if err != nil {
		return nil, nil, fmt.Errorf("trade_service: limit_price: %w", err)
	}
	if err := s.requireTradable(ctx, req.MarketID); err != nil {
		return nil, nil, err
	}
	return quantity, limitPrice, nil
}

// requireTradable rejects trades against markets that are not active.
func (s *TradeService) requireTradable(ctx context.Context, marketID uint64) error {
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return fmt.Errorf("trade_service: market %d: %w", marketID, err)
	}
	if m.Status != domain.MarketStatusActive || m.Ended() {
		return domain.ErrMarketNotTradable
	}
	return nil
}

// checkShares verifies the operator holds at least quantity shares of the
// given option before a sell or swap is submitted.
func (s *TradeService) checkShares(ctx context.Context, marketID, optionID uint64, quantity *big.Int) error {
	shares, err := s.chain.GetUserShares(ctx, marketID, s.chain.Operator())
	if err != nil {
		return fmt.Errorf("trade_service: read shares: %w", err)
	}
	held := big.NewInt(0)
	if optionID < uint64(len(shares)) && shares[optionID] != nil {
		held = shares[optionID]
	}
	if held.Cmp(quantity) < 0 {
		return domain.ErrInsufficientShares
	}
	return nil
}

// TxStream is the durable copy of ch:tx events. The WebSocket hub replays
// it to freshly connected clients so they see phases published before the
// connection was up.
const TxStream = "stream:tx"

// phasePublisher pushes tx phase transitions to the signal bus, the
// durable tx stream, and the notifier so WebSocket clients and operators
// follow the pipeline live.
func (s *TradeService) phasePublisher(ctx context.Context, marketID uint64) txflow.PhaseFunc {
	return func(phase txflow.Phase, hash common.Hash) {
		payload, err := json.Marshal(map[string]any{
			"type": "tx_phase",
			"payload": map[string]any{
				"market_id": marketID,
				"phase":     string(phase),
				"tx_hash":   hash.Hex(),
			},
		})
		if err != nil {
			return
		}
		if err := s.bus.Publish(ctx, "ch:tx", payload); err != nil {
			s.logger.WarnContext(ctx, "trade_service: publish tx phase failed",
				slog.String("error", err.Error()),
			)
		}
		if err := s.bus.StreamAppend(ctx, TxStream, payload); err != nil {
			s.logger.WarnContext(ctx, "trade_service: append tx phase failed",
				slog.String("error", err.Error()),
			)
		}

		switch phase {
		case txflow.PhaseSubmitted:
			s.notifyEvent(ctx, notify.EventTxSubmitted, "Transaction submitted", hash.Hex())
		case txflow.PhaseConfirmed:
			s.notifyEvent(ctx, notify.EventTxConfirmed, "Transaction confirmed", hash.Hex())
		case txflow.PhaseFailed:
			s.notifyEvent(ctx, notify.EventTxFailed, "Transaction failed", hash.Hex())
		}
	}
}

func (s *TradeService) notifyEvent(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "trade_service: notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// record appends the confirmed trade to the log. Failures are logged, not
// returned: the chain write already succeeded.
func (s *TradeService) record(ctx context.Context, req TradeRequest, side string, quantity, cost *big.Int, receipt *types.Receipt) {
	trade := domain.TradeRecord{
		ID:        uuid.NewString(),
		User:      s.chain.Operator().Hex(),
		MarketID:  req.MarketID,
		OptionID:  req.OptionID,
		Side:      side,
		Quantity:  quantity,
		Cost:      cost,
		TxHash:    receipt.TxHash.Hex(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.trades.Insert(ctx, trade); err != nil {
		s.logger.ErrorContext(ctx, "trade_service: record trade failed",
			slog.String("trade_id", trade.ID),
			slog.String("error", err.Error()),
		)
	}
}
