package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/service"
)

// LiquidityHandler exposes AMM liquidity provision and LP reward claims.
type LiquidityHandler struct {
	liquidity *service.LiquidityService
}

// NewLiquidityHandler creates a LiquidityHandler.
func NewLiquidityHandler(liquidity *service.LiquidityService) *LiquidityHandler {
	return &LiquidityHandler{liquidity: liquidity}
}

type addLiquidityRequest struct {
	MarketID uint64 `json:"market_id"`
	Amount   string `json:"amount"`
}

// Add contributes tokens to a market's liquidity pool.
// POST /api/liquidity/add
func (h *LiquidityHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.liquidity.Add(r.Context(), req.MarketID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type claimRewardsRequest struct {
	MarketID uint64 `json:"market_id"`
}

// ClaimRewards collects accumulated LP rewards.
// POST /api/liquidity/claim
func (h *LiquidityHandler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	var req claimRewardsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.liquidity.ClaimRewards(r.Context(), req.MarketID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type lpPositionsResponse struct {
	Positions []domain.LPPosition `json:"positions"`
}

// GetPositions returns a wallet's LP positions across all markets.
// GET /api/liquidity/{address}
func (h *LiquidityHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !isHexAddress(address) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid wallet address"})
		return
	}

	positions, err := h.liquidity.Positions(r.Context(), common.HexToAddress(address))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lpPositionsResponse{Positions: positions})
}
