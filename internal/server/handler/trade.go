package handler

import (
	"net/http"

	"github.com/policastlabs/policastd/internal/service"
)

// TradeHandler exposes the trading pipeline: buys, sells, swaps, quotes,
// and winnings claims.
type TradeHandler struct {
	trades *service.TradeService
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(trades *service.TradeService) *TradeHandler {
	return &TradeHandler{trades: trades}
}

// Buy purchases shares through the allowance-gated pipeline.
// POST /api/trade/buy
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req service.TradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.trades.Buy(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Sell liquidates held shares.
// POST /api/trade/sell
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req service.TradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.trades.Sell(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Swap moves shares between two options of the same market.
// POST /api/trade/swap
func (h *TradeHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req service.SwapRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.trades.Swap(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type claimRequest struct {
	MarketID uint64 `json:"market_id"`
}

// Claim collects winnings from a resolved market.
// POST /api/trade/claim
func (h *TradeHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.trades.Claim(r.Context(), req.MarketID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type quoteResponse struct {
	Cost string `json:"cost"`
}

// Quote prices a prospective buy without submitting anything.
// GET /api/trade/quote?market_id=&option_id=&quantity=
func (h *TradeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	marketID, err := parseUintParam(q.Get("market_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market_id"})
		return
	}
	optionID, err := parseUintParam(q.Get("option_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid option_id"})
		return
	}

	cost, err := h.trades.QuoteBuy(r.Context(), marketID, optionID, q.Get("quantity"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Cost: cost})
}
