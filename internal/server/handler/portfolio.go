package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/policastlabs/policastd/internal/service"
)

// PortfolioHandler serves per-wallet portfolio and leaderboard views.
type PortfolioHandler struct {
	portfolios  *service.PortfolioService
	leaderboard *service.LeaderboardService
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolios *service.PortfolioService, leaderboard *service.LeaderboardService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, leaderboard: leaderboard}
}

// GetPortfolio returns one wallet's aggregates and positions.
// GET /api/portfolio/{address}
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.PathValue("address"))
	if !isHexAddress(address) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid wallet address"})
		return
	}

	summary, err := h.portfolios.Summary(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type leaderboardResponse struct {
	Entries []service.LeaderboardEntry `json:"entries"`
}

// GetLeaderboard returns wallets ranked by total profit.
// GET /api/leaderboard?limit=
func (h *PortfolioHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries})
}

// isHexAddress accepts a 0x-prefixed 40-hex-digit address.
func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
