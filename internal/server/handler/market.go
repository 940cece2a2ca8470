package handler

import (
	"net/http"
	"strconv"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/listing"
	"github.com/policastlabs/policastd/internal/service"
)

// MarketHandler serves the marketplace listing and detail views.
type MarketHandler struct {
	markets *service.MarketService
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets *service.MarketService) *MarketHandler {
	return &MarketHandler{markets: markets}
}

type marketListResponse struct {
	Markets []service.MarketView `json:"markets"`
	Count   int                  `json:"count"`
}

// ListMarkets returns markets matching the query filters.
// GET /api/markets?search=&category=&status=&sort=&limit=&offset=
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := listing.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   domain.MarketStatus(q.Get("status")),
	}
	order := listing.SortOrder(q.Get("sort"))

	opts := domain.ListOpts{Limit: 50}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 200 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}

	views, err := h.markets.ListMarkets(r.Context(), filter, order, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marketListResponse{Markets: views, Count: len(views)})
}

// GetMarket returns one market with its live odds.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}

	view, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// parseMarketID reads the {id} path value as a market id.
func parseMarketID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}
