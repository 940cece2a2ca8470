package handler

import (
	"net/http"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/server/middleware"
	"github.com/policastlabs/policastd/internal/service"
)

// AdminHandler exposes the market lifecycle operations. Routes using it
// sit behind the AdminOnly middleware; the service re-checks the actor so
// a misrouted registration cannot bypass the allow-list.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// CreateMarket submits a new market with seed liquidity.
// POST /api/admin/markets
func (h *AdminHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.admin.CreateMarket(r.Context(), middleware.Wallet(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type queueResponse struct {
	Markets []domain.Market `json:"markets"`
}

// ValidationQueue lists markets awaiting validation.
// GET /api/admin/validation-queue
func (h *AdminHandler) ValidationQueue(w http.ResponseWriter, r *http.Request) {
	markets, err := h.admin.ValidationQueue(r.Context(), middleware.Wallet(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{Markets: markets})
}

// ResolutionQueue lists markets eligible for resolution.
// GET /api/admin/resolution-queue
func (h *AdminHandler) ResolutionQueue(w http.ResponseWriter, r *http.Request) {
	markets, err := h.admin.ResolutionQueue(r.Context(), middleware.Wallet(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{Markets: markets})
}

// Validate activates a pending market.
// POST /api/admin/markets/{id}/validate
func (h *AdminHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}

	result, err := h.admin.Validate(r.Context(), middleware.Wallet(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type resolveRequest struct {
	WinningOptionID uint64 `json:"winning_option_id"`
}

// Resolve settles a market on the winning option.
// POST /api/admin/markets/{id}/resolve
func (h *AdminHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}
	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.admin.Resolve(r.Context(), middleware.Wallet(r), id, req.WinningOptionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Invalidate voids a market.
// POST /api/admin/markets/{id}/invalidate
func (h *AdminHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}

	result, err := h.admin.Invalidate(r.Context(), middleware.Wallet(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

// Dispute flags a resolved market as contested.
// POST /api/admin/markets/{id}/dispute
func (h *AdminHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}
	var req disputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.admin.Dispute(r.Context(), middleware.Wallet(r), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
