package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
)

// BlockSource reports the latest block the subgraph has indexed.
type BlockSource interface {
	FetchLatestBlock(ctx context.Context) (int64, error)
}

// StatusHandler serves runtime metadata: mode, uptime, operator wallet,
// market count, and sync progress.
type StatusHandler struct {
	mode      string
	operator  common.Address
	startedAt time.Time
	markets   domain.MarketStore
	indexer   BlockSource
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, operator common.Address, startedAt time.Time, markets domain.MarketStore, indexer BlockSource) *StatusHandler {
	return &StatusHandler{
		mode:      mode,
		operator:  operator,
		startedAt: startedAt,
		markets:   markets,
		indexer:   indexer,
	}
}

type statusResponse struct {
	Mode          string `json:"mode"`
	Operator      string `json:"operator"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	MarketCount   int64  `json:"market_count"`
	IndexedBlock  int64  `json:"indexed_block"`
}

// GetStatus returns the gateway status envelope. Backend reads are
// best-effort: a failing count or block query zeroes the field rather
// than failing the endpoint.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Mode:          h.mode,
		Operator:      h.operator.Hex(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}

	if count, err := h.markets.Count(r.Context()); err == nil {
		resp.MarketCount = count
	}
	if h.indexer != nil {
		if block, err := h.indexer.FetchLatestBlock(r.Context()); err == nil {
			resp.IndexedBlock = block
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
