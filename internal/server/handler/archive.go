package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/policastlabs/policastd/internal/domain"
)

// archivePrefix is where settled market snapshots live in blob storage.
const archivePrefix = "archive/markets/"

// ArchiveHandler serves the snapshots the archiver wrote for resolved and
// invalidated markets.
type ArchiveHandler struct {
	blobs domain.BlobReader
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(blobs domain.BlobReader) *ArchiveHandler {
	return &ArchiveHandler{blobs: blobs}
}

type archiveListResponse struct {
	MarketIDs []uint64 `json:"market_ids"`
}

// ListArchives returns the ids of all archived markets.
// GET /api/archive/markets
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	keys, err := h.blobs.List(r.Context(), archivePrefix)
	if err != nil {
		writeError(w, err)
		return
	}

	ids := make([]uint64, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(key, archivePrefix), ".json")
		if id, err := strconv.ParseUint(name, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	writeJSON(w, http.StatusOK, archiveListResponse{MarketIDs: ids})
}

// GetArchive streams one archived snapshot verbatim; the archiver already
// stored it as a complete JSON document.
// GET /api/archive/markets/{id}
func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	id, err := parseMarketID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid market id"})
		return
	}

	data, err := h.blobs.Read(r.Context(), fmt.Sprintf("%s%d.json", archivePrefix, id))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
