package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/policastlabs/policastd/internal/domain"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("market 7: %w", domain.ErrNotFound), want: http.StatusNotFound},
		{name: "unauthorized", err: domain.ErrUnauthorized, want: http.StatusForbidden},
		{name: "invalid amount", err: domain.ErrInvalidAmount, want: http.StatusBadRequest},
		{name: "not tradable", err: domain.ErrMarketNotTradable, want: http.StatusBadRequest},
		{name: "insufficient shares", err: domain.ErrInsufficientShares, want: http.StatusBadRequest},
		{name: "already exists", err: domain.ErrAlreadyExists, want: http.StatusConflict},
		{name: "allowance unknown", err: domain.ErrAllowanceUnknown, want: http.StatusConflict},
		{name: "rate limited", err: domain.ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "reverted transaction", err: fmt.Errorf("chain: transaction 0xdead: %w", domain.ErrTxFailed), want: http.StatusBadGateway},
		{name: "unexpected", err: errors.New("execution reverted: market locked"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error != tt.err.Error() {
				t.Errorf("error body = %q, want verbatim %q", body.Error, tt.err.Error())
			}
		})
	}
}

func TestDecodeBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"market_id": 1, "bogus": true}`))
	var dst struct {
		MarketID uint64 `json:"market_id"`
	}
	if err := decodeBody(r, &dst); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}
