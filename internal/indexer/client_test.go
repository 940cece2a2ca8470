package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/policastlabs/policastd/internal/domain"
)

func gqlServer(t *testing.T, data string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":` + data + `}`))
	}))
}

func TestFetchMarkets(t *testing.T) {
	srv := gqlServer(t, `{"markets":[
		{"marketId":"3","question":"Will BTC close above 100k?","description":"d","category":"2",
		 "marketType":"0","creator":"0xABcD000000000000000000000000000000000001",
		 "validated":true,"resolved":false,"invalidated":false,"disputed":false,
		 "winningOptionId":"","totalVolume":"5000000000000000000",
		 "endTime":"1767225600","createdAt":"1735689600","updatedAt":"1735689600"},
		{"marketId":"4","question":"Resolved one","description":"","category":"SPORTS",
		 "marketType":"1","creator":"0xabcd000000000000000000000000000000000002",
		 "validated":true,"resolved":true,"invalidated":false,"disputed":false,
		 "winningOptionId":"1","totalVolume":"0",
		 "endTime":"1735689600","createdAt":"1704067200","updatedAt":"1735689600"}
	]}`)
	defer srv.Close()

	client := NewClient(srv.URL, "")
	markets, err := client.FetchMarkets(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("FetchMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}

	m := markets[0]
	if m.ID != 3 {
		t.Errorf("ID = %d, want 3", m.ID)
	}
	if m.Category != domain.CategoryCrypto {
		t.Errorf("Category = %s, want CRYPTO", m.Category)
	}
	if m.Status != domain.MarketStatusActive {
		t.Errorf("Status = %s, want active", m.Status)
	}
	if m.Creator != "0xabcd000000000000000000000000000000000001" {
		t.Errorf("Creator not lowercased: %s", m.Creator)
	}
	if m.FreeEntry {
		t.Error("marketType 0 should be paid entry")
	}
	if m.Volume.String() != "5000000000000000000" {
		t.Errorf("Volume = %s", m.Volume)
	}

	r := markets[1]
	if r.Status != domain.MarketStatusResolved {
		t.Errorf("Status = %s, want resolved", r.Status)
	}
	if r.WinningOptionID == nil || *r.WinningOptionID != 1 {
		t.Errorf("WinningOptionID = %v, want 1", r.WinningOptionID)
	}
	if r.Category != domain.CategorySports {
		t.Errorf("Category = %s, want SPORTS", r.Category)
	}
	if !r.FreeEntry {
		t.Error("marketType 1 should be free entry")
	}
}

func TestFetchUserPositions(t *testing.T) {
	srv := gqlServer(t, `{"userPositions":[
		{"id":"0xab-3","user":"0xABcD000000000000000000000000000000000001",
		 "marketId":"3","shares":["1000000000000000000","0"]}
	]}`)
	defer srv.Close()

	client := NewClient(srv.URL, "")
	positions, err := client.FetchUserPositions(context.Background(), "0xABcD000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("FetchUserPositions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}

	p := positions[0]
	if p.MarketID != 3 {
		t.Errorf("MarketID = %d, want 3", p.MarketID)
	}
	if p.User != "0xabcd000000000000000000000000000000000001" {
		t.Errorf("User not lowercased: %s", p.User)
	}
	if p.ShareBalance(0).String() != "1000000000000000000" {
		t.Errorf("shares[0] = %s", p.ShareBalance(0))
	}
	if p.ShareBalance(5).Sign() != 0 {
		t.Error("out-of-range option should read as zero")
	}
}

func TestFetchLatestBlock(t *testing.T) {
	srv := gqlServer(t, `{"_meta":{"block":{"number":123456}}}`)
	defer srv.Close()

	client := NewClient(srv.URL, "")
	block, err := client.FetchLatestBlock(context.Background())
	if err != nil {
		t.Fatalf("FetchLatestBlock: %v", err)
	}
	if block != 123456 {
		t.Errorf("block = %d, want 123456", block)
	}
}

func TestGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"field does not exist"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.FetchLatestBlock(context.Background()); err == nil {
		t.Fatal("expected graphql error to surface")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name                                     string
		validated, resolved, invalidated, disputed bool
		want                                     domain.MarketStatus
	}{
		{name: "fresh", want: domain.MarketStatusPending},
		{name: "validated", validated: true, want: domain.MarketStatusActive},
		{name: "resolved", validated: true, resolved: true, want: domain.MarketStatusResolved},
		{name: "disputed beats resolved", validated: true, resolved: true, disputed: true, want: domain.MarketStatusDisputed},
		{name: "invalidated beats all", validated: true, resolved: true, disputed: true, invalidated: true, want: domain.MarketStatusInvalidated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(tt.validated, tt.resolved, tt.invalidated, tt.disputed); got != tt.want {
				t.Errorf("statusOf = %s, want %s", got, tt.want)
			}
		})
	}
}
