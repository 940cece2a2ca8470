package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/policastlabs/policastd/internal/domain"
)

type fakeBlobReader struct {
	objects map[string][]byte
}

func (f *fakeBlobReader) Read(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (f *fakeBlobReader) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		keys = append(keys, key)
	}
	return keys, nil
}

func TestGetArchiveReturnsStoredSnapshot(t *testing.T) {
	doc := []byte(`{"market":{"id":7},"final_odds":[100,0]}`)
	h := NewArchiveHandler(&fakeBlobReader{objects: map[string][]byte{
		"archive/markets/7.json": doc,
	}})

	r := httptest.NewRequest(http.MethodGet, "/api/archive/markets/7", nil)
	r.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.GetArchive(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != string(doc) {
		t.Errorf("body = %s, want the snapshot verbatim", rec.Body.String())
	}
}

func TestGetArchiveUnknownMarket(t *testing.T) {
	h := NewArchiveHandler(&fakeBlobReader{objects: map[string][]byte{}})

	r := httptest.NewRequest(http.MethodGet, "/api/archive/markets/9", nil)
	r.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	h.GetArchive(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListArchivesExtractsMarketIDs(t *testing.T) {
	h := NewArchiveHandler(&fakeBlobReader{objects: map[string][]byte{
		"archive/markets/3.json":  []byte(`{}`),
		"archive/markets/12.json": []byte(`{}`),
		"archive/markets/notes":   []byte(`scratch`),
	}})

	r := httptest.NewRequest(http.MethodGet, "/api/archive/markets", nil)
	rec := httptest.NewRecorder()
	h.ListArchives(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body archiveListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.MarketIDs) != 2 {
		t.Errorf("market ids = %v, want the two snapshot ids", body.MarketIDs)
	}
}
