package sync

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/policastlabs/policastd/internal/chain"
	"github.com/policastlabs/policastd/internal/domain"
)

type fakeSource struct {
	pages [][]domain.Market
	calls int
}

func (f *fakeSource) FetchMarkets(ctx context.Context, first, skip int) ([]domain.Market, error) {
	page := skip / first
	f.calls++
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

// fakeOptionReader serves a fixed two-option market for every id.
type fakeOptionReader struct {
	err error
}

func (f *fakeOptionReader) GetMarketInfo(ctx context.Context, marketID uint64) (chain.MarketInfo, error) {
	if f.err != nil {
		return chain.MarketInfo{}, f.err
	}
	return chain.MarketInfo{OptionCount: 2}, nil
}

func (f *fakeOptionReader) GetMarketOption(ctx context.Context, marketID, optionID uint64) (chain.OptionInfo, error) {
	names := []string{"Yes", "No"}
	return chain.OptionInfo{
		Name:        names[optionID],
		TotalShares: big.NewInt(0),
		TotalVolume: big.NewInt(0),
		RawPrice:    big.NewInt(int64(50 + optionID)),
	}, nil
}

type fakeSink struct {
	batches [][]domain.Market
	err     error
}

func (f *fakeSink) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, markets)
	return nil
}

type captureBus struct {
	channels []string
	payloads [][]byte
}

func (b *captureBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
	return nil
}

func (b *captureBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *captureBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	return nil
}

func (b *captureBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func makeMarkets(n int, base uint64) []domain.Market {
	out := make([]domain.Market, n)
	for i := range out {
		out[i] = domain.Market{ID: base + uint64(i), Status: domain.MarketStatusActive}
	}
	return out
}

func TestMarketSyncerPaginatesFullSet(t *testing.T) {
	// Two full pages plus a partial one ends the pagination.
	source := &fakeSource{pages: [][]domain.Market{
		makeMarkets(100, 0),
		makeMarkets(100, 100),
		makeMarkets(7, 200),
	}}
	sink := &fakeSink{}
	bus := &captureBus{}

	s := NewMarketSyncer(source, &fakeOptionReader{}, sink, bus, slog.New(slog.DiscardHandler))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(sink.batches))
	}
	total := 0
	for _, b := range sink.batches {
		total += len(b)
	}
	if total != 207 {
		t.Errorf("total synced = %d, want 207", total)
	}
	if len(bus.channels) != 1 || bus.channels[0] != "ch:markets" {
		t.Errorf("announce channels = %v, want one ch:markets event", bus.channels)
	}
}

func TestMarketSyncerStopsOnShortPage(t *testing.T) {
	source := &fakeSource{pages: [][]domain.Market{makeMarkets(3, 0)}}
	sink := &fakeSink{}

	s := NewMarketSyncer(source, &fakeOptionReader{}, sink, &captureBus{}, slog.New(slog.DiscardHandler))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (short page ends pagination)", source.calls)
	}
}

func TestMarketSyncerPropagatesSinkError(t *testing.T) {
	source := &fakeSource{pages: [][]domain.Market{makeMarkets(5, 0)}}
	sink := &fakeSink{err: errors.New("db down")}

	s := NewMarketSyncer(source, &fakeOptionReader{}, sink, &captureBus{}, slog.New(slog.DiscardHandler))
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected sink error to propagate")
	}
}

func TestMarketSyncerFillsOptionsFromContract(t *testing.T) {
	// The subgraph produces markets without options; the contract views
	// must complete them before they reach the sink.
	source := &fakeSource{pages: [][]domain.Market{makeMarkets(1, 1)}}
	sink := &fakeSink{}

	s := NewMarketSyncer(source, &fakeOptionReader{}, sink, &captureBus{}, slog.New(slog.DiscardHandler))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("batches = %v, want one batch of one market", sink.batches)
	}
	got := sink.batches[0][0]
	if len(got.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(got.Options))
	}
	if got.Options[0].Name != "Yes" || got.Options[1].Name != "No" {
		t.Errorf("option names = %q, %q, want Yes, No", got.Options[0].Name, got.Options[1].Name)
	}
	if got.Options[1].RawPrice == nil || got.Options[1].RawPrice.Int64() != 51 {
		t.Errorf("option raw price = %v, want 51", got.Options[1].RawPrice)
	}
}

func TestMarketSyncerToleratesOptionReadFailure(t *testing.T) {
	// A flaky contract read must not stall the projection refresh.
	source := &fakeSource{pages: [][]domain.Market{makeMarkets(2, 0)}}
	sink := &fakeSink{}
	options := &fakeOptionReader{err: errors.New("rpc timeout")}

	s := NewMarketSyncer(source, options, sink, &captureBus{}, slog.New(slog.DiscardHandler))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("batches = %v, want the full page synced", sink.batches)
	}
}

func TestEqualOdds(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want bool
	}{
		{name: "equal", a: []float64{60, 40}, b: []float64{60, 40}, want: true},
		{name: "different values", a: []float64{60, 40}, b: []float64{59.9, 40.1}, want: false},
		{name: "different lengths", a: []float64{50, 50}, b: []float64{50}, want: false},
		{name: "both empty", a: nil, b: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equalOdds(tt.a, tt.b); got != tt.want {
				t.Errorf("equalOdds(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
