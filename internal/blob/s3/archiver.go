package s3blob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/policastlabs/policastd/internal/domain"
)

// MarketTradeStore is the slice of the trade store the archiver needs:
// the full trade history of one market, no pagination.
type MarketTradeStore interface {
	ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.TradeRecord, error)
}

// snapshot is the archived document for one settled market.
type snapshot struct {
	Market     domain.Market        `json:"market"`
	FinalOdds  []float64            `json:"final_odds"`
	Trades     []domain.TradeRecord `json:"trades"`
	ArchivedAt time.Time            `json:"archived_at"`
}

// Archiver implements domain.Archiver by bundling a settled market, its
// final odds, and its trade log into a JSON document uploaded to blob
// storage. Rows are not deleted here; pruning the primary store is a
// separate, explicit step.
type Archiver struct {
	writer domain.BlobWriter
	trades MarketTradeStore
}

// NewArchiver creates an Archiver writing through the given BlobWriter.
func NewArchiver(writer domain.BlobWriter, trades MarketTradeStore) *Archiver {
	return &Archiver{
		writer: writer,
		trades: trades,
	}
}

// ArchiveResolved snapshots a resolved or invalidated market to
// archive/markets/{id}.json.
func (a *Archiver) ArchiveResolved(ctx context.Context, market domain.Market, finalOdds []float64) error {
	trades, err := a.trades.ListByMarket(ctx, market.ID, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("s3blob: archive market %d trades: %w", market.ID, err)
	}

	doc := snapshot{
		Market:     market,
		FinalOdds:  finalOdds,
		Trades:     trades,
		ArchivedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot for market %d: %w", market.ID, err)
	}

	key := fmt.Sprintf("archive/markets/%d.json", market.ID)
	if err := a.writer.Write(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive market %d: %w", market.ID, err)
	}
	return nil
}

var _ domain.Archiver = (*Archiver)(nil)
