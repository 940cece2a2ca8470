package listing

import (
	"math/big"
	"testing"
	"time"

	"github.com/policastlabs/policastd/internal/domain"
)

func sampleMarkets() []domain.Market {
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Market{
		{
			ID: 1, Question: "Will Bitcoin reach $100,000 by the end of 2024?",
			Category: domain.CategoryCrypto, Status: domain.MarketStatusActive,
			Volume:  big.NewInt(125420),
			EndTime: base.AddDate(0, 4, 0), CreatedAt: base,
		},
		{
			ID: 2, Question: "Who will win the 2024 US Presidential Election?",
			Category: domain.CategoryPolitics, Status: domain.MarketStatusActive,
			Volume:  big.NewInt(2340123),
			EndTime: base.AddDate(0, 3, 0), CreatedAt: base.AddDate(0, 0, 5),
		},
		{
			ID: 3, Question: "Did the Fed raise interest rates in Q2 2024?",
			Category: domain.CategoryFinance, Status: domain.MarketStatusResolved,
			Volume:  big.NewInt(550000),
			EndTime: base.AddDate(0, -1, 0), CreatedAt: base.AddDate(0, -2, 0),
		},
		{
			ID: 4, Question: "Will OpenAI release GPT-5 before 2025?",
			Category: domain.CategoryTech, Status: domain.MarketStatusPending,
			Volume:  big.NewInt(0),
			EndTime: base.AddDate(0, 5, 0), CreatedAt: base.AddDate(0, 0, 10),
		},
	}
}

func ids(markets []domain.Market) []uint64 {
	out := make([]uint64, len(markets))
	for i, m := range markets {
		out[i] = m.ID
	}
	return out
}

func TestApplySearchCaseInsensitive(t *testing.T) {
	got := Apply(sampleMarkets(), Filter{Search: "bitcoin"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("search %q matched %v, want market 1", "bitcoin", ids(got))
	}
	if got := Apply(sampleMarkets(), Filter{Search: "BITCOIN"}); len(got) != 1 {
		t.Errorf("uppercase search matched %v, want market 1", ids(got))
	}
}

func TestApplyCategory(t *testing.T) {
	got := Apply(sampleMarkets(), Filter{Category: "CRYPTO"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("category CRYPTO matched %v, want [1]", ids(got))
	}
	if got := Apply(sampleMarkets(), Filter{Category: CategoryAll}); len(got) != 4 {
		t.Errorf("category ALL matched %d markets, want 4", len(got))
	}
}

func TestApplyStatus(t *testing.T) {
	got := Apply(sampleMarkets(), Filter{Status: domain.MarketStatusResolved})
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("status resolved matched %v, want [3]", ids(got))
	}
}

func TestPartitionExhaustiveDisjoint(t *testing.T) {
	markets := sampleMarkets()
	active, resolved := Partition(markets)

	seen := map[uint64]int{}
	for _, m := range active {
		if m.Status != domain.MarketStatusActive {
			t.Errorf("active bucket contains %d with status %s", m.ID, m.Status)
		}
		seen[m.ID]++
	}
	for _, m := range resolved {
		if m.Status != domain.MarketStatusResolved {
			t.Errorf("resolved bucket contains %d with status %s", m.ID, m.Status)
		}
		seen[m.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("market %d appears in both buckets", id)
		}
	}
	// Every active-or-resolved market is in exactly one bucket.
	for _, m := range markets {
		if m.Status == domain.MarketStatusActive || m.Status == domain.MarketStatusResolved {
			if seen[m.ID] != 1 {
				t.Errorf("market %d with status %s appears %d times", m.ID, m.Status, seen[m.ID])
			}
		}
	}
}

func TestSortOrders(t *testing.T) {
	markets := sampleMarkets()

	newest := Sort(markets, SortNewest)
	if got := ids(newest); got[0] != 4 || got[1] != 2 {
		t.Errorf("newest order = %v, want [4 2 1 3]", got)
	}

	ending := Sort(markets, SortEndingSoon)
	if got := ids(ending); got[0] != 3 || got[len(got)-1] != 4 {
		t.Errorf("ending-soon order = %v, want [3 2 1 4]", got)
	}

	popular := Sort(markets, SortPopular)
	if got := ids(popular); got[0] != 2 {
		t.Errorf("popular order = %v, want market 2 first", got)
	}
}
