// Package listing implements the client-side market list views: text search,
// category filter, status partition, and the marketplace sort orders. All
// functions are pure and operate on lists the indexer already returned.
package listing

import (
	"sort"
	"strings"

	"github.com/policastlabs/policastd/internal/domain"
)

// SortOrder selects how a filtered market list is ordered.
type SortOrder string

const (
	// SortNewest orders by creation time, most recent first.
	SortNewest SortOrder = "newest"
	// SortEndingSoon orders by end time, soonest first.
	SortEndingSoon SortOrder = "ending-soon"
	// SortPopular orders by cumulative volume, highest first.
	SortPopular SortOrder = "popular"
)

// CategoryAll disables the category filter.
const CategoryAll = "ALL"

// Filter holds the marketplace filter controls.
type Filter struct {
	Search   string // case-insensitive substring match on the question
	Category string // display name, or CategoryAll
	Status   domain.MarketStatus
}

// Apply returns the markets matching every set filter, preserving input
// order. An empty Status matches all statuses.
func Apply(markets []domain.Market, f Filter) []domain.Market {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if query != "" && !strings.Contains(strings.ToLower(m.Question), query) {
			continue
		}
		if f.Category != "" && f.Category != CategoryAll && m.Category.String() != f.Category {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Sort orders markets by the given sort order. The input slice is not
// modified. Unknown orders fall back to SortNewest.
func Sort(markets []domain.Market, order SortOrder) []domain.Market {
	out := make([]domain.Market, len(markets))
	copy(out, markets)

	switch order {
	case SortEndingSoon:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EndTime.Before(out[j].EndTime)
		})
	case SortPopular:
		sort.SliceStable(out, func(i, j int) bool {
			vi, vj := out[i].Volume, out[j].Volume
			if vi == nil || vj == nil {
				return vj == nil && vi != nil
			}
			return vi.Cmp(vj) > 0
		})
	default: // SortNewest
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// Partition splits markets into the Active and Resolved tab sets. Every
// market lands in at most one bucket; Pending, Invalidated, and Disputed
// markets appear in neither tab.
func Partition(markets []domain.Market) (active, resolved []domain.Market) {
	for _, m := range markets {
		switch m.Status {
		case domain.MarketStatusActive:
			active = append(active, m)
		case domain.MarketStatusResolved:
			resolved = append(resolved, m)
		}
	}
	return active, resolved
}
