// Package indexer is a GraphQL client for the Policast subgraph. The
// subgraph indexes contract events into queryable market and position
// entities; the sync loop reads them here and projects them into the
// local stores.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/policastlabs/policastd/internal/domain"
)

// Client is a GraphQL client for the Policast subgraph endpoint.
type Client struct {
	graphqlURL string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new subgraph client. graphqlURL is the full
// subgraph endpoint, e.g.
// "https://api.goldsky.com/api/public/.../subgraphs/policast/gn".
func NewClient(graphqlURL, apiKey string) *Client {
	return &Client{
		graphqlURL: graphqlURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchMarkets pages through the subgraph's market entities in creation
// order. Options and live odds are not indexed; the sync loop fills those
// in from contract views.
func (c *Client) FetchMarkets(ctx context.Context, first, skip int) ([]domain.Market, error) {
	query := `
		query Markets($first: Int!, $skip: Int!) {
			markets(
				first: $first
				skip: $skip
				orderBy: marketId
				orderDirection: asc
			) {
				marketId
				question
				description
				category
				marketType
				creator
				validated
				resolved
				invalidated
				disputed
				winningOptionId
				totalVolume
				endTime
				createdAt
				updatedAt
			}
		}
	`

	variables := map[string]any{
		"first": first,
		"skip":  skip,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("indexer: fetch markets: %w", err)
	}

	var result struct {
		Markets []struct {
			MarketID        string `json:"marketId"`
			Question        string `json:"question"`
			Description     string `json:"description"`
			Category        string `json:"category"`
			MarketType      string `json:"marketType"`
			Creator         string `json:"creator"`
			Validated       bool   `json:"validated"`
			Resolved        bool   `json:"resolved"`
			Invalidated     bool   `json:"invalidated"`
			Disputed        bool   `json:"disputed"`
			WinningOptionID string `json:"winningOptionId"`
			TotalVolume     string `json:"totalVolume"`
			EndTime         string `json:"endTime"`
			CreatedAt       string `json:"createdAt"`
			UpdatedAt       string `json:"updatedAt"`
		} `json:"markets"`
	}

	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("indexer: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(result.Markets))
	for _, e := range result.Markets {
		id, err := strconv.ParseUint(e.MarketID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("indexer: market id %q: %w", e.MarketID, err)
		}

		m := domain.Market{
			ID:          id,
			Question:    e.Question,
			Description: e.Description,
			Category:    parseCategory(e.Category),
			Creator:     strings.ToLower(e.Creator),
			FreeEntry:   e.MarketType != "0" && !strings.EqualFold(e.MarketType, "PAID"),
			Status:      statusOf(e.Validated, e.Resolved, e.Invalidated, e.Disputed),
			Volume:      parseBig(e.TotalVolume),
			EndTime:     parseUnix(e.EndTime),
			CreatedAt:   parseUnix(e.CreatedAt),
			UpdatedAt:   parseUnix(e.UpdatedAt),
		}
		if e.Resolved && e.WinningOptionID != "" {
			if win, err := strconv.ParseUint(e.WinningOptionID, 10, 64); err == nil {
				m.WinningOptionID = &win
			}
		}
		markets = append(markets, m)
	}

	return markets, nil
}

// FetchUserPositions returns a user's per-market share vectors. Shares
// come back as decimal strings and keep the token's 18-decimal scale.
func (c *Client) FetchUserPositions(ctx context.Context, user string) ([]domain.Position, error) {
	query := `
		query UserPositions($user: Bytes!) {
			userPositions(
				first: 1000
				where: { user: $user }
				orderBy: marketId
				orderDirection: asc
			) {
				id
				user
				marketId
				shares
			}
		}
	`

	variables := map[string]any{
		"user": strings.ToLower(user),
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("indexer: fetch positions for %s: %w", user, err)
	}

	var result struct {
		UserPositions []struct {
			ID       string   `json:"id"`
			User     string   `json:"user"`
			MarketID string   `json:"marketId"`
			Shares   []string `json:"shares"`
		} `json:"userPositions"`
	}

	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("indexer: decode positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(result.UserPositions))
	for _, e := range result.UserPositions {
		marketID, err := strconv.ParseUint(e.MarketID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("indexer: position market id %q: %w", e.MarketID, err)
		}
		shares := make([]*big.Int, len(e.Shares))
		for i, s := range e.Shares {
			shares[i] = parseBig(s)
		}
		positions = append(positions, domain.Position{
			ID:       e.ID,
			User:     strings.ToLower(e.User),
			MarketID: marketID,
			Shares:   shares,
		})
	}

	return positions, nil
}

// FetchLatestBlock returns the latest block number the subgraph has
// indexed, used to monitor indexing lag.
func (c *Client) FetchLatestBlock(ctx context.Context) (int64, error) {
	query := `
		query LatestBlock {
			_meta {
				block {
					number
				}
			}
		}
	`

	respData, err := c.doQuery(ctx, query, nil)
	if err != nil {
		return 0, fmt.Errorf("indexer: fetch latest block: %w", err)
	}

	var result struct {
		Meta struct {
			Block struct {
				Number int64 `json:"number"`
			} `json:"block"`
		} `json:"_meta"`
	}

	if err := json.Unmarshal(respData, &result); err != nil {
		return 0, fmt.Errorf("indexer: decode latest block: %w", err)
	}

	return result.Meta.Block.Number, nil
}

// statusOf maps the subgraph's lifecycle flags onto the projection's
// status enum. Disputed wins over resolved; invalidated over both.
func statusOf(validated, resolved, invalidated, disputed bool) domain.MarketStatus {
	switch {
	case invalidated:
		return domain.MarketStatusInvalidated
	case disputed:
		return domain.MarketStatusDisputed
	case resolved:
		return domain.MarketStatusResolved
	case validated:
		return domain.MarketStatusActive
	default:
		return domain.MarketStatusPending
	}
}

// parseCategory accepts both numeric enum values and display names; the
// subgraph schema has shipped both over time.
func parseCategory(s string) domain.MarketCategory {
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return domain.MarketCategory(n)
	}
	return domain.ParseCategory(strings.ToUpper(s))
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func parseUnix(s string) time.Time {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doQuery executes a GraphQL query and returns the raw "data" field.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
