// Package polymarket implements the REST clients for Polymarket's Gamma
// (market discovery) and CLOB (authenticated order book) APIs.
package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"wxarb/internal/domain"
)

// GammaClient is the REST client for the Gamma API, which provides market
// discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TemperatureBrackets returns the bracket markets of the daily
// high-temperature event with the given slug, sorted by lower bound.
// Markets whose labels do not parse as temperature ranges are skipped; an
// event with no parseable markets returns an empty slice, not an error.
// A missing event also returns an empty slice: for the scanner "no event
// yet" and "event with no markets" are the same no-market condition.
func (g *GammaClient) TemperatureBrackets(ctx context.Context, slug string) ([]domain.Bracket, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get event %s: %w", slug, err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	event := events[0]
	brackets := make([]domain.Bracket, 0, len(event.Markets))
	for i := range event.Markets {
		b, err := event.Markets[i].ToBracket()
		if err != nil {
			if errors.Is(err, domain.ErrUnparseableBracket) {
				continue
			}
			return nil, err
		}
		brackets = append(brackets, b)
	}

	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].LowerF < brackets[j].LowerF
	})

	return brackets, nil
}

// doGet sends a GET request and returns the raw response body.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
