package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopvox/internal/retry"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	APIKey   string
	Endpoint string
	// Depth is Tavily's search_depth, "basic" or "advanced".
	Depth string

	client *http.Client
	retry  retry.Config
}

func NewTavily(apiKey, depth string) *Tavily {
	return NewTavilyWithClient(apiKey, depth, &http.Client{Timeout: 10 * time.Second})
}

func NewTavilyWithClient(apiKey, depth string, client *http.Client) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{APIKey: apiKey, Endpoint: tavilyEndpoint, Depth: depth, client: client, retry: retry.DefaultConfig()}
}

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) Search(ctx context.Context, query string) ([]Product, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, fmt.Errorf("%w: tavily API key is missing", ErrProvider)
	}

	payload, err := json.Marshal(map[string]any{
		"query":        query + shoppingSuffix,
		"search_depth": t.Depth,
		"max_results":  10,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrProvider, err)
	}

	body, err := fetch(ctx, t.client, t.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode tavily response: %v", ErrProvider, err)
	}

	products := make([]Product, 0, len(response.Results))
	for i, r := range response.Results {
		products = append(products, Product{Rank: i + 1, Title: r.Title, Link: r.URL, Description: r.Content})
	}
	return products, nil
}
