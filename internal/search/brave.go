package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shopvox/internal/retry"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave uses the Brave Search API. The key goes in X-Subscription-Token.
type Brave struct {
	APIKey   string
	Endpoint string

	client *http.Client
	retry  retry.Config
}

func NewBrave(apiKey string) *Brave {
	return NewBraveWithClient(apiKey, &http.Client{Timeout: 10 * time.Second})
}

func NewBraveWithClient(apiKey string, client *http.Client) *Brave {
	return &Brave{APIKey: apiKey, Endpoint: braveEndpoint, client: client, retry: retry.DefaultConfig()}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string) ([]Product, error) {
	if strings.TrimSpace(b.APIKey) == "" {
		return nil, fmt.Errorf("%w: brave API key is missing", ErrProvider)
	}

	endpoint := b.Endpoint + "?q=" + url.QueryEscape(query+shoppingSuffix)

	body, err := fetch(ctx, b.client, b.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode brave response: %v", ErrProvider, err)
	}

	products := make([]Product, 0, len(payload.Web.Results))
	for i, r := range payload.Web.Results {
		products = append(products, Product{
			Rank:        i + 1,
			Title:       stripTags(r.Title),
			Link:        r.URL,
			Description: stripTags(r.Description),
		})
	}
	return products, nil
}

// stripTags drops the <strong> highlighting Brave puts around matches and
// decodes entities so they are not read out literally.
func stripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
