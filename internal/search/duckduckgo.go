package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shopvox/internal/retry"
)

const (
	duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"
	shoppingSuffix     = " buy online"
)

// DuckDuckGo scrapes the DuckDuckGo HTML results page. No API key is needed.
type DuckDuckGo struct {
	Endpoint string
	// Suffix is appended to every query to bias results towards shops.
	Suffix string

	client *http.Client
	retry  retry.Config
}

func NewDuckDuckGo() *DuckDuckGo {
	return NewDuckDuckGoWithClient(&http.Client{Timeout: 10 * time.Second})
}

func NewDuckDuckGoWithClient(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{
		Endpoint: duckDuckGoEndpoint,
		Suffix:   shoppingSuffix,
		client:   client,
		retry:    retry.DefaultConfig(),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Product, error) {
	u, err := url.Parse(d.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %v", ErrProvider, err)
	}
	q := u.Query()
	q.Set("q", query+d.Suffix)
	u.RawQuery = q.Encode()

	body, err := fetch(ctx, d.client, d.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	return parseDuckDuckGo(body)
}

func parseDuckDuckGo(page []byte) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrProvider, err)
	}

	var products []Product
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a.result__a").First()
		if a.Length() == 0 {
			return
		}
		title := strings.TrimSpace(a.Text())
		if title == "" {
			return
		}
		link, _ := a.Attr("href")

		products = append(products, Product{
			Rank:        len(products) + 1,
			Title:       title,
			Link:        resolveRedirect(link),
			Description: strings.TrimSpace(s.Find("a.result__snippet").First().Text()),
		})
	})

	return products, nil
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=<target>" tracking links.
func resolveRedirect(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}
