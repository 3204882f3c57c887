package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopvox/internal/retry"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProvider struct {
	products []Product
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]Product, error) {
	f.calls++
	return f.products, f.err
}

func titles(n int) []Product {
	out := make([]Product, n)
	for i := range out {
		out[i] = Product{Rank: i + 1, Title: fmt.Sprintf("Mouse %d", i+1), Description: "desc"}
	}
	return out
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestStage_TruncatesInProviderOrder(t *testing.T) {
	p := &fakeProvider{products: titles(12)}
	stage := NewStage(p, 5, discard)

	res, err := stage.Search(context.Background(), "wireless mouse")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Len() != 5 {
		t.Fatalf("Len = %d, want 5", res.Len())
	}
	for i, got := range res.Titles() {
		if want := fmt.Sprintf("Mouse %d", i+1); got != want {
			t.Errorf("title %d = %q, want %q", i, got, want)
		}
	}
	if res.Query() != "wireless mouse" {
		t.Errorf("Query = %q", res.Query())
	}
}

func TestStage_EmptyQueryRejectedBeforeProvider(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		p := &fakeProvider{products: titles(3)}
		_, err := NewStage(p, 5, discard).Search(context.Background(), q)
		if !errors.Is(err, ErrEmptyQuery) || !errors.Is(err, ErrNoResults) {
			t.Errorf("Search(%q) err = %v, want ErrEmptyQuery", q, err)
		}
		if p.calls != 0 {
			t.Errorf("Search(%q) called provider %d times", q, p.calls)
		}
	}
}

func TestStage_NoResults(t *testing.T) {
	_, err := NewStage(&fakeProvider{}, 5, discard).Search(context.Background(), "unicorn saddle")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestStage_PropagatesNetworkError(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("%w: connection refused", ErrNetwork)}
	_, err := NewStage(p, 5, discard).Search(context.Background(), "keyboard")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestStage_DefaultsAndClipping(t *testing.T) {
	long := strings.Repeat("x", 400)
	p := &fakeProvider{products: []Product{{Title: "A", Description: long}, {Title: "B"}}}
	stage := NewStage(p, 0, nil)
	if stage.Limit() != DefaultLimit {
		t.Errorf("Limit = %d, want %d", stage.Limit(), DefaultLimit)
	}

	res, err := stage.Search(context.Background(), "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	products := res.Products()
	if got := len([]rune(products[0].Description)); got != maxDescription {
		t.Errorf("description length = %d, want %d", got, maxDescription)
	}
	if products[1].Description != noDescription {
		t.Errorf("empty description = %q, want %q", products[1].Description, noDescription)
	}

	products[0].Title = "mutated"
	if res.Products()[0].Title != "A" {
		t.Error("Result exposed its internal slice")
	}
}

const ddgPage = `<html><body>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fshop.example%2Fmouse1&rut=x">Logitech M185 Wireless Mouse</a></h2>
  <a class="result__snippet" href="#">Compact <b>wireless</b> mouse with 12-month battery.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://shop.example/mouse2">Razer Orochi V2</a></h2>
</div>
<div class="result result--ad"><span>sponsored, no title link</span></div>
<div class="result results_links">
  <h2><a class="result__a" href="https://shop.example/mouse3">Microsoft Bluetooth Mouse</a></h2>
  <a class="result__snippet">Slim design.</a>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, ddgPage)
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(srv.Client())
	d.Endpoint = srv.URL + "/html/"

	products, err := d.Search(context.Background(), "wireless mouse")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotQuery != "wireless mouse buy online" {
		t.Errorf("q = %q", gotQuery)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(products) != 3 {
		t.Fatalf("got %d products, want 3: %+v", len(products), products)
	}
	want := []Product{
		{Rank: 1, Title: "Logitech M185 Wireless Mouse", Link: "https://shop.example/mouse1", Description: "Compact wireless mouse with 12-month battery."},
		{Rank: 2, Title: "Razer Orochi V2", Link: "https://shop.example/mouse2", Description: ""},
		{Rank: 3, Title: "Microsoft Bluetooth Mouse", Link: "https://shop.example/mouse3", Description: "Slim design."},
	}
	for i := range want {
		if products[i] != want[i] {
			t.Errorf("product %d = %+v, want %+v", i, products[i], want[i])
		}
	}
}

func TestDuckDuckGo_ServerErrorIsProviderFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDuckDuckGoWithClient(srv.Client())
	d.Endpoint = srv.URL
	d.retry = fastRetry()

	_, err := d.Search(context.Background(), "mouse")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestDuckDuckGo_UnreachableIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	d := NewDuckDuckGoWithClient(&http.Client{Timeout: time.Second})
	d.Endpoint = endpoint

	_, err := d.Search(context.Background(), "mouse")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestBrave_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "brave-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"web":{"results":[
			{"title":"<strong>Wireless</strong> Mouse","url":"https://a.example","description":"Fast"},
			{"title":"Gaming Mouse","url":"https://b.example","description":"RGB"}]}}`)
	}))
	defer srv.Close()

	b := NewBraveWithClient("brave-key", srv.Client())
	b.Endpoint = srv.URL

	products, err := b.Search(context.Background(), "mouse")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 2 || products[0].Title != "Wireless Mouse" || products[1].Link != "https://b.example" {
		t.Errorf("products = %+v", products)
	}

	b.APIKey = "wrong"
	if _, err := b.Search(context.Background(), "mouse"); !errors.Is(err, ErrProvider) {
		t.Errorf("bad key err = %v, want ErrProvider", err)
	}

	b.APIKey = ""
	if _, err := b.Search(context.Background(), "mouse"); !errors.Is(err, ErrProvider) {
		t.Errorf("missing key err = %v, want ErrProvider", err)
	}
}

func TestStripTags(t *testing.T) {
	tests := map[string]string{
		"<strong>Logitech</strong> M720":     "Logitech M720",
		"Tom &amp; Jerry&#x27;s  mouse pad ": "Tom & Jerry's  mouse pad",
		"plain":                              "plain",
	}
	for in, want := range tests {
		if got := stripTags(in); got != want {
			t.Errorf("stripTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTavily_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer tv-key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"results":[{"title":"Desk Lamp","url":"https://lamp.example","content":"LED"}]}`)
	}))
	defer srv.Close()

	tv := NewTavilyWithClient("tv-key", "", srv.Client())
	tv.Endpoint = srv.URL

	products, err := tv.Search(context.Background(), "lamp")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Desk Lamp" || products[0].Description != "LED" {
		t.Errorf("products = %+v", products)
	}
	if tv.Depth != "basic" {
		t.Errorf("Depth = %q, want basic", tv.Depth)
	}
}

func TestFallback(t *testing.T) {
	down := &fakeProvider{err: fmt.Errorf("%w: timeout", ErrNetwork)}
	empty := &fakeProvider{}
	good := &fakeProvider{products: titles(2)}

	products, err := NewFallback(discard, down, empty, good).Search(context.Background(), "mouse")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("got %d products, want 2", len(products))
	}
	if down.calls != 1 || empty.calls != 1 || good.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", down.calls, empty.calls, good.calls)
	}

	_, err = NewFallback(discard, down, &fakeProvider{err: fmt.Errorf("%w: 500", ErrProvider)}).Search(context.Background(), "mouse")
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, ErrProvider) {
		t.Errorf("joined err = %v, want both ErrNetwork and ErrProvider", err)
	}

	products, err = NewFallback(discard, &fakeProvider{}, &fakeProvider{}).Search(context.Background(), "mouse")
	if err != nil || len(products) != 0 {
		t.Errorf("all empty = %v, %v; want no products and nil error", products, err)
	}
}
