// Package summary turns a search result into the sentence the assistant
// speaks.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shopvox/internal/compress"
	"shopvox/internal/search"
)

// Prompt asks a summariser for a short spoken answer.
const Prompt = "Summarize the top 3 most relevant products for the user in a friendly, conversational way. Include product names and brief descriptions."

// BuildContext flattens the products into the text blob handed to the
// compressor and the summariser.
func BuildContext(query string, products []search.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User is searching for: %s\n\nSearch Results:\n", query)
	for _, p := range products {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   Link: %s\n\n", p.Rank, p.Title, p.Description, p.Link)
	}
	return b.String()
}

// Render is the plain spoken rendering of a result: a count followed by
// every title in relevance order.
func Render(res search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d %s for %s. Here are the top options:", res.Len(), plural(res.Len()), res.Query())
	for _, p := range res.Products() {
		fmt.Fprintf(&b, "\n%d. %s", p.Rank, p.Title)
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return "result"
	}
	return "results"
}

// Request carries everything a Summarizer may use. Prompt is the
// compressed prompt when compression succeeded, the original otherwise.
type Request struct {
	Result  search.Result
	Context string
	Prompt  string
}

type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// Template renders the result without any model.
type Template struct{}

func (Template) Summarize(_ context.Context, req Request) (string, error) {
	return Render(req.Result), nil
}

// Pipeline runs the optional compression step and then the summariser.
// Both steps are best effort: any failure degrades to Render.
type Pipeline struct {
	compressor compress.Compressor
	summarizer Summarizer
	logger     *slog.Logger
}

func NewPipeline(c compress.Compressor, s Summarizer, logger *slog.Logger) *Pipeline {
	if c == nil {
		c = compress.Noop{}
	}
	if s == nil {
		s = Template{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{compressor: c, summarizer: s, logger: logger}
}

func (p *Pipeline) Summarize(ctx context.Context, res search.Result) string {
	req := Request{
		Result:  res,
		Context: BuildContext(res.Query(), res.Products()),
		Prompt:  Prompt,
	}

	out, err := p.compressor.Compress(ctx, req.Context, req.Prompt)
	switch {
	case err != nil:
		p.logger.Warn("compression skipped", "compressor", p.compressor.Name(), "err", err)
	case out.OriginalTokens > 0:
		p.logger.Info("prompt compressed",
			"compressor", p.compressor.Name(),
			"original_tokens", out.OriginalTokens,
			"compressed_tokens", out.CompressedTokens,
			"saved", fmt.Sprintf("%.1f%%", out.Savings()),
		)
		req.Prompt = out.Text
	default:
		req.Prompt = out.Text
	}

	text, err := p.summarizer.Summarize(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			p.logger.Warn("summariser failed, using plain rendering", "err", err)
		}
		return Render(res)
	}
	return text
}
