// Package compress shrinks the search context before it is summarised.
//
// Compression is an optimisation only. Callers must treat every error as
// "use the uncompressed prompt" and carry on.
package compress

import (
	"context"
	"errors"
)

var (
	ErrNetwork  = errors.New("compression network failure")
	ErrAuth     = errors.New("compression auth failure")
	ErrQuota    = errors.New("compression quota exceeded")
	ErrProvider = errors.New("compression provider failure")
)

// Compressed is the provider's answer. Token counts are zero when the
// provider did not report them.
type Compressed struct {
	Text             string
	OriginalTokens   int
	CompressedTokens int
}

// Savings is the share of tokens removed, in percent.
func (c Compressed) Savings() float64 {
	if c.OriginalTokens <= 0 {
		return 0
	}
	return float64(c.OriginalTokens-c.CompressedTokens) / float64(c.OriginalTokens) * 100
}

type Compressor interface {
	Compress(ctx context.Context, searchContext, prompt string) (Compressed, error)
	Name() string
}

// Noop returns the prompt untouched. It is selected when no compression
// backend is configured.
type Noop struct{}

var _ Compressor = Noop{}

func (Noop) Name() string { return "none" }

func (Noop) Compress(_ context.Context, _, prompt string) (Compressed, error) {
	return Compressed{Text: prompt}, nil
}
