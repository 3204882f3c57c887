package compress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ScaleDownURL     = "https://api.scaledown.xyz/compress/raw/"
	defaultModel     = "gpt-4o"
	scaleDownTimeout = 30 * time.Second
)

// ScaleDown calls the ScaleDown prompt compression API.
type ScaleDown struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

var _ Compressor = (*ScaleDown)(nil)

func NewScaleDown(apiKey, model string) *ScaleDown {
	return NewScaleDownWithClient(apiKey, model, ScaleDownURL, &http.Client{Timeout: scaleDownTimeout})
}

func NewScaleDownWithClient(apiKey, model, url string, client *http.Client) *ScaleDown {
	if model == "" {
		model = defaultModel
	}
	return &ScaleDown{apiKey: apiKey, model: model, url: url, httpClient: client}
}

func (s *ScaleDown) Name() string { return "scaledown" }

type scaleDownRequest struct {
	Context   string           `json:"context"`
	Prompt    string           `json:"prompt"`
	Model     string           `json:"model"`
	ScaleDown scaleDownOptions `json:"scaledown"`
}

type scaleDownOptions struct {
	Rate string `json:"rate"`
}

type scaleDownResponse struct {
	CompressedPrompt       string `json:"compressed_prompt"`
	OriginalPromptTokens   int    `json:"original_prompt_tokens"`
	CompressedPromptTokens int    `json:"compressed_prompt_tokens"`
}

func (s *ScaleDown) Compress(ctx context.Context, searchContext, prompt string) (Compressed, error) {
	if s.apiKey == "" {
		return Compressed{}, fmt.Errorf("%w: api key not set", ErrAuth)
	}

	payload, err := json.Marshal(scaleDownRequest{
		Context:   searchContext,
		Prompt:    prompt,
		Model:     s.model,
		ScaleDown: scaleDownOptions{Rate: "auto"},
	})
	if err != nil {
		return Compressed{}, fmt.Errorf("%w: encode request: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return Compressed{}, fmt.Errorf("%w: creating request: %v", ErrProvider, err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Compressed{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Compressed{}, fmt.Errorf("%w: scaledown http %d: %s", statusError(resp.StatusCode), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out scaleDownResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Compressed{}, fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
	}

	text := out.CompressedPrompt
	if text == "" {
		text = prompt
	}

	return Compressed{
		Text:             text,
		OriginalTokens:   out.OriginalPromptTokens,
		CompressedTokens: out.CompressedPromptTokens,
	}, nil
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return ErrQuota
	default:
		return ErrProvider
	}
}
