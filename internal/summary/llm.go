package summary

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

const systemPrompt = `
You are the voice of a shopping assistant. Your reply is read aloud.

RULES:
1. Answer in at most four short sentences.
2. Mention product names exactly as given.
3. No markdown, no lists, no links, no emoji.
4. Never invent prices or products that are not in the search results.
`

// LLM asks an OpenAI chat model to phrase the summary.
type LLM struct {
	client openai.Client
	model  openai.ChatModel
}

func NewLLM(client openai.Client, model string) *LLM {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &LLM{client: client, model: openai.ChatModel(model)}
}

func (l *LLM) Summarize(ctx context.Context, req Request) (string, error) {
	user := req.Prompt + "\n\n" + req.Context

	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
		Model: l.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty message content")
	}

	log.Debug("Summarised", "model", l.model, "data", content)

	return content, nil
}
