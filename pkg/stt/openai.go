package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"shopvox/pkg/audioconv"
)

// OpenAI sends each utterance to the hosted transcription endpoint as a
// 16-bit WAV upload.
type OpenAI struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func NewOpenAI(client openai.Client, model, language string) *OpenAI {
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	return &OpenAI{client: client, model: openai.AudioModel(model), language: language}
}

func (o *OpenAI) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", ErrNoAudio
	}

	data, err := audioconv.EncodeWAV(pcm, audioconv.TargetRate)
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "utterance.wav", "audio/wav"),
		Model: o.model,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

var (
	_ Transcriber = (*OpenAI)(nil)
	_ Transcriber = (*Whisper)(nil)
)
