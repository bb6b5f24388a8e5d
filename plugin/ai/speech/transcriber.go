// Package speech turns voice messages into text through the remote
// transcription endpoint, so spoken reminders flow into the same text
// pipeline as typed ones.
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Transcriber converts audio streams to text.
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a transcriber on an existing client. An empty model
// falls back to the default transcription model.
func NewTranscriber(client *openai.Client, model string) *Transcriber {
	if model == "" {
		model = "gpt-4o-mini-transcribe"
	}
	return &Transcriber{client: client, model: model}
}

// Transcribe sends the audio stream to the transcription endpoint and
// returns the recognized text. The filename carries the container format
// ("voice.ogg"), which the endpoint needs to decode the stream.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty transcription")
	}
	return text, nil
}
