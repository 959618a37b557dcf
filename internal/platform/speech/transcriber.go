// Package speech holds the voice-note collaborators: Whisper transcription
// for inbound audio and ElevenLabs synthesis for voice replies.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// AudioTranscriber is the slice of the OpenAI client the transcriber uses.
type AudioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type Transcriber struct {
	client AudioTranscriber
}

func NewTranscriber(client AudioTranscriber) *Transcriber {
	return &Transcriber{client: client}
}

// Transcribe converts a voice note to text. The language hint steers Whisper
// toward Darija/Arabic.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio.ogg",
		Reader:   bytes.NewReader(audio),
		Language: "ar",
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
