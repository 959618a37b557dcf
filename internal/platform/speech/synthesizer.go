package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultElevenLabsURL is the ElevenLabs API root.
const DefaultElevenLabsURL = "https://api.elevenlabs.io"

// Synthesizer turns text into MP3 audio through the ElevenLabs
// text-to-speech API.
type Synthesizer struct {
	baseURL    string
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

type SynthesizerOption func(*Synthesizer)

func WithBaseURL(u string) SynthesizerOption {
	return func(s *Synthesizer) { s.baseURL = u }
}

func WithHTTPClient(hc *http.Client) SynthesizerOption {
	return func(s *Synthesizer) { s.httpClient = hc }
}

func NewSynthesizer(apiKey, voiceID string, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		baseURL:    DefaultElevenLabsURL,
		apiKey:     apiKey,
		voiceID:    voiceID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns MP3 bytes for the given text. The multilingual model
// handles the Darija/French mix of the replies.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech synthesis: status %d: %s", resp.StatusCode, detail)
	}
	return io.ReadAll(resp.Body)
}
