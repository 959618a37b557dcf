// Package whatsapp is a thin client for the WhatsApp Business Cloud API
// (Meta Graph API). It covers the operations the ingestion pipeline needs:
// sending text and audio, uploading media and fetching inbound media.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Graph API root, version pinned.
	DefaultBaseURL = "https://graph.facebook.com/v18.0"

	// SendTimeout bounds every outbound call so a slow provider cannot hold
	// a pipeline worker.
	SendTimeout = 10 * time.Second

	// maxMediaBytes caps inbound voice note downloads.
	maxMediaBytes = 25 << 20
)

type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(accessToken, phoneNumberID string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: SendTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textPayload struct {
	Body string `json:"body"`
}

type audioPayload struct {
	ID string `json:"id"`
}

type messagePayload struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type,omitempty"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textPayload  `json:"text,omitempty"`
	Audio            *audioPayload `json:"audio,omitempty"`
}

// SendText delivers a text message to the given phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.sendMessage(ctx, messagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textPayload{Body: body},
	})
}

// SendAudio delivers a previously uploaded audio attachment by its media id.
func (c *Client) SendAudio(ctx context.Context, to, mediaID string) error {
	return c.sendMessage(ctx, messagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "audio",
		Audio:            &audioPayload{ID: mediaID},
	})
}

func (c *Client) sendMessage(ctx context.Context, payload messagePayload) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// UploadMedia uploads MP3 audio and returns the media id to reference in a
// subsequent SendAudio call.
func (c *Client) UploadMedia(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := form.WriteField("type", "audio/mpeg"); err != nil {
		return "", err
	}
	part, err := form.CreateFormFile("file", "audio.mp3")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("media upload: status %d: %s", resp.StatusCode, detail)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media upload: decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("media upload: no id in response")
	}
	return out.ID, nil
}

// MediaURL resolves an inbound media id to its short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, mediaID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+mediaID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media lookup: status %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media lookup: decode response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("media lookup: no url in response")
	}
	return out.URL, nil
}

// Download fetches media content from a URL returned by MediaURL. The URL is
// bearer-authenticated like the API itself.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media download: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
}
