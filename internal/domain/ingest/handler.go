package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Enqueuer accepts inbound units for background processing.
type Enqueuer interface {
	Enqueue(in Inbound) bool
}

// Handler is the channel provider's webhook surface: the verification
// handshake and the message-delivery endpoint.
type Handler struct {
	queue       Enqueuer
	verifyToken string
	log         zerolog.Logger
}

func NewHandler(queue Enqueuer, verifyToken string, log zerolog.Logger) *Handler {
	return &Handler{queue: queue, verifyToken: verifyToken, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/webhook", h.Verify)
	e.POST("/api/webhook", h.Receive)
}

// Verify answers the provider's subscription handshake.
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.NoContent(http.StatusForbidden)
}

type deliveryMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *struct {
		ID string `json:"id"`
	} `json:"audio"`
}

type deliveryPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []deliveryMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Receive accepts a delivery, hands any message unit to the queue and
// acknowledges immediately. Business failures never surface as non-200; the
// provider would retry and amplify duplicates.
func (h *Handler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	var payload deliveryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	msg, ok := firstMessage(payload)
	if !ok {
		// Status callbacks and other non-message deliveries.
		return c.NoContent(http.StatusOK)
	}

	in := Inbound{From: msg.From, Wamid: msg.ID, Type: msg.Type}
	if msg.Text != nil {
		in.Text = msg.Text.Body
	}
	if msg.Audio != nil {
		in.AudioID = msg.Audio.ID
	}
	h.queue.Enqueue(in)
	return c.NoContent(http.StatusOK)
}

func firstMessage(p deliveryPayload) (deliveryMessage, bool) {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return change.Value.Messages[0], true
			}
		}
	}
	return deliveryMessage{}, false
}
