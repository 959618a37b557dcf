package conversation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mamaguard/mamaguard/internal/domain/patient"
	"github.com/mamaguard/mamaguard/pkg/pagination"
)

// DoctorLabel prefixes clinician messages on the channel so mothers can tell
// them apart from assistant replies. The stored row keeps the raw text.
const DoctorLabel = "👨‍⚕️ [Risala min tbib]:"

// Sender delivers outbound text on the messaging channel.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

type Handler struct {
	svc      *Service
	patients *patient.Service
	sender   Sender
	log      zerolog.Logger
}

func NewHandler(svc *Service, patients *patient.Service, sender Sender, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, patients: patients, sender: sender, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/conversations/:id/messages", h.ListMessages)
	api.POST("/messages/send", h.SendMessage)
}

func (h *Handler) ListMessages(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMessages(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type sendRequest struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	Message        string    `json:"message"`
}

// SendMessage stores a clinician message and relays it to the patient's
// channel in the background. The HTTP response does not wait for delivery.
func (h *Handler) SendMessage(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.ConversationID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id is required")
	}

	msg, err := h.svc.AppendAssistant(c.Request().Context(), req.ConversationID, content,
		map[string]interface{}{MetaSource: SourceDoctorDashboard})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save message")
	}

	if req.PatientID != uuid.Nil && h.sender != nil {
		p, err := h.patients.Get(c.Request().Context(), req.PatientID)
		if err != nil {
			h.log.Error().Err(err).Str("patient_id", req.PatientID.String()).Msg("doctor send: patient lookup failed")
		} else {
			go h.relay(p.PhoneNumber, content)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg})
}

func (h *Handler) relay(to, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	body := DoctorLabel + "\n\n" + content
	if err := h.sender.SendText(ctx, to, body); err != nil {
		h.log.Error().Err(err).Str("to", to).Msg("doctor send: channel delivery failed")
	}
}
