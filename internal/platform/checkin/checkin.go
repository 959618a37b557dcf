// Package checkin sends proactive Darija check-in questions to enrolled
// patients, either on a cron schedule or through a secret-guarded HTTP
// trigger.
package checkin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mamaguard/mamaguard/internal/domain/patient"
	"github.com/mamaguard/mamaguard/internal/platform/llm"
)

// runTimeout bounds a full check-in sweep.
const runTimeout = 5 * time.Minute

// maxPatientsPerRun caps how many patients one sweep contacts.
const maxPatientsPerRun = 500

// Sender delivers check-in messages on the channel.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Replier generates the per-patient check-in question.
type Replier interface {
	Reply(ctx context.Context, message string, pc llm.PatientContext) (string, error)
}

type Runner struct {
	patients *patient.Service
	replier  Replier
	sender   Sender
	log      zerolog.Logger
}

func NewRunner(patients *patient.Service, replier Replier, sender Sender, log zerolog.Logger) *Runner {
	return &Runner{patients: patients, replier: replier, sender: sender, log: log}
}

// Run sweeps all enrolled patients and sends each a personalized check-in.
// Per-patient failures are logged and skipped; the sweep continues.
func (r *Runner) Run(ctx context.Context) (sent int, err error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	patients, _, err := r.patients.List(ctx, maxPatientsPerRun, 0)
	if err != nil {
		return 0, fmt.Errorf("list patients: %w", err)
	}

	for _, p := range patients {
		if err := r.checkIn(ctx, p); err != nil {
			r.log.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("check-in skipped")
			continue
		}
		sent++
	}
	r.log.Info().Int("sent", sent).Int("patients", len(patients)).Msg("check-in sweep finished")
	return sent, nil
}

func (r *Runner) checkIn(ctx context.Context, p *patient.Patient) error {
	var b strings.Builder
	b.WriteString("It is check-in time.")
	if p.GestationalWeek != nil {
		fmt.Fprintf(&b, " This mother is in week %d.", *p.GestationalWeek)
	}
	if p.MedicalNotes != nil && *p.MedicalNotes != "" {
		fmt.Fprintf(&b, " Based on her notes (%s),", *p.MedicalNotes)
	}
	b.WriteString(" ask a supportive question in Darija.")

	question, err := r.replier.Reply(ctx, b.String(), llm.PatientContext{Name: p.Name})
	if err != nil {
		return fmt.Errorf("generate question: %w", err)
	}
	if err := r.sender.SendText(ctx, p.PhoneNumber, question); err != nil {
		return fmt.Errorf("send question: %w", err)
	}
	return nil
}

// Scheduler runs the sweep on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewScheduler(runner *Runner, schedule string, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := runner.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("scheduled check-in failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid check-in schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("check-in scheduler started")
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Handler exposes the sweep as an HTTP trigger for external cron services.
type Handler struct {
	runner *Runner
	secret string
}

func NewHandler(runner *Runner, secret string) *Handler {
	return &Handler{runner: runner, secret: secret}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/cron/check-in", h.Trigger)
}

func (h *Handler) Trigger(c echo.Context) error {
	if c.Request().Header.Get("Authorization") != "Bearer "+h.secret {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	sent, err := h.runner.Run(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "sent": sent})
}
