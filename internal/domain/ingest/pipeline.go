// Package ingest drives inbound channel messages through normalization,
// deduplication, triage, persistence, alerting and reply dispatch.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamaguard/mamaguard/internal/domain/alert"
	"github.com/mamaguard/mamaguard/internal/domain/conversation"
	"github.com/mamaguard/mamaguard/internal/domain/patient"
	"github.com/mamaguard/mamaguard/internal/domain/triage"
	"github.com/mamaguard/mamaguard/internal/platform/llm"
)

// Inbound is one message unit extracted from a webhook delivery.
type Inbound struct {
	From    string
	Wamid   string
	Type    string
	Text    string
	AudioID string
}

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	// Done means every step ran, including reply dispatch.
	Done Outcome = "done"
	// Skipped means the message was dropped on purpose: a duplicate, or
	// audio that could not be turned into text. Nothing was persisted.
	Skipped Outcome = "skipped"
	// Failed means an unrecoverable step error ended the run early.
	Failed Outcome = "failed"
)

// sendTimeout bounds the outbound text send.
const sendTimeout = 10 * time.Second

// Channel is the messaging-provider surface the pipeline needs.
type Channel interface {
	SendText(ctx context.Context, to, body string) error
	SendAudio(ctx context.Context, to, mediaID string) error
	UploadMedia(ctx context.Context, audio []byte) (string, error)
	MediaURL(ctx context.Context, mediaID string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Transcriber converts voice notes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders reply text as audio. It is optional; a nil synthesizer
// disables voice replies.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Replier generates the assistant's answer.
type Replier interface {
	Reply(ctx context.Context, message string, pc llm.PatientContext) (string, error)
}

type Pipeline struct {
	patients      *patient.Service
	conversations *conversation.Service
	alerts        *alert.Service
	channel       Channel
	transcriber   Transcriber
	synthesizer   Synthesizer
	replier       Replier
	log           zerolog.Logger
}

func NewPipeline(
	patients *patient.Service,
	conversations *conversation.Service,
	alerts *alert.Service,
	channel Channel,
	transcriber Transcriber,
	synthesizer Synthesizer,
	replier Replier,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		patients:      patients,
		conversations: conversations,
		alerts:        alerts,
		channel:       channel,
		transcriber:   transcriber,
		synthesizer:   synthesizer,
		replier:       replier,
		log:           log,
	}
}

// Process runs one inbound message through the full state machine. Steps are
// strictly sequential; failures are logged here and reported only through
// the returned Outcome.
func (p *Pipeline) Process(ctx context.Context, in Inbound) Outcome {
	log := p.log.With().Str("wamid", in.Wamid).Str("from", in.From).Logger()

	text, ok := p.normalize(ctx, in, log)
	if !ok {
		return Skipped
	}

	// A dedup lookup failure stops the run. Proceeding as "not seen" could
	// answer the same message twice.
	seen, err := p.conversations.Seen(ctx, in.Wamid)
	if err != nil {
		log.Error().Err(err).Msg("dedup lookup failed")
		return Failed
	}
	if seen {
		log.Debug().Msg("duplicate delivery, skipping")
		return Skipped
	}

	pat, err := p.patients.FindOrCreateByPhone(ctx, in.From)
	if err != nil {
		log.Error().Err(err).Msg("patient resolution failed")
		return Failed
	}
	conv, err := p.conversations.EnsureActive(ctx, pat.ID)
	if err != nil {
		log.Error().Err(err).Msg("conversation resolution failed")
		return Failed
	}

	result := triage.Classify(text)

	source := conversation.SourceText
	if in.Type == "audio" {
		source = conversation.SourceVoice
	}
	msg, err := p.conversations.AppendPatient(ctx, conv.ID, text, map[string]interface{}{
		conversation.MetaWamid:   in.Wamid,
		conversation.MetaUrgency: string(result.Urgency),
		conversation.MetaSource:  source,
	})
	if err != nil {
		log.Error().Err(err).Msg("persist patient message failed")
		return Failed
	}

	// riskLevel is what the prompt reports: the flag as it stands after this
	// message, not the stale value loaded at resolution time.
	riskLevel := pat.RiskLevel
	if result.Urgency.NeedsAlert() {
		riskLevel = result.Urgency
		if _, err := p.alerts.Escalate(ctx, pat.ID, msg.ID, result); err != nil {
			log.Error().Err(err).Str("urgency", string(result.Urgency)).Msg("alert insert failed")
		}
		if err := p.patients.SetRiskLevel(ctx, pat.ID, result.Urgency); err != nil {
			log.Error().Err(err).Msg("risk level update failed")
		}
	}

	reply, err := p.replier.Reply(ctx, text, p.promptContext(ctx, pat, conv, riskLevel, log))
	if err != nil {
		log.Error().Err(err).Msg("reply generation failed")
		return Failed
	}

	p.dispatch(ctx, in, pat.PhoneNumber, reply, log)

	if _, err := p.conversations.AppendAssistant(ctx, conv.ID, reply, nil); err != nil {
		log.Error().Err(err).Msg("persist assistant message failed")
		return Failed
	}

	log.Info().Str("urgency", string(result.Urgency)).Msg("message processed")
	return Done
}

// normalize resolves the inbound unit to plain text. Audio that cannot be
// fetched or transcribed is dropped, not failed.
func (p *Pipeline) normalize(ctx context.Context, in Inbound, log zerolog.Logger) (string, bool) {
	if in.Type != "audio" {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			log.Debug().Msg("empty text message, skipping")
			return "", false
		}
		return text, true
	}

	if in.AudioID == "" {
		log.Warn().Msg("audio message without media id, skipping")
		return "", false
	}
	if p.transcriber == nil {
		log.Warn().Msg("no transcriber configured, skipping voice note")
		return "", false
	}
	url, err := p.channel.MediaURL(ctx, in.AudioID)
	if err != nil {
		log.Warn().Err(err).Msg("media url lookup failed, skipping voice note")
		return "", false
	}
	audio, err := p.channel.Download(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("media download failed, skipping voice note")
		return "", false
	}
	text, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		log.Warn().Err(err).Msg("transcription failed, skipping voice note")
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn().Msg("empty transcript, skipping voice note")
		return "", false
	}
	return text, true
}

// promptContext assembles patient profile and recent transcript for the
// reply generator. Lookup failures degrade to a thinner prompt.
func (p *Pipeline) promptContext(ctx context.Context, pat *patient.Patient, conv *conversation.Conversation, riskLevel triage.Urgency, log zerolog.Logger) llm.PatientContext {
	pc := llm.PatientContext{
		Name:            pat.Name,
		GestationalWeek: pat.GestationalWeek,
		RiskLevel:       string(riskLevel),
	}
	if pat.MedicalNotes != nil {
		pc.ClinicalNotes = *pat.MedicalNotes
	}
	recent, err := p.conversations.Recent(ctx, conv.ID)
	if err != nil {
		log.Warn().Err(err).Msg("context window fetch failed")
		return pc
	}
	pc.Transcript = conversation.Transcript(recent)
	return pc
}

// dispatch sends the text reply and, for voice-originated messages with a
// configured synthesizer, a spoken version. The two sends fail
// independently; neither is retried.
func (p *Pipeline) dispatch(ctx context.Context, in Inbound, to, reply string, log zerolog.Logger) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := p.channel.SendText(sendCtx, to, reply); err != nil {
		log.Error().Err(err).Msg("text send failed")
	}

	if in.Type != "audio" || p.synthesizer == nil {
		return
	}
	audio, err := p.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		log.Error().Err(err).Msg("speech synthesis failed")
		return
	}
	mediaID, err := p.channel.UploadMedia(ctx, audio)
	if err != nil {
		log.Error().Err(err).Msg("voice reply upload failed")
		return
	}
	if err := p.channel.SendAudio(ctx, to, mediaID); err != nil {
		log.Error().Err(err).Msg("voice reply send failed")
	}
}

