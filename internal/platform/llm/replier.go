// Package llm generates the assistant's Darija replies through the OpenAI
// chat completion API.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const personaPrompt = `You are Mama AI, a warm and supportive Moroccan pregnancy assistant.
You speak fluently in Darija (Moroccan Arabic) and make pregnant people feel heard and safe.

Your role:
- Answer questions about pregnancy, nutrition, rest, and well-being in a caring way.
- Use Darija naturally; you may mix in French or standard Arabic when it fits.
- Never replace medical advice; encourage users to see a doctor or midwife when needed.
- Be reassuring, culturally aware, and respectful of Moroccan family and health practices.

Keep responses clear, concise, and supportive.`

// FallbackReply is sent when the model returns no content. Kept in Darija so
// the mother still gets a human answer.
const FallbackReply = "Ana smahiti, ma tqderch t7awl daba. Ila bghiti, 3awed t7awel w goli b 7aloha. Baraka min fadlik tsajli m3a tabiba wla qabla 7ta tqder t7awl m3ahum."

// PatientContext carries the profile fields woven into the system prompt.
type PatientContext struct {
	Name            string
	GestationalWeek *int
	RiskLevel       string
	ClinicalNotes   string
	Transcript      string
}

// ChatCompleter is the slice of the OpenAI client the replier uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Replier struct {
	client ChatCompleter
	model  string
}

func NewReplier(client ChatCompleter, model string) *Replier {
	return &Replier{client: client, model: model}
}

// Reply generates an assistant response to the latest message. Prior turns
// travel inside the system prompt as a rendered transcript; the user prompt
// is only the latest message.
func (r *Replier) Reply(ctx context.Context, message string, pc PatientContext) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(pc)},
			{Role: openai.ChatMessageRoleUser, Content: strings.TrimSpace(message)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return FallbackReply, nil
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return FallbackReply, nil
	}
	return content, nil
}

func systemPrompt(pc PatientContext) string {
	var ctxParts []string
	if pc.Name != "" {
		ctxParts = append(ctxParts, "Patient name: "+pc.Name)
	}
	if pc.GestationalWeek != nil {
		ctxParts = append(ctxParts, fmt.Sprintf("Gestational week: %d", *pc.GestationalWeek))
	}
	if pc.RiskLevel != "" {
		ctxParts = append(ctxParts, "Current risk level: "+pc.RiskLevel)
	}
	if pc.ClinicalNotes != "" {
		ctxParts = append(ctxParts, "Doctor / clinical notes: "+pc.ClinicalNotes)
	}
	if t := strings.TrimSpace(pc.Transcript); t != "" {
		ctxParts = append(ctxParts, "Recent conversation (use for continuity):\n"+t)
	}
	if len(ctxParts) == 0 {
		return personaPrompt
	}
	return personaPrompt +
		"\n\n--- Current context (use this to personalize your reply) ---\n" +
		strings.Join(ctxParts, "\n")
}
