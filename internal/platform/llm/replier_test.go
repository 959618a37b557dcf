package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type mockCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.req = req
	return m.resp, m.err
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestReply(t *testing.T) {
	mock := &mockCompleter{resp: chatResponse("Labas a lalla, rtahi w shrbi l-ma.")}
	r := NewReplier(mock, "gpt-4o-mini")

	week := 28
	got, err := r.Reply(context.Background(), "  عندي تعب  ", PatientContext{
		Name:            "Fatima",
		GestationalWeek: &week,
		RiskLevel:       "medium",
		ClinicalNotes:   "anemia follow-up",
		Transcript:      "Mother: سلام\nMamaAI: أهلا",
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "Labas a lalla, rtahi w shrbi l-ma." {
		t.Errorf("unexpected reply %q", got)
	}

	if mock.req.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", mock.req.Model)
	}
	if mock.req.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", mock.req.Temperature)
	}
	if len(mock.req.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(mock.req.Messages))
	}
	system := mock.req.Messages[0]
	if system.Role != openai.ChatMessageRoleSystem {
		t.Errorf("expected system role first, got %q", system.Role)
	}
	for _, want := range []string{"Mama AI", "Fatima", "Gestational week: 28", "medium", "anemia follow-up", "Mother: سلام"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	user := mock.req.Messages[1]
	if user.Role != openai.ChatMessageRoleUser || user.Content != "عندي تعب" {
		t.Errorf("expected trimmed latest message as user prompt, got %q/%q", user.Role, user.Content)
	}
}

func TestReply_EmptyChoiceFallsBack(t *testing.T) {
	for name, resp := range map[string]openai.ChatCompletionResponse{
		"no choices":    {},
		"blank content": chatResponse("   "),
	} {
		mock := &mockCompleter{resp: resp}
		r := NewReplier(mock, "gpt-4o-mini")
		got, err := r.Reply(context.Background(), "hello", PatientContext{})
		if err != nil {
			t.Fatalf("%s: Reply: %v", name, err)
		}
		if got != FallbackReply {
			t.Errorf("%s: expected fallback reply, got %q", name, got)
		}
	}
}

func TestReply_Error(t *testing.T) {
	mock := &mockCompleter{err: errors.New("rate limited")}
	r := NewReplier(mock, "gpt-4o-mini")
	if _, err := r.Reply(context.Background(), "hello", PatientContext{}); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestSystemPrompt_NoContext(t *testing.T) {
	got := systemPrompt(PatientContext{})
	if strings.Contains(got, "Current context") {
		t.Error("did not expect context block without patient fields")
	}
}
