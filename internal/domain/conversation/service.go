package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ContextWindow is the number of prior messages handed to the reply
// generator as conversational context.
const ContextWindow = 5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureActive returns the patient's most recent conversation, creating one
// when the patient has none yet.
func (s *Service) EnsureActive(ctx context.Context, patientID uuid.UUID) (*Conversation, error) {
	c, err := s.repo.LatestByPatient(ctx, patientID)
	if err == nil {
		return c, nil
	}
	if err != ErrNotFound {
		return nil, fmt.Errorf("latest conversation: %w", err)
	}
	c = &Conversation{PatientID: patientID, Status: "active"}
	if err := s.repo.CreateConversation(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// Seen reports whether a provider message id was already recorded. A lookup
// failure is returned as an error so callers stop instead of risking a
// duplicate reply.
func (s *Service) Seen(ctx context.Context, wamid string) (bool, error) {
	if wamid == "" {
		return false, nil
	}
	return s.repo.HasWamid(ctx, wamid)
}

// AppendPatient stores an inbound message with its provider id, classified
// urgency and source channel in the metadata bag.
func (s *Service) AppendPatient(ctx context.Context, conversationID uuid.UUID, content string, meta map[string]interface{}) (*Message, error) {
	m := &Message{
		ConversationID: conversationID,
		Role:           RolePatient,
		Content:        content,
		Metadata:       meta,
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("insert patient message: %w", err)
	}
	return m, nil
}

func (s *Service) AppendAssistant(ctx context.Context, conversationID uuid.UUID, content string, meta map[string]interface{}) (*Message, error) {
	m := &Message{
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        content,
		Metadata:       meta,
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("insert assistant message: %w", err)
	}
	return m, nil
}

// Recent returns the last ContextWindow messages in chronological order.
func (s *Service) Recent(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	return s.repo.RecentMessages(ctx, conversationID, ContextWindow)
}

// Transcript renders messages as "Mother:"/"MamaAI:" lines for the reply
// generator's context block.
func Transcript(messages []*Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "MamaAI"
		if m.Role == RolePatient {
			speaker = "Mother"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, m.Content))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return s.repo.GetConversation(ctx, id)
}

func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}
