package conversation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	// LatestByPatient returns the most recently created conversation for the
	// patient, or ErrNotFound when none exists.
	LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)

	InsertMessage(ctx context.Context, m *Message) error
	// HasWamid reports whether any stored message carries the given provider
	// message id in its metadata.
	HasWamid(ctx context.Context, wamid string) (bool, error)
	// RecentMessages returns the newest n messages of a conversation in
	// chronological order.
	RecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]*Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error)
}
