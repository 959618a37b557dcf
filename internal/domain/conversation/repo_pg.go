package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no conversation matches the lookup.
var ErrNotFound = errors.New("conversation not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const conversationCols = `id, patient_id, status, created_at, updated_at`
const messageCols = `id, conversation_id, role, content, metadata, created_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PatientID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *repoPG) CreateConversation(ctx context.Context, c *Conversation) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = "active"
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (id, patient_id, status) VALUES ($1,$2,$3)`,
		c.ID, c.PatientID, c.Status)
	return err
}

func (r *repoPG) LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx,
		`SELECT `+conversationCols+` FROM conversations
		 WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`, patientID))
}

func (r *repoPG) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx,
		`SELECT `+conversationCols+` FROM conversations WHERE id = $1`, id))
}

func (r *repoPG) InsertMessage(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	if m.Metadata == nil {
		m.Metadata = map[string]interface{}{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, metadata)
		 VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.ConversationID, m.Role, m.Content, m.Metadata)
	return err
}

func (r *repoPG) HasWamid(ctx context.Context, wamid string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE metadata->>'wamid' = $1)`, wamid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("wamid lookup: %w", err)
	}
	return exists, nil
}

func (r *repoPG) RecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]*Message, error) {
	// Newest n rows, then flipped so callers see chronological order.
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2`,
		conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (r *repoPG) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
