package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

// Repository is the persistence interface for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*Patient, error)
	// CreateIfAbsent inserts the patient unless a row with the same phone
	// number already exists, and returns the row that is now present. The
	// insert relies on the phone_number unique constraint so that two
	// concurrent first-contact messages cannot create two patients.
	CreateIfAbsent(ctx context.Context, p *Patient) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetRiskLevel(ctx context.Context, id uuid.UUID, level triage.Urgency) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
