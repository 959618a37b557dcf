package patient

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// NormalizePhone strips everything but digits from a phone number so that the
// channel's sender id and manually entered numbers compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Enroll registers a patient from the clinic dashboard.
func (s *Service) Enroll(ctx context.Context, p *Patient) error {
	p.PhoneNumber = NormalizePhone(p.PhoneNumber)
	if p.PhoneNumber == "" {
		return fmt.Errorf("phone_number is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.RiskLevel == "" {
		p.RiskLevel = triage.UrgencyLow
	}
	if !p.RiskLevel.Valid() {
		return fmt.Errorf("invalid risk level: %s", p.RiskLevel)
	}
	return s.patients.Create(ctx, p)
}

// FindOrCreateByPhone resolves a phone number to a patient, creating a
// minimal record with placeholder fields when the number is unknown.
func (s *Service) FindOrCreateByPhone(ctx context.Context, phone string) (*Patient, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, fmt.Errorf("empty phone number")
	}
	p, err := s.patients.GetByPhone(ctx, normalized)
	if err == nil {
		return p, nil
	}
	if err != ErrNotFound {
		return nil, fmt.Errorf("lookup patient by phone: %w", err)
	}
	return s.patients.CreateIfAbsent(ctx, &Patient{
		PhoneNumber: normalized,
		Name:        PlaceholderName,
		RiskLevel:   triage.UrgencyLow,
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.RiskLevel != "" && !p.RiskLevel.Valid() {
		return fmt.Errorf("invalid risk level: %s", p.RiskLevel)
	}
	return s.patients.Update(ctx, p)
}

// SetRiskLevel overwrites the patient's risk flag with the urgency of the
// latest classified message. This is an overwrite, not a ratchet: a later
// benign message lowers a previously critical flag.
func (s *Service) SetRiskLevel(ctx context.Context, id uuid.UUID, level triage.Urgency) error {
	if !level.Valid() {
		return fmt.Errorf("invalid risk level: %s", level)
	}
	return s.patients.SetRiskLevel(ctx, id, level)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
