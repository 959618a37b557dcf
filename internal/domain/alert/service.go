package alert

import (
	"context"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

type Service struct {
	alerts Repository
}

func NewService(alerts Repository) *Service {
	return &Service{alerts: alerts}
}

// Escalate records an alert when the classified urgency warrants clinician
// attention. Lower urgencies are a no-op and return nil.
func (s *Service) Escalate(ctx context.Context, patientID, messageID uuid.UUID, result triage.Result) (*Alert, error) {
	if !result.Urgency.NeedsAlert() {
		return nil, nil
	}
	a := &Alert{
		PatientID: patientID,
		MessageID: messageID,
		Urgency:   result.Urgency,
		Symptom:   result.Symptom,
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	return s.alerts.List(ctx, limit, offset)
}
