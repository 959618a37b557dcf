package alert

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

// Alert is an insert-only escalation record for a high or critical message.
type Alert struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	PatientID uuid.UUID      `db:"patient_id" json:"patient_id"`
	MessageID uuid.UUID      `db:"message_id" json:"message_id"`
	Urgency   triage.Urgency `db:"urgency" json:"urgency"`
	Symptom   string         `db:"symptom" json:"symptom"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
