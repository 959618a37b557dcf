package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

// Patient maps to the patients table. A row is created either by manual
// enrollment from the clinic dashboard or automatically on first inbound
// contact from an unknown phone number.
type Patient struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	PhoneNumber     string         `db:"phone_number" json:"phone_number"`
	Name            string         `db:"name" json:"name"`
	RiskLevel       triage.Urgency `db:"risk_level" json:"risk_level"`
	GestationalWeek *int           `db:"gestational_week" json:"gestational_week,omitempty"`
	DueDate         *time.Time     `db:"due_date" json:"due_date,omitempty"`
	Language        *string        `db:"language" json:"language,omitempty"`
	MedicalNotes    *string        `db:"medical_notes" json:"medical_notes,omitempty"`

	EmergencyContactName  *string `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PlaceholderName is assigned to patients auto-created on first contact,
// until a clinician fills in the real name.
const PlaceholderName = "New Mother"
