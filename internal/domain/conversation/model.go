package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RolePatient   = "patient"
	RoleAssistant = "assistant"
)

// Metadata keys stored on messages.
const (
	MetaWamid   = "wamid"
	MetaUrgency = "urgency"
	MetaSymptom = "symptom"
	MetaSource  = "source"
)

// Message sources recorded in metadata.
const (
	SourceText            = "text"
	SourceVoice           = "voice"
	SourceDoctorDashboard = "doctor_dashboard"
)

type Conversation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Message is an immutable conversation entry. Metadata is a free-form bag;
// the keys above are the ones the pipeline reads back.
type Message struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	ConversationID uuid.UUID              `db:"conversation_id" json:"conversation_id"`
	Role           string                 `db:"role" json:"role"`
	Content        string                 `db:"content" json:"content"`
	Metadata       map[string]interface{} `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}
