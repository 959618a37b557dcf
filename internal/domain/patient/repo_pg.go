package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamaguard/mamaguard/internal/domain/triage"
)

// ErrNotFound is returned when no patient matches the lookup.
var ErrNotFound = errors.New("patient not found")

// ErrDuplicatePhone is returned when a patient with the same phone number
// already exists.
var ErrDuplicatePhone = errors.New("phone number already enrolled")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, phone_number, name, risk_level, gestational_week, due_date,
	language, medical_notes, emergency_contact_name, emergency_contact_phone,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PhoneNumber, &p.Name, &p.RiskLevel, &p.GestationalWeek, &p.DueDate,
		&p.Language, &p.MedicalNotes, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, phone_number, name, risk_level, gestational_week, due_date,
			language, medical_notes, emergency_contact_name, emergency_contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.PhoneNumber, p.Name, p.RiskLevel, p.GestationalWeek, p.DueDate,
		p.Language, p.MedicalNotes, p.EmergencyContactName, p.EmergencyContactPhone)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicatePhone
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) GetByPhone(ctx context.Context, phoneNumber string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE phone_number = $1`, phoneNumber))
}

func (r *repoPG) CreateIfAbsent(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()
	// ON CONFLICT DO NOTHING keeps the insert race-free under concurrent
	// first-contact deliveries; the follow-up select returns whichever row won.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, phone_number, name, risk_level)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (phone_number) DO NOTHING`,
		id, p.PhoneNumber, p.Name, p.RiskLevel)
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return r.GetByPhone(ctx, p.PhoneNumber)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patients SET name=$2, risk_level=$3, gestational_week=$4, due_date=$5,
			language=$6, medical_notes=$7, emergency_contact_name=$8,
			emergency_contact_phone=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.RiskLevel, p.GestationalWeek, p.DueDate,
		p.Language, p.MedicalNotes, p.EmergencyContactName, p.EmergencyContactPhone)
	return err
}

func (r *repoPG) SetRiskLevel(ctx context.Context, id uuid.UUID, level triage.Urgency) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE patients SET risk_level=$2, updated_at=NOW() WHERE id = $1`, id, level)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
