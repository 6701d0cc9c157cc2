package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

type medicalRecordRepository struct {
	BaseRepository
}

type prescriptionRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(base BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base}
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

// jsonArg passes JSON to lib/pq as text; raw []byte would be sent as bytea.
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

const medicalRecordColumns = `
	id, record_number, patient_id, session_id, type, description,
	diagnosis, treatment, created_by, created_at, updated_at`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.GetDB().ExecContext(ctx, `
		INSERT INTO medical_records (`+medicalRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.RecordNumber, record.PatientID, record.SessionID, record.Type,
		record.Description, jsonArg(record.Diagnosis), jsonArg(record.Treatment),
		record.CreatedBy, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", translateError(err))
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	err := r.GetDB().GetContext(ctx, &record,
		`SELECT `+medicalRecordColumns+` FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get medical record: %w", translateError(err))
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	var records []*model.MedicalRecord
	err := r.GetDB().SelectContext(ctx, &records, `
		SELECT `+medicalRecordColumns+`
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	medications, err := json.Marshal(prescription.Medications)
	if err != nil {
		return fmt.Errorf("failed to marshal medications: %w", err)
	}
	prescription.MedicationsJSON = medications
	if prescription.ID == uuid.Nil {
		prescription.ID = uuid.New()
	}
	prescription.CreatedAt = time.Now().UTC()

	_, err = r.GetDB().ExecContext(ctx, `
		INSERT INTO prescriptions (
			id, prescription_number, patient_id, medical_record_id,
			medications, notes, prescribed_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		prescription.ID, prescription.PrescriptionNumber, prescription.PatientID,
		prescription.MedicalRecordID, jsonArg(prescription.MedicationsJSON),
		prescription.Notes, prescription.PrescribedBy, prescription.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", translateError(err))
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	err := r.GetDB().GetContext(ctx, &prescription, `
		SELECT id, prescription_number, patient_id, medical_record_id,
			   medications, notes, prescribed_by, created_at
		FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", translateError(err))
	}
	if err := json.Unmarshal(prescription.MedicationsJSON, &prescription.Medications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal medications: %w", err)
	}
	return &prescription, nil
}
