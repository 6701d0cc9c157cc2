package medical

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/validator"
)

type IDAllocator interface {
	Next(ctx context.Context, prefix string, date time.Time) (string, error)
}

// Service creates medical records and prescriptions, numbering each from
// the shared sequential allocator.
type Service struct {
	records       repository.MedicalRecordRepository
	prescriptions repository.PrescriptionRepository
	ids           IDAllocator
	loc           *time.Location
	validator     validator.Validator
	logger        *logger.Logger
}

func NewService(
	records repository.MedicalRecordRepository,
	prescriptions repository.PrescriptionRepository,
	ids IDAllocator,
	loc *time.Location,
	logger *logger.Logger,
) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		records:       records,
		prescriptions: prescriptions,
		ids:           ids,
		loc:           loc,
		validator:     validator.New(),
		logger:        logger,
	}
}

func (s *Service) CreateMedicalRecord(ctx context.Context, record *model.MedicalRecord, now time.Time) error {
	if err := s.validator.Validate(record); err != nil {
		return &errors.AppError{Code: errors.ErrBadRequest, Message: "invalid medical record", Details: err, Err: err}
	}

	number, err := s.ids.Next(ctx, model.PrefixMedicalRecord, now.In(s.loc))
	if err != nil {
		return err
	}
	record.ID = uuid.New()
	record.RecordNumber = number

	if err := s.records.Create(ctx, record); err != nil {
		return s.storeError(ctx, err, "medical record")
	}

	s.logger.WithContext(ctx).Info("Medical record created",
		"record_id", record.ID.String(), "record_number", number)
	return nil
}

func (s *Service) GetMedicalRecord(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, s.readError(ctx, err, "medical record")
	}
	return record, nil
}

func (s *Service) ListMedicalRecords(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, s.readError(ctx, err, "medical records")
	}
	return records, nil
}

func (s *Service) CreatePrescription(ctx context.Context, prescription *model.Prescription, now time.Time) error {
	if err := s.validator.Validate(prescription); err != nil {
		return &errors.AppError{Code: errors.ErrBadRequest, Message: "invalid prescription", Details: err, Err: err}
	}

	if prescription.MedicalRecordID != nil {
		record, err := s.records.Get(ctx, *prescription.MedicalRecordID)
		if err != nil {
			return s.readError(ctx, err, "medical record")
		}
		if record.PatientID != prescription.PatientID {
			return errors.NewBadRequest("medical record belongs to another patient", nil)
		}
	}

	number, err := s.ids.Next(ctx, model.PrefixPrescription, now.In(s.loc))
	if err != nil {
		return err
	}
	prescription.ID = uuid.New()
	prescription.PrescriptionNumber = number

	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		return s.storeError(ctx, err, "prescription")
	}

	s.logger.WithContext(ctx).Info("Prescription created",
		"prescription_id", prescription.ID.String(), "prescription_number", number)
	return nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		return nil, s.readError(ctx, err, "prescription")
	}
	return p, nil
}

// storeError maps write failures. A duplicate number means the counter sits
// below numbers already issued; an operator has to seed it.
func (s *Service) storeError(ctx context.Context, err error, resource string) error {
	if stderrors.Is(err, repository.ErrDuplicate) {
		s.logger.WithContext(ctx).Error(err, "Sequential number already in use, counter needs seeding", "resource", resource)
		return errors.NewAllocationUnavailable(fmt.Errorf("%s number collision: %w", resource, err))
	}
	s.logger.WithContext(ctx).Error(err, "Failed to store "+resource)
	return errors.NewStorageUnavailable(err)
}

func (s *Service) readError(ctx context.Context, err error, resource string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFound(resource, err)
	}
	s.logger.WithContext(ctx).Error(err, "Failed to read "+resource)
	return errors.NewStorageUnavailable(err)
}
